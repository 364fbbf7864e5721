package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

var (
	// ErrSessionNotFound indicates the provided refresh token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrInvalidAccessToken indicates a malformed, forged or expired access token.
	ErrInvalidAccessToken = errors.New("invalid access token")
)

// RefreshStore persists the single refresh token slot of each user.
type RefreshStore interface {
	FindByRefreshToken(ctx context.Context, token string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
}

// Manager issues signed access tokens and rotates opaque refresh tokens.
// A user holds at most one refresh token; issuing a new one invalidates the
// previous token.
type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	store RefreshStore
	now   func() time.Time
}

// NewManager constructs a Manager signing with cfg.JWTSecret.
func NewManager(cfg config.AuthConfig, store RefreshStore) *Manager {
	if store == nil {
		panic("auth: refresh store must not be nil")
	}
	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new pair of access and refresh tokens for the provided user identifier.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := m.now()
	accessExpires := now.Add(m.accessTTL)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(accessExpires),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	tokens := models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}
	if err := m.store.SetRefreshToken(ctx, userID, refreshToken, tokens.RefreshExpiresAt); err != nil {
		return models.SessionTokens{}, repositories.Classify(err, "user")
	}
	return tokens, nil
}

// Refresh exchanges a refresh token for a new session token pair. The
// presented token stops working.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, unauthenticated("refresh token is required", ErrSessionNotFound)
	}

	user, err := m.store.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, unauthenticated("invalid refresh token", ErrSessionNotFound)
		}
		return models.SessionTokens{}, repositories.Classify(err, "user")
	}

	if m.now().After(user.RefreshTokenExpiresAt) {
		_ = m.store.SetRefreshToken(ctx, user.ID, "", time.Time{})
		return models.SessionTokens{}, unauthenticated("refresh token is expired", ErrRefreshTokenExpired)
	}

	return m.Issue(ctx, user.ID)
}

// Revoke clears the user's refresh token.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return repositories.Classify(m.store.SetRefreshToken(ctx, userID, "", time.Time{}), "user")
}

// VerifyAccess validates an access token and returns the user it was issued to.
func (m *Manager) VerifyAccess(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		if err == nil {
			err = ErrInvalidAccessToken
		}
		return "", unauthenticated("invalid access token", errors.Join(ErrInvalidAccessToken, err))
	}
	return claims.Subject, nil
}

func unauthenticated(message string, err error) error {
	return apperr.Wrap(apperr.Unauthenticated, message, err)
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
