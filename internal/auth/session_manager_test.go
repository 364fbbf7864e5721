package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:  strings.Repeat("k", 32),
		Issuer:     "videotube-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	store := repositories.NewMemoryStore()
	userID := uuid.NewString()
	if err := store.Users().Create(context.Background(), models.User{ID: userID, Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewManager(testConfig(), store.Users()), userID
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, userID := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	subject, err := manager.VerifyAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != userID {
		t.Fatalf("expected subject %s got %s", userID, subject)
	}

	refreshed, err := manager.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("old token should have been rotated out, got %v", err)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _ := newTestManager(t)
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, err := manager.Issue(context.Background(), uuid.NewString()); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, userID := newTestManager(t)
	ctx := context.Background()

	if _, err := manager.Refresh(ctx, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now := manager.now
	manager.now = func() time.Time { return now().Add(2 * time.Hour) }
	_, err = manager.Refresh(ctx, tokens.RefreshToken)
	if !errors.Is(err, ErrRefreshTokenExpired) || !apperr.IsKind(err, apperr.Unauthenticated) {
		t.Fatalf("expected refresh expired got %v", err)
	}
	manager.now = now

	tokens, err = manager.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := manager.Revoke(ctx, userID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestVerifyAccessRejects(t *testing.T) {
	manager, userID := newTestManager(t)
	tokens, err := manager.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otherCfg := testConfig()
	otherCfg.JWTSecret = strings.Repeat("x", 32)
	forger := NewManager(otherCfg, repositories.NewMemoryStore().Users())

	expired := *manager
	expired.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }

	tests := []struct {
		name   string
		verify *Manager
		token  string
	}{
		{name: "garbage", verify: manager, token: "not.a.jwt"},
		{name: "wrong secret", verify: forger, token: tokens.AccessToken},
		{name: "expired", verify: &expired, token: tokens.AccessToken},
		{name: "refresh token", verify: manager, token: tokens.RefreshToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.verify.VerifyAccess(tc.token)
			if !errors.Is(err, ErrInvalidAccessToken) || !apperr.IsKind(err, apperr.Unauthenticated) {
				t.Fatalf("expected invalid access token, got %v", err)
			}
		})
	}
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	if ActorFrom(ctx) != "" {
		t.Fatal("expected anonymous context")
	}
	if got := ActorFrom(WithActor(ctx, "user-1")); got != "user-1" {
		t.Fatalf("expected user-1 got %q", got)
	}
}
