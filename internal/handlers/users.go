package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/content"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// SessionManager issues, rotates and revokes session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
	VerifyAccess(token string) (string, error)
}

const refreshCookie = "refreshToken"

// UserHandler implements the account and channel endpoints.
type UserHandler struct {
	Content  *content.Service
	Sessions SessionManager
	Uploads  UploadConfig
}

type authResponse struct {
	User   *models.User         `json:"user,omitempty"`
	Tokens models.SessionTokens `json:"tokens"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /users/register as a multipart form with avatar and
// optional coverImage files.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := h.Uploads.parseUpload(w, r); err != nil {
		respondError(w, r, err)
		return
	}
	var files received
	defer files.cleanup()

	avatar, err := h.Uploads.spool(r, &files, "avatar")
	if err != nil {
		respondError(w, r, err)
		return
	}
	cover, err := h.Uploads.spool(r, &files, "coverImage")
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.Content.Register(r.Context(), content.RegisterInput{
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		FullName:   r.FormValue("fullName"),
		Password:   r.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req content.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.Content.Authenticate(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tokens, err := h.Sessions.Issue(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(r.Context(), w, http.StatusOK, authResponse{User: &user, Tokens: tokens}, "user logged in successfully")
}

// Refresh handles POST /users/refresh-token. The token comes from the body
// or the refresh cookie.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := r.Cookie(refreshCookie); err == nil {
			token = cookie.Value
		}
	}

	tokens, err := h.Sessions.Refresh(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	setSessionCookies(w, tokens)
	respondJSON(r.Context(), w, http.StatusOK, authResponse{Tokens: tokens}, "access token refreshed")
}

// Logout handles POST /users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Revoke(r.Context(), auth.ActorFrom(r.Context())); err != nil {
		respondError(w, r, err)
		return
	}
	clearSessionCookies(w)
	respondJSON(r.Context(), w, http.StatusOK, struct{}{}, "user logged out")
}

// ChangePassword handles POST /users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req content.PasswordInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.Content.ChangePassword(r.Context(), auth.ActorFrom(r.Context()), req); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, struct{}{}, "password changed successfully")
}

// Current handles GET /users/current-user.
func (h UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, err := h.Content.Current(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAccount handles PATCH /users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req content.AccountInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.Content.UpdateAccount(r.Context(), auth.ActorFrom(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, user, "account details updated successfully")
}

// UpdateAvatar handles PATCH /users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", h.Content.UpdateAvatar, "avatar updated successfully")
}

// UpdateCoverImage handles PATCH /users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", h.Content.UpdateCoverImage, "cover image updated successfully")
}

func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string,
	update func(ctx context.Context, actorID, localPath string) (models.User, error), message string) {
	if err := h.Uploads.parseUpload(w, r); err != nil {
		respondError(w, r, err)
		return
	}
	var files received
	defer files.cleanup()

	path, err := h.Uploads.spool(r, &files, field)
	if err != nil {
		respondError(w, r, err)
		return
	}
	user, err := update(r.Context(), auth.ActorFrom(r.Context()), path)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, user, message)
}

// Channel handles GET /users/c/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Content.Views().ChannelProfile(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, profile, "user channel fetched successfully")
}

// History handles GET /users/history.
func (h UserHandler) History(w http.ResponseWriter, r *http.Request) {
	page, err := h.Content.Views().WatchHistory(r.Context(), auth.ActorFrom(r.Context()), pageParams(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, page, "watch history fetched successfully")
}

func pageParams(r *http.Request) pagination.Params {
	q := r.URL.Query()
	return pagination.ParseParams(q.Get("page"), q.Get("limit"))
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, sessionCookie(middleware.AccessCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, sessionCookie(refreshCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessCookie, refreshCookie} {
		c := sessionCookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func sessionCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
