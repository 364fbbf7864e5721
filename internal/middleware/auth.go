package middleware

import (
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/auth"
)

// AccessCookie is the cookie that may carry the access token for browser clients.
const AccessCookie = "accessToken"

// TokenVerifier resolves an access token to a user ID.
type TokenVerifier interface {
	VerifyAccess(token string) (string, error)
}

// ErrorResponder writes err to the client.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Authenticate resolves the bearer token or access cookie into an actor on
// the request context. Requests without credentials pass through anonymous;
// requests with bad credentials are rejected.
func Authenticate(verifier TokenVerifier, onError ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}
			actorID, err := verifier.VerifyAccess(token)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actorID)))
		})
	}
}

// RequireActor rejects anonymous requests.
func RequireActor(onError ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.ActorFrom(r.Context()) == "" {
				onError(w, r, apperr.New(apperr.Unauthenticated, "unauthorized request"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
