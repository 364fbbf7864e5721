package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/content"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/toggle"
)

type stubMedia struct{}

func (stubMedia) Store(_ context.Context, localPath string) (models.MediaRef, error) {
	key := filepath.Base(localPath)
	return models.MediaRef{URL: "https://cdn.example.com/" + key, DeleteHandle: key}, nil
}

func (stubMedia) Release(context.Context, string) error { return nil }

type stubProbe struct{}

func (stubProbe) Duration(context.Context, string) (float64, error) { return 12, nil }

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

type response struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []struct {
		Field string `json:"field"`
	} `json:"errors"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T, limiter middleware.RateLimiter) *testServer {
	t.Helper()
	store := repositories.NewMemoryStore()
	svc := content.NewService(store, stubMedia{}, stubProbe{}, content.Options{Policy: toggle.Policy{AllowSelfLike: true}, StoreTimeout: time.Second})
	sessions := auth.NewManager(config.AuthConfig{
		JWTSecret:  strings.Repeat("s", 32),
		Issuer:     "videotube-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, store.Users())

	return &testServer{t: t, router: NewRouter(Dependencies{
		Content:  svc,
		Sessions: sessions,
		Limiter:  limiter,
		Uploads:  UploadConfig{Dir: t.TempDir(), MaxBytes: 1 << 20},
	})}
}

func (s *testServer) do(req *http.Request, token string) (*httptest.ResponseRecorder, response) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		s.t.Fatalf("decode %s %s response %q: %v", req.Method, req.URL.Path, rec.Body.String(), err)
	}
	return rec, body
}

func (s *testServer) json(method, path, token string, payload any) (*httptest.ResponseRecorder, response) {
	s.t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			s.t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *testServer) multipart(method, path, token string, fields map[string]string, files map[string]string) (*httptest.ResponseRecorder, response) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			s.t.Fatalf("write field: %v", err)
		}
	}
	for field, name := range files {
		part, err := mw.CreateFormFile(field, name)
		if err != nil {
			s.t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte("payload of " + name)); err != nil {
			s.t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		s.t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, token)
}

func decodeData[T any](t *testing.T, body response) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(body.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", body.Data, err)
	}
	return out
}

func (s *testServer) register(username string) {
	s.t.Helper()
	rec, body := s.multipart(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "User " + username,
		"password": "correct-horse",
	}, map[string]string{"avatar": "avatar.png"})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: expected 201 got %d: %s", username, rec.Code, body.Message)
	}
}

func (s *testServer) login(username string) authResponse {
	s.t.Helper()
	rec, body := s.json(http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"username": username,
		"password": "correct-horse",
	})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: expected 200 got %d: %s", username, rec.Code, body.Message)
	}
	return decodeData[authResponse](s.t, body)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, allowAll{})
	srv.register("alice")

	rec, body := srv.multipart(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"fullName": "Someone Else",
		"password": "correct-horse",
	}, map[string]string{"avatar": "avatar.png"})
	if rec.Code != http.StatusConflict || body.Success {
		t.Fatalf("expected duplicate register to conflict, got %d", rec.Code)
	}

	session := srv.login("alice")
	if session.User == nil || session.User.Username != "alice" {
		t.Fatalf("expected logged in user alice, got %+v", session.User)
	}
	if session.Tokens.AccessToken == "" || session.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	rec, body = srv.json(http.MethodGet, "/api/v1/users/current-user", session.Tokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected current user, got %d: %s", rec.Code, body.Message)
	}
	if user := decodeData[models.User](t, body); user.ID != session.User.ID {
		t.Fatalf("expected current user %s, got %s", session.User.ID, user.ID)
	}

	rec, _ = srv.json(http.MethodGet, "/api/v1/users/current-user", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected anonymous current-user to be 401, got %d", rec.Code)
	}
	rec, _ = srv.json(http.MethodGet, "/api/v1/users/current-user", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected bad token to be 401, got %d", rec.Code)
	}

	rec, body = srv.json(http.MethodPost, "/api/v1/users/refresh-token", "", refreshRequest{RefreshToken: session.Tokens.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected refresh to succeed, got %d: %s", rec.Code, body.Message)
	}
	rotated := decodeData[authResponse](t, body)
	if rotated.Tokens.RefreshToken == session.Tokens.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}
	rec, _ = srv.json(http.MethodPost, "/api/v1/users/refresh-token", "", refreshRequest{RefreshToken: session.Tokens.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected stale refresh token to be rejected, got %d", rec.Code)
	}

	rec, _ = srv.json(http.MethodPost, "/api/v1/users/logout", rotated.Tokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected logout to succeed, got %d", rec.Code)
	}
	rec, _ = srv.json(http.MethodPost, "/api/v1/users/refresh-token", "", refreshRequest{RefreshToken: rotated.Tokens.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected refresh after logout to be rejected, got %d", rec.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t, allowAll{})
	srv.register("bob")

	tests := []struct {
		name    string
		payload any
		want    int
	}{
		{name: "unknown user", payload: map[string]string{"username": "nobody", "password": "correct-horse"}, want: http.StatusNotFound},
		{name: "wrong password", payload: map[string]string{"username": "bob", "password": "wrong-horse"}, want: http.StatusUnauthorized},
		{name: "missing identity", payload: map[string]string{"password": "correct-horse"}, want: http.StatusBadRequest},
		{name: "unknown field", payload: map[string]string{"username": "bob", "password": "correct-horse", "role": "admin"}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := srv.json(http.MethodPost, "/api/v1/users/login", "", tt.payload)
			if rec.Code != tt.want {
				t.Fatalf("expected %d got %d: %s", tt.want, rec.Code, body.Message)
			}
			if body.Success || body.StatusCode != tt.want {
				t.Fatalf("expected failed envelope with status %d, got %+v", tt.want, body)
			}
		})
	}
}

func TestRegisterReportsFieldErrors(t *testing.T) {
	srv := newTestServer(t, allowAll{})

	rec, body := srv.multipart(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": "carol",
		"email":    "not-an-email",
		"fullName": "Carol",
		"password": "correct-horse",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	fields := map[string]bool{}
	for _, fe := range body.Errors {
		fields[fe.Field] = true
	}
	if !fields["email"] || !fields["avatar"] {
		t.Fatalf("expected email and avatar field errors, got %+v", body.Errors)
	}
}

func TestVideoLifecycle(t *testing.T) {
	srv := newTestServer(t, allowAll{})
	srv.register("owner")
	srv.register("viewer")
	owner := srv.login("owner").Tokens.AccessToken
	viewer := srv.login("viewer").Tokens.AccessToken

	rec, body := srv.multipart(http.MethodPost, "/api/v1/videos", owner,
		map[string]string{"title": "Launch", "description": "first upload"},
		map[string]string{"videoFile": "clip.mp4", "thumbnail": "thumb.jpg"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected publish to succeed, got %d: %s", rec.Code, body.Message)
	}
	video := decodeData[models.Video](t, body)
	if video.IsPublished || video.Duration != 12 {
		t.Fatalf("expected unpublished video with probed duration, got %+v", video)
	}

	_, body = srv.json(http.MethodGet, "/api/v1/videos", "", nil)
	if feed := decodeData[struct{ TotalItems int }](t, body); feed.TotalItems != 0 {
		t.Fatalf("expected drafts hidden from the feed, got %d", feed.TotalItems)
	}
	rec, _ = srv.json(http.MethodGet, "/api/v1/videos/"+video.ID, viewer, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected draft to be hidden from viewer, got %d", rec.Code)
	}

	rec, _ = srv.json(http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, viewer, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-owner toggle to be forbidden, got %d", rec.Code)
	}
	rec, body = srv.json(http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, owner, nil)
	if rec.Code != http.StatusOK || !decodeData[models.PublishState](t, body).IsPublished {
		t.Fatalf("expected owner to publish, got %d", rec.Code)
	}

	_, body = srv.json(http.MethodGet, "/api/v1/videos?sortBy=views&sortType=desc", "", nil)
	if feed := decodeData[struct{ TotalItems int }](t, body); feed.TotalItems != 1 {
		t.Fatalf("expected one published video in the feed, got %d", feed.TotalItems)
	}

	rec, body = srv.json(http.MethodPost, "/api/v1/likes/toggle/v/"+video.ID, viewer, nil)
	if rec.Code != http.StatusOK || !decodeData[toggle.Result](t, body).Active || body.Message != "video liked" {
		t.Fatalf("expected like to activate, got %d %q", rec.Code, body.Message)
	}

	rec, body = srv.json(http.MethodGet, "/api/v1/videos/"+video.ID, viewer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected watch to succeed, got %d: %s", rec.Code, body.Message)
	}
	detail := decodeData[models.VideoDetail](t, body)
	if detail.Views != 1 || detail.LikesCount != 1 || !detail.IsLiked {
		t.Fatalf("unexpected detail %+v", detail)
	}

	rec, body = srv.json(http.MethodPost, "/api/v1/comments/"+video.ID, viewer, content.TextInput{Content: "nice"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected comment to be added, got %d: %s", rec.Code, body.Message)
	}
	_, body = srv.json(http.MethodGet, "/api/v1/comments/"+video.ID, "", nil)
	if page := decodeData[struct{ TotalItems int }](t, body); page.TotalItems != 1 {
		t.Fatalf("expected one comment, got %d", page.TotalItems)
	}

	rec, _ = srv.json(http.MethodDelete, "/api/v1/videos/"+video.ID, viewer, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-owner delete to be forbidden, got %d", rec.Code)
	}
	rec, body = srv.json(http.MethodDelete, "/api/v1/videos/"+video.ID, owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected owner delete to succeed, got %d: %s", rec.Code, body.Message)
	}
	rec, _ = srv.json(http.MethodGet, "/api/v1/comments/"+video.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected comments of a deleted video to be gone, got %d", rec.Code)
	}
}

func TestPlaylistsAndSubscriptions(t *testing.T) {
	srv := newTestServer(t, allowAll{})
	srv.register("curator")
	srv.register("creator")
	curator := srv.login("curator")
	creator := srv.login("creator")

	_, body := srv.multipart(http.MethodPost, "/api/v1/videos", creator.Tokens.AccessToken,
		map[string]string{"title": "Song", "description": "music"},
		map[string]string{"videoFile": "song.mp4", "thumbnail": "song.jpg"})
	video := decodeData[models.Video](t, body)

	rec, body := srv.json(http.MethodPost, "/api/v1/playlists", curator.Tokens.AccessToken, content.PlaylistInput{Name: "Mix"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected playlist to be created, got %d: %s", rec.Code, body.Message)
	}
	playlist := decodeData[models.Playlist](t, body)

	path := "/api/v1/playlists/add/" + video.ID + "/" + playlist.ID
	rec, _ = srv.json(http.MethodPatch, path, creator.Tokens.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-owner add to be forbidden, got %d", rec.Code)
	}
	for range 2 {
		rec, body = srv.json(http.MethodPatch, path, curator.Tokens.AccessToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected add to succeed, got %d: %s", rec.Code, body.Message)
		}
	}
	if got := decodeData[models.Playlist](t, body).VideoIDs; len(got) != 1 {
		t.Fatalf("expected add to be idempotent, got %v", got)
	}

	channelPath := "/api/v1/subscriptions/c/" + creator.User.ID
	rec, body = srv.json(http.MethodPost, channelPath, curator.Tokens.AccessToken, nil)
	if rec.Code != http.StatusOK || body.Message != "subscribed" {
		t.Fatalf("expected subscribe, got %d %q", rec.Code, body.Message)
	}
	_, body = srv.json(http.MethodGet, channelPath, "", nil)
	if page := decodeData[struct{ TotalItems int }](t, body); page.TotalItems != 1 {
		t.Fatalf("expected one subscriber, got %d", page.TotalItems)
	}
	rec, _ = srv.json(http.MethodPost, "/api/v1/subscriptions/c/"+curator.User.ID, curator.Tokens.AccessToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected self subscription to be rejected, got %d", rec.Code)
	}
	rec, _ = srv.json(http.MethodPost, channelPath, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected anonymous toggle to be 401, got %d", rec.Code)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	limiter := middleware.NewIPRateLimiter(1, time.Hour, 1, time.Hour)
	srv := newTestServer(t, limiter)

	payload := map[string]string{"username": "nobody", "password": "whatever-pass"}
	rec, _ := srv.json(http.MethodPost, "/api/v1/users/login", "", payload)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected first attempt to reach the handler, got %d", rec.Code)
	}
	rec, body := srv.json(http.MethodPost, "/api/v1/users/login", "", payload)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second attempt to be limited, got %d: %s", rec.Code, body.Message)
	}

	rec, _ = srv.json(http.MethodGet, "/api/v1/videos", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected read routes to stay unlimited, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, allowAll{})

	rec, body := srv.json(http.MethodGet, "/api/v1/nowhere", "", nil)
	if rec.Code != http.StatusNotFound || body.Success {
		t.Fatalf("expected 404 envelope, got %d %+v", rec.Code, body)
	}
}
