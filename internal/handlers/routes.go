package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/videotube/backend/internal/content"
	"github.com/videotube/backend/internal/middleware"
)

// Dependencies contains the services required by the HTTP handlers.
type Dependencies struct {
	Content     *content.Service
	Sessions    SessionManager
	Limiter     middleware.RateLimiter
	Uploads     UploadConfig
	CORSOrigins []string
	Logger      *slog.Logger
	Database    Pinger
}

// NewRouter mounts every endpoint under /api/v1. Reads accept anonymous
// callers; writes require a verified access token.
func NewRouter(deps Dependencies) http.Handler {
	users := UserHandler{Content: deps.Content, Sessions: deps.Sessions, Uploads: deps.Uploads}
	videos := VideoHandler{Content: deps.Content, Uploads: deps.Uploads}
	comments := CommentHandler{Content: deps.Content}
	tweets := TweetHandler{Content: deps.Content}
	engagement := EngagementHandler{Content: deps.Content}
	playlists := PlaylistHandler{Content: deps.Content}
	health := HealthHandler{Database: deps.Database}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	requireActor := middleware.RequireActor(respondError)
	authLimit := func(next http.Handler) http.Handler { return next }
	if deps.Limiter != nil {
		authLimit = middleware.RateLimit(deps.Limiter, "auth", respondError)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Authenticate(deps.Sessions, respondError))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(r.Context(), w, http.StatusNotFound, nil, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(r.Context(), w, http.StatusMethodNotAllowed, nil, "method not allowed")
	})

	r.Get("/healthz", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", health.Handle)

		r.Route("/users", func(r chi.Router) {
			r.With(authLimit).Post("/register", users.Register)
			r.With(authLimit).Post("/login", users.Login)
			r.With(authLimit).Post("/refresh-token", users.Refresh)
			r.Get("/c/{username}", users.Channel)

			r.Group(func(r chi.Router) {
				r.Use(requireActor)
				r.Post("/logout", users.Logout)
				r.Post("/change-password", users.ChangePassword)
				r.Get("/current-user", users.Current)
				r.Patch("/update-account", users.UpdateAccount)
				r.Patch("/avatar", users.UpdateAvatar)
				r.Patch("/cover-image", users.UpdateCoverImage)
				r.Get("/history", users.History)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", videos.Feed)
			r.Get("/{videoID}", videos.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireActor)
				r.Post("/", videos.Publish)
				r.Patch("/{videoID}", videos.Update)
				r.Delete("/{videoID}", videos.Delete)
				r.Patch("/toggle/publish/{videoID}", videos.TogglePublish)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/{videoID}", comments.List)

			r.Group(func(r chi.Router) {
				r.Use(requireActor)
				r.Post("/{videoID}", comments.Add)
				r.Patch("/c/{commentID}", comments.Update)
				r.Delete("/c/{commentID}", comments.Delete)
			})
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Get("/user/{userID}", tweets.ListByUser)

			r.Group(func(r chi.Router) {
				r.Use(requireActor)
				r.Post("/", tweets.Create)
				r.Patch("/{tweetID}", tweets.Update)
				r.Delete("/{tweetID}", tweets.Delete)
			})
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireActor)
			r.Post("/toggle/v/{videoID}", engagement.ToggleVideoLike)
			r.Post("/toggle/c/{commentID}", engagement.ToggleCommentLike)
			r.Post("/toggle/t/{tweetID}", engagement.ToggleTweetLike)
			r.Get("/videos", engagement.LikedVideos)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/c/{channelID}", engagement.Subscribers)
			r.Get("/u/{subscriberID}", engagement.Subscriptions)
			r.With(requireActor).Post("/c/{channelID}", engagement.ToggleSubscription)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/{playlistID}", playlists.Get)
			r.Get("/user/{userID}", playlists.ListByUser)

			r.Group(func(r chi.Router) {
				r.Use(requireActor)
				r.Post("/", playlists.Create)
				r.Patch("/{playlistID}", playlists.Update)
				r.Delete("/{playlistID}", playlists.Delete)
				r.Patch("/add/{videoID}/{playlistID}", playlists.AddVideo)
				r.Patch("/remove/{videoID}/{playlistID}", playlists.RemoveVideo)
			})
		})
	})

	return r
}
