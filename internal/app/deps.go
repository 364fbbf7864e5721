package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/content"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
	"github.com/videotube/backend/internal/toggle"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// pool may be nil when the memory store driver is selected.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	store, err := openStore(pool, cfg.StoreDriver)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	var mediaStore content.MediaStore
	if strings.TrimSpace(cfg.ObjectStore.Bucket) != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.ObjectStore, cfg.StorageTimeout)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
		}
		mediaStore = s3Storage
	}

	svc := content.NewService(store, mediaStore, media.NewFFProbe(cfg.Media.FFProbePath, cfg.Media.FFProbeTimeout), content.Options{
		Policy: toggle.Policy{
			AllowSelfLike:      cfg.Policy.AllowSelfLike,
			AllowSelfSubscribe: cfg.Policy.AllowSelfSubscribe,
		},
		StoreTimeout: cfg.StoreTimeout,
	})

	deps := handlers.Dependencies{
		Content:  svc,
		Sessions: auth.NewManager(cfg.Auth, store.Users()),
		Limiter: middleware.NewIPRateLimiter(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			cfg.RateLimit.Burst,
			cfg.RateLimit.TTL,
		),
		Uploads:     handlers.UploadConfig{Dir: cfg.Media.UploadDir, MaxBytes: cfg.Media.MaxUploadBytes},
		CORSOrigins: cfg.CORSOrigins,
	}
	if pinger, ok := pool.(handlers.Pinger); ok {
		deps.Database = pinger
	}
	return deps, nil
}

func openStore(pool db.Pool, driver string) (repositories.Store, error) {
	switch driver {
	case config.DriverMemory:
		return repositories.NewMemoryStore(), nil
	case config.DriverPostgres, "":
		if pool == nil {
			return nil, fmt.Errorf("store driver %q needs a database connection", config.DriverPostgres)
		}
		return repositories.NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
