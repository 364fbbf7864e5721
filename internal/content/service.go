// Package content implements the mutating operations of the platform: account
// management, videos, comments, tweets, playlists and the like and
// subscription toggles. Every operation takes the acting user explicitly; an
// empty actor ID is an anonymous caller.
package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/cascade"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/toggle"
	"github.com/videotube/backend/internal/views"
)

// MediaStore keeps uploaded files in object storage.
type MediaStore interface {
	// Store uploads the file at localPath and removes the local copy.
	Store(ctx context.Context, localPath string) (models.MediaRef, error)
	Release(ctx context.Context, handle string) error
}

// DurationProber reports the playback length of a media file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Options tune a Service.
type Options struct {
	Policy toggle.Policy
	// StoreTimeout bounds each phase of store calls in an operation. Media
	// uploads and duration probes run on the caller's context. Zero disables it.
	StoreTimeout time.Duration
}

// Service runs content operations against a store.
type Service struct {
	store   repositories.Store
	media   MediaStore
	probe   DurationProber
	toggles *toggle.Engine
	cascade *cascade.Manager
	views   *views.Aggregator
	timeout time.Duration

	bcryptCost int
	now        func() time.Time
	newID      func() string
}

// NewService wires a Service. Without media, uploads fail with StorageError.
// Without probe, published videos keep a zero duration.
func NewService(store repositories.Store, media MediaStore, probe DurationProber, opts Options) *Service {
	if store == nil {
		panic("content: store must not be nil")
	}
	cascades := cascade.NewManager(store, media)
	cascades.StoreTimeout = opts.StoreTimeout
	return &Service{
		store:   store,
		media:   media,
		probe:   probe,
		toggles: toggle.NewEngine(store, opts.Policy),
		cascade: cascades,
		views:   views.NewAggregator(store, opts.StoreTimeout),
		timeout: opts.StoreTimeout,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Views exposes the read projections over the same store.
func (s *Service) Views() *views.Aggregator { return s.views }

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) upload(ctx context.Context, localPath string) (models.MediaRef, error) {
	if s.media == nil {
		return models.MediaRef{}, apperr.New(apperr.StorageError, "media storage is not configured")
	}
	return s.media.Store(ctx, localPath)
}

// discard releases media that was uploaded for a write that did not happen.
func (s *Service) discard(ctx context.Context, refs ...models.MediaRef) {
	if s.media == nil {
		return
	}
	for _, ref := range refs {
		if ref.DeleteHandle == "" {
			continue
		}
		if err := s.media.Release(ctx, ref.DeleteHandle); err != nil {
			logging.FromContext(ctx).Warn("release orphaned media",
				slog.String("handle", ref.DeleteHandle),
				slog.Any("error", err))
		}
	}
}
