// Package cascade deletes entities together with the records that depend on
// them.
//
// The primary record is removed first. Dependent store records follow in a
// fixed order inside one transaction when the store supports it, otherwise as
// individually idempotent steps. Media objects are released last and a
// release failure never restores store state.
package cascade

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// MediaReleaser frees objects held in external storage.
type MediaReleaser interface {
	Release(ctx context.Context, handle string) error
}

// Report counts what a cascade removed.
type Report struct {
	CommentsRemoved int64 `json:"commentsRemoved"`
	LikesRemoved    int64 `json:"likesRemoved"`
	MediaReleased   int64 `json:"mediaReleased"`
}

// Manager runs cascading deletes.
type Manager struct {
	store repositories.Store
	media MediaReleaser

	// StoreTimeout bounds the store steps of one delete. Media releases are
	// not covered. Zero disables it.
	StoreTimeout time.Duration
}

// NewManager constructs a Manager. media may be nil when no media is stored.
func NewManager(store repositories.Store, media MediaReleaser) *Manager {
	if store == nil {
		panic("cascade: store must not be nil")
	}
	return &Manager{store: store, media: media}
}

// DeleteVideo removes video, its comments, likes on the video or those
// comments, and then releases the video file and thumbnail.
func (m *Manager) DeleteVideo(ctx context.Context, video models.Video) (Report, error) {
	ctx, span := logging.StartSpan(ctx, "cascade.delete_video")
	defer span.End()

	var report Report
	err := m.run(ctx, "video", func(ctx context.Context, store repositories.Store) error {
		report = Report{}
		if err := store.Videos().Delete(ctx, video.ID); err != nil {
			return repositories.Classify(err, "video")
		}

		commentIDs, err := store.Comments().IDsByVideo(ctx, video.ID)
		if err != nil {
			return repositories.Classify(err, "comment")
		}
		removed, err := store.Comments().DeleteByVideo(ctx, video.ID)
		if err != nil {
			return repositories.Classify(err, "comment")
		}
		report.CommentsRemoved = removed

		removed, err = store.Likes().DeleteByTargets(ctx, models.TargetComment, commentIDs)
		if err != nil {
			return repositories.Classify(err, "like")
		}
		report.LikesRemoved += removed

		removed, err = store.Likes().DeleteByTargets(ctx, models.TargetVideo, []string{video.ID})
		if err != nil {
			return repositories.Classify(err, "like")
		}
		report.LikesRemoved += removed
		return nil
	})
	if err != nil {
		span.Fail(err)
		return report, err
	}

	released, err := m.release(ctx, video.VideoFile.DeleteHandle, video.Thumbnail.DeleteHandle)
	report.MediaReleased = released
	span.Fail(err)
	m.finish(ctx, "video", video.ID, report, err)
	return report, err
}

// DeleteComment removes comment and the likes on it.
func (m *Manager) DeleteComment(ctx context.Context, comment models.Comment) (Report, error) {
	return m.deleteLiked(ctx, "comment", comment.ID, models.TargetComment, func(ctx context.Context, store repositories.Store) error {
		return store.Comments().Delete(ctx, comment.ID)
	})
}

// DeleteTweet removes tweet and the likes on it.
func (m *Manager) DeleteTweet(ctx context.Context, tweet models.Tweet) (Report, error) {
	return m.deleteLiked(ctx, "tweet", tweet.ID, models.TargetTweet, func(ctx context.Context, store repositories.Store) error {
		return store.Tweets().Delete(ctx, tweet.ID)
	})
}

// DeletePlaylist removes playlist. Its membership rows go with it.
func (m *Manager) DeletePlaylist(ctx context.Context, playlist models.Playlist) (Report, error) {
	sctx, cancel := m.bound(ctx)
	defer cancel()
	if err := m.store.Playlists().Delete(sctx, playlist.ID); err != nil {
		return Report{}, repositories.Classify(err, "playlist")
	}
	m.finish(ctx, "playlist", playlist.ID, Report{}, nil)
	return Report{}, nil
}

func (m *Manager) deleteLiked(ctx context.Context, parent, id string, kind models.TargetKind, remove func(context.Context, repositories.Store) error) (Report, error) {
	var report Report
	err := m.run(ctx, parent, func(ctx context.Context, store repositories.Store) error {
		report = Report{}
		if err := remove(ctx, store); err != nil {
			return repositories.Classify(err, parent)
		}
		removed, err := store.Likes().DeleteByTargets(ctx, kind, []string{id})
		if err != nil {
			return repositories.Classify(err, "like")
		}
		report.LikesRemoved = removed
		return nil
	})
	if err != nil {
		return report, err
	}
	m.finish(ctx, parent, id, report, nil)
	return report, nil
}

// run executes steps in a store transaction, falling back to running them
// directly against the store when transactions are unavailable.
func (m *Manager) run(ctx context.Context, parent string, steps func(context.Context, repositories.Store) error) error {
	sctx, cancel := m.bound(ctx)
	defer cancel()

	err := m.store.Tx(sctx, func(tx repositories.Store) error {
		return steps(sctx, tx)
	})
	if errors.Is(err, repositories.ErrTxUnsupported) {
		metrics.CascadeFallbacks.Inc()
		logging.FromContext(ctx).Info("cascade running without transaction", slog.String("parent", parent))
		err = steps(sctx, m.store)
	}
	if err != nil {
		// Without a transaction, steps after the primary delete may have
		// left orphans behind.
		if !apperr.IsKind(err, apperr.NotFound) {
			metrics.CascadeFailures.WithLabelValues(parent, "store").Inc()
			logging.FromContext(ctx).Error("cascade store steps failed",
				slog.String("parent", parent), slog.Any("error", err))
		}
		return repositories.Classify(err, parent)
	}
	return nil
}

func (m *Manager) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.StoreTimeout)
}

func (m *Manager) release(ctx context.Context, handles ...string) (int64, error) {
	if m.media == nil {
		return 0, nil
	}
	var (
		released int64
		errs     []error
	)
	for _, handle := range handles {
		if handle == "" {
			continue
		}
		if err := m.media.Release(ctx, handle); err != nil {
			errs = append(errs, err)
			continue
		}
		released++
	}
	if len(errs) > 0 {
		return released, apperr.Wrap(apperr.StorageError, "media could not be released", errors.Join(errs...))
	}
	return released, nil
}

func (m *Manager) finish(ctx context.Context, parent, id string, report Report, err error) {
	metrics.RecordCascade(parent, report.CommentsRemoved, report.LikesRemoved, report.MediaReleased)
	logger := logging.FromContext(ctx)
	attrs := []any{
		slog.String("parent", parent),
		slog.String("id", id),
		slog.Int64("comments_removed", report.CommentsRemoved),
		slog.Int64("likes_removed", report.LikesRemoved),
		slog.Int64("media_released", report.MediaReleased),
	}
	if err != nil {
		metrics.CascadeFailures.WithLabelValues(parent, "media").Inc()
		logger.Error("cascade left media behind", append(attrs, slog.Any("error", err))...)
		return
	}
	logger.Info("cascade completed", attrs...)
}
