// Package toggle flips like and subscription edges between present and absent.
package toggle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/validation"
)

// Policy controls whether users may create edges pointing at themselves.
type Policy struct {
	AllowSelfLike      bool
	AllowSelfSubscribe bool
}

// DefaultPolicy permits self-likes and self-subscriptions.
func DefaultPolicy() Policy {
	return Policy{AllowSelfLike: true, AllowSelfSubscribe: true}
}

// Result reports the state of the edge after a toggle.
type Result struct {
	Active bool `json:"active"`
}

// Engine toggles edges. Concurrent toggles are not serialised here; the store's
// uniqueness constraint on each edge decides which create wins.
type Engine struct {
	store  repositories.Store
	policy Policy

	now   func() time.Time
	newID func() string
}

// NewEngine constructs an Engine backed by the provided store.
func NewEngine(store repositories.Store, policy Policy) *Engine {
	if store == nil {
		panic("toggle: store must not be nil")
	}
	return &Engine{
		store:  store,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// ToggleLike flips actorID's like on target.
func (e *Engine) ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (Result, error) {
	if !target.Kind.Valid() {
		return Result{}, apperr.Newf(apperr.InvalidArgument, "unknown like target %q", target.Kind)
	}
	if err := validation.ID(target.ID, string(target.Kind)+" id"); err != nil {
		return Result{}, err
	}
	if actorID == "" {
		return Result{}, apperr.New(apperr.Forbidden, "sign in to like content")
	}

	owner, err := e.targetOwner(ctx, target)
	if err != nil {
		return Result{}, err
	}
	if owner == actorID && !e.policy.AllowSelfLike {
		return Result{}, apperr.Newf(apperr.InvalidArgument, "cannot like your own %s", target.Kind)
	}

	edge := "like_" + string(target.Kind)
	likes := e.store.Likes()

	existing, err := likes.Find(ctx, actorID, target)
	switch {
	case err == nil:
		if err := likes.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return Result{}, repositories.Classify(err, "like")
		}
		return e.settle(ctx, edge, false, slog.String("target_id", target.ID)), nil
	case !errors.Is(err, repositories.ErrNotFound):
		return Result{}, repositories.Classify(err, "like")
	}

	like := models.Like{
		ID:        e.newID(),
		Target:    target,
		LikedBy:   actorID,
		CreatedAt: e.now(),
	}
	if err := likes.Create(ctx, like); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			metrics.ToggleRaces.WithLabelValues(edge).Inc()
			return e.settle(ctx, edge, true, slog.String("target_id", target.ID), slog.Bool("raced", true)), nil
		}
		return Result{}, repositories.Classify(err, "like")
	}
	return e.settle(ctx, edge, true, slog.String("target_id", target.ID)), nil
}

// ToggleSubscription flips actorID's subscription to channelID.
func (e *Engine) ToggleSubscription(ctx context.Context, actorID, channelID string) (Result, error) {
	if err := validation.ID(channelID, "channel id"); err != nil {
		return Result{}, err
	}
	if actorID == "" {
		return Result{}, apperr.New(apperr.Forbidden, "sign in to subscribe")
	}
	if _, err := e.store.Users().FindByID(ctx, channelID); err != nil {
		return Result{}, repositories.Classify(err, "channel")
	}
	if channelID == actorID && !e.policy.AllowSelfSubscribe {
		return Result{}, apperr.New(apperr.InvalidArgument, "cannot subscribe to your own channel")
	}

	const edge = "subscription"
	subs := e.store.Subscriptions()

	existing, err := subs.Find(ctx, actorID, channelID)
	switch {
	case err == nil:
		if err := subs.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return Result{}, repositories.Classify(err, "subscription")
		}
		return e.settle(ctx, edge, false, slog.String("channel_id", channelID)), nil
	case !errors.Is(err, repositories.ErrNotFound):
		return Result{}, repositories.Classify(err, "subscription")
	}

	sub := models.Subscription{
		ID:           e.newID(),
		SubscriberID: actorID,
		ChannelID:    channelID,
		CreatedAt:    e.now(),
	}
	if err := subs.Create(ctx, sub); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			metrics.ToggleRaces.WithLabelValues(edge).Inc()
			return e.settle(ctx, edge, true, slog.String("channel_id", channelID), slog.Bool("raced", true)), nil
		}
		return Result{}, repositories.Classify(err, "subscription")
	}
	return e.settle(ctx, edge, true, slog.String("channel_id", channelID)), nil
}

func (e *Engine) targetOwner(ctx context.Context, target models.LikeTarget) (string, error) {
	switch target.Kind {
	case models.TargetVideo:
		video, err := e.store.Videos().FindByID(ctx, target.ID)
		if err != nil {
			return "", repositories.Classify(err, "video")
		}
		return video.Owner(), nil
	case models.TargetComment:
		comment, err := e.store.Comments().FindByID(ctx, target.ID)
		if err != nil {
			return "", repositories.Classify(err, "comment")
		}
		return comment.Owner(), nil
	default:
		tweet, err := e.store.Tweets().FindByID(ctx, target.ID)
		if err != nil {
			return "", repositories.Classify(err, "tweet")
		}
		return tweet.Owner(), nil
	}
}

func (e *Engine) settle(ctx context.Context, edge string, active bool, attrs ...any) Result {
	metrics.RecordToggle(edge, active)
	logging.FromContext(ctx).Debug("edge toggled",
		append([]any{slog.String("edge", edge), slog.Bool("active", active)}, attrs...)...)
	return Result{Active: active}
}
