package content

import (
	"context"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/toggle"
)

// ToggleVideoLike flips the actor's like on a video.
func (s *Service) ToggleVideoLike(ctx context.Context, actorID, videoID string) (toggle.Result, error) {
	return s.toggleLike(ctx, actorID, models.VideoTarget(videoID))
}

// ToggleCommentLike flips the actor's like on a comment.
func (s *Service) ToggleCommentLike(ctx context.Context, actorID, commentID string) (toggle.Result, error) {
	return s.toggleLike(ctx, actorID, models.CommentTarget(commentID))
}

// ToggleTweetLike flips the actor's like on a tweet.
func (s *Service) ToggleTweetLike(ctx context.Context, actorID, tweetID string) (toggle.Result, error) {
	return s.toggleLike(ctx, actorID, models.TweetTarget(tweetID))
}

func (s *Service) toggleLike(ctx context.Context, actorID string, target models.LikeTarget) (toggle.Result, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.toggles.ToggleLike(ctx, actorID, target)
}

// ToggleSubscription flips the actor's subscription to channelID.
func (s *Service) ToggleSubscription(ctx context.Context, actorID, channelID string) (toggle.Result, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.toggles.ToggleSubscription(ctx, actorID, channelID)
}
