package content

import (
	"context"
	"strings"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/cascade"
	"github.com/videotube/backend/internal/guard"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/validation"
)

// TextInput is the body of a comment or tweet.
type TextInput struct {
	Content string `json:"content" validate:"required,notblank,max=1000"`
}

func (in TextInput) clean() (TextInput, error) {
	in.Content = strings.TrimSpace(in.Content)
	return in, validation.Struct(in)
}

// AddComment posts a comment under a video the actor can see.
func (s *Service) AddComment(ctx context.Context, actorID, videoID string, in TextInput) (models.Comment, error) {
	in, err := in.clean()
	if err != nil {
		return models.Comment{}, err
	}
	if err := validation.ID(videoID, "video id"); err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.actor(ctx, actorID); err != nil {
		return models.Comment{}, err
	}
	video, err := s.store.Videos().FindByID(ctx, videoID)
	if err != nil {
		return models.Comment{}, repositories.Classify(err, "video")
	}
	if !video.IsPublished && video.OwnerID != actorID {
		return models.Comment{}, apperr.New(apperr.NotFound, "video not found")
	}

	now := s.now()
	comment := models.Comment{
		ID:        s.newID(),
		VideoID:   videoID,
		OwnerID:   actorID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return models.Comment{}, repositories.Classify(err, "comment")
	}
	return comment, nil
}

// UpdateComment rewrites the actor's comment.
func (s *Service) UpdateComment(ctx context.Context, actorID, commentID string, in TextInput) (models.Comment, error) {
	in, err := in.clean()
	if err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	comment, err := s.ownedComment(ctx, actorID, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	comment.Content = in.Content
	comment.UpdatedAt = s.now()
	if err := s.store.Comments().Update(ctx, comment); err != nil {
		return models.Comment{}, repositories.Classify(err, "comment")
	}
	return comment, nil
}

// DeleteComment removes the actor's comment and the likes on it.
func (s *Service) DeleteComment(ctx context.Context, actorID, commentID string) (cascade.Report, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	comment, err := s.ownedComment(ctx, actorID, commentID)
	if err != nil {
		return cascade.Report{}, err
	}
	return s.cascade.DeleteComment(ctx, comment)
}

func (s *Service) ownedComment(ctx context.Context, actorID, commentID string) (models.Comment, error) {
	if err := validation.ID(commentID, "comment id"); err != nil {
		return models.Comment{}, err
	}
	comment, err := s.store.Comments().FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, repositories.Classify(err, "comment")
	}
	if err := guard.Authorize(actorID, comment); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// CreateTweet posts a tweet on the actor's channel.
func (s *Service) CreateTweet(ctx context.Context, actorID string, in TextInput) (models.Tweet, error) {
	in, err := in.clean()
	if err != nil {
		return models.Tweet{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.actor(ctx, actorID); err != nil {
		return models.Tweet{}, err
	}
	now := s.now()
	tweet := models.Tweet{
		ID:        s.newID(),
		OwnerID:   actorID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Tweets().Create(ctx, tweet); err != nil {
		return models.Tweet{}, repositories.Classify(err, "tweet")
	}
	return tweet, nil
}

// UpdateTweet rewrites the actor's tweet.
func (s *Service) UpdateTweet(ctx context.Context, actorID, tweetID string, in TextInput) (models.Tweet, error) {
	in, err := in.clean()
	if err != nil {
		return models.Tweet{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	tweet, err := s.ownedTweet(ctx, actorID, tweetID)
	if err != nil {
		return models.Tweet{}, err
	}
	tweet.Content = in.Content
	tweet.UpdatedAt = s.now()
	if err := s.store.Tweets().Update(ctx, tweet); err != nil {
		return models.Tweet{}, repositories.Classify(err, "tweet")
	}
	return tweet, nil
}

// DeleteTweet removes the actor's tweet and the likes on it.
func (s *Service) DeleteTweet(ctx context.Context, actorID, tweetID string) (cascade.Report, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tweet, err := s.ownedTweet(ctx, actorID, tweetID)
	if err != nil {
		return cascade.Report{}, err
	}
	return s.cascade.DeleteTweet(ctx, tweet)
}

func (s *Service) ownedTweet(ctx context.Context, actorID, tweetID string) (models.Tweet, error) {
	if err := validation.ID(tweetID, "tweet id"); err != nil {
		return models.Tweet{}, err
	}
	tweet, err := s.store.Tweets().FindByID(ctx, tweetID)
	if err != nil {
		return models.Tweet{}, repositories.Classify(err, "tweet")
	}
	if err := guard.Authorize(actorID, tweet); err != nil {
		return models.Tweet{}, err
	}
	return tweet, nil
}
