package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// TweetRepository defines the data access contract for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
	// ListByOwner lists a user's tweets, newest first.
	ListByOwner(ownerID string) pagination.Source[models.Tweet]
}
