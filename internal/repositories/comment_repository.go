package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
	IDsByVideo(ctx context.Context, videoID string) ([]string, error)
	DeleteByVideo(ctx context.Context, videoID string) (int64, error)
	// ListByVideo lists the comments of a video, newest first.
	ListByVideo(videoID string) pagination.Source[models.Comment]
}
