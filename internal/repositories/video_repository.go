package repositories

import (
	"context"
	"time"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// SortField is a whitelisted video ordering key.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortViews     SortField = "views"
	SortDuration  SortField = "duration"
	SortTitle     SortField = "title"
)

// Valid reports whether f is whitelisted.
func (f SortField) Valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortViews, SortDuration, SortTitle:
		return true
	}
	return false
}

// VideoQuery filters and orders a video listing.
type VideoQuery struct {
	Text          string
	OwnerID       string
	PublishedOnly bool
	SortBy        SortField
	Ascending     bool
}

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	// Update persists title, description, thumbnail and the update time.
	Update(ctx context.Context, video models.Video) error
	// TogglePublished flips the publish flag in place and returns the new value.
	TogglePublished(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	Search(query VideoQuery) pagination.Source[models.Video]
	// LikedBy lists published videos liked by userID, most recent like first.
	LikedBy(userID string) pagination.Source[models.Video]
	// LatestPublished returns the newest published video per owner.
	LatestPublished(ctx context.Context, ownerIDs []string) (map[string]models.Video, error)
}
