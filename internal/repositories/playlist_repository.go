package repositories

import (
	"context"
	"time"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// PlaylistRepository defines the data access contract for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	// Update persists name and description.
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	// AddVideo appends videoID unless it is already a member.
	AddVideo(ctx context.Context, playlistID, videoID string, at time.Time) error
	RemoveVideo(ctx context.Context, playlistID, videoID string, at time.Time) error
	// ListByOwner lists a user's playlists, most recently updated first.
	ListByOwner(ownerID string) pagination.Source[models.Playlist]
}
