package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// LikeStat aggregates the likes on one target.
type LikeStat struct {
	Count int64
	// Liked reports whether the viewer is among the likers.
	Liked bool
}

// LikeRepository defines the data access contract for like edges.
type LikeRepository interface {
	Find(ctx context.Context, userID string, target models.LikeTarget) (models.Like, error)
	// Create returns ErrConflict when the (user, target) edge already exists.
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id string) error
	DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []string) (int64, error)
	// Stats reports per-target counts for ids of the given kind. Targets
	// without likes are absent from the result.
	Stats(ctx context.Context, viewerID string, kind models.TargetKind, ids []string) (map[string]LikeStat, error)
}
