package repositories

import (
	"context"
	"time"

	"github.com/videotube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByRefreshToken(ctx context.Context, token string) (models.User, error)
	// Update persists the mutable profile fields and the password hash.
	Update(ctx context.Context, user models.User) error
	// SetRefreshToken overwrites the user's single refresh slot. An empty
	// token clears it.
	SetRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	// AppendWatchHistory records videoID unless it is already present.
	AppendWatchHistory(ctx context.Context, userID, videoID string, at time.Time) error
	WatchHistory(ctx context.Context, userID string) ([]string, error)
}
