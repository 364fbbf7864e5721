package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// ChannelStat aggregates the subscription edges around one user.
type ChannelStat struct {
	Subscribers  int64
	SubscribedTo int64
	// ViewerSubscribed reports whether the viewer subscribes to the channel.
	ViewerSubscribed bool
}

// SubscriptionRepository defines the data access contract for subscription edges.
type SubscriptionRepository interface {
	Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	// Create returns ErrConflict when the edge already exists.
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, id string) error
	// ListByChannel lists a channel's subscribers, newest first.
	ListByChannel(channelID string) pagination.Source[models.Subscription]
	// ListBySubscriber lists the channels a user subscribes to, newest first.
	ListBySubscriber(subscriberID string) pagination.Source[models.Subscription]
	// SubscribersAmong reports which of subscriberIDs subscribe to channelID.
	// Only subscribed ids appear in the result.
	SubscribersAmong(ctx context.Context, channelID string, subscriberIDs []string) (map[string]bool, error)
	// Stats reports an entry for every requested user id.
	Stats(ctx context.Context, viewerID string, userIDs []string) (map[string]ChannelStat, error)
}
