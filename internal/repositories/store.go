package repositories

import "context"

// Store groups the entity repositories behind a single handle.
type Store interface {
	Users() UserRepository
	Videos() VideoRepository
	Comments() CommentRepository
	Tweets() TweetRepository
	Likes() LikeRepository
	Subscriptions() SubscriptionRepository
	Playlists() PlaylistRepository

	// Tx runs fn against a Store bound to a single transaction. Backends
	// without transactions return ErrTxUnsupported without calling fn.
	Tx(ctx context.Context, fn func(tx Store) error) error
}
