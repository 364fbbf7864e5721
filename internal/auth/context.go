// Package auth issues and verifies session tokens and carries the
// authenticated actor on request contexts.
package auth

import "context"

type actorKey struct{}

// WithActor stores the authenticated user ID on the context.
func WithActor(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the authenticated user ID, or "" for anonymous requests.
func ActorFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}
