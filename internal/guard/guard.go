// Package guard decides whether an actor may mutate a resource.
package guard

import "github.com/videotube/backend/internal/apperr"

// Owned is implemented by every resource with a single owning user.
type Owned interface {
	Owner() string
}

// ErrForbidden is returned for every denial. It deliberately carries no
// resource details.
var ErrForbidden = apperr.New(apperr.Forbidden, "not permitted")

// Allowed reports whether actorID owns res. Missing identities deny.
func Allowed(actorID string, res Owned) bool {
	if actorID == "" || res == nil {
		return false
	}
	owner := res.Owner()
	return owner != "" && owner == actorID
}

// Authorize returns ErrForbidden unless actorID owns res.
func Authorize(actorID string, res Owned) error {
	if !Allowed(actorID, res) {
		return ErrForbidden
	}
	return nil
}
