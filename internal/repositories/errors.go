package repositories

import (
	"context"
	"errors"

	"github.com/videotube/backend/internal/apperr"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrTxUnsupported is returned by Store.Tx when the backend cannot run transactions.
	ErrTxUnsupported = errors.New("transactions not supported")
)

// Classify translates repository failures into typed application errors.
// entity names the record in client-facing messages.
func Classify(err error, entity string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.Newf(apperr.NotFound, "%s not found", entity)
	case errors.Is(err, ErrConflict):
		return apperr.Newf(apperr.Conflict, "%s already exists", entity)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.Internal, "store timed out", err)
	default:
		return apperr.Wrap(apperr.Internal, "store failure", err)
	}
}
