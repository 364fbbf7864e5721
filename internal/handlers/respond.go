package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/validation"
)

// envelope wraps every response body.
type envelope struct {
	StatusCode int                     `json:"statusCode"`
	Data       any                     `json:"data"`
	Message    string                  `json:"message"`
	Success    bool                    `json:"success"`
	Errors     []validation.FieldError `json:"errors,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", slog.Int("status", body.StatusCode), slog.Any("error", err))
	}
}

// respondError maps an error kind onto its HTTP status.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := statusFor(apperr.KindOf(err))
	message := apperr.MessageOf(err)

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", slog.Int("status", status), slog.Any("error", err))
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	default:
		logger.Debug("request rejected", slog.Int("status", status), slog.String("reason", message))
	}

	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Message:    message,
		Errors:     validation.Fields(err),
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidArgument:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.StorageError:
		return http.StatusBadGateway
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.InvalidArgument, "request body too large", err)
		}
		return apperr.Wrap(apperr.InvalidArgument, "invalid request body", err)
	}
	return nil
}
