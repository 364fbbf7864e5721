package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/videotube/backend/internal/apperr"
)

// UploadConfig bounds multipart uploads.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

const multipartMemory = 32 << 20

// received tracks files spooled to disk for one request.
type received struct {
	paths []string
}

// cleanup removes spooled files the media store did not already consume.
func (rc *received) cleanup() {
	for _, p := range rc.paths {
		_ = os.Remove(p)
	}
}

// parseUpload parses a multipart body within the configured size limit.
func (u UploadConfig) parseUpload(w http.ResponseWriter, r *http.Request) error {
	if u.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.InvalidArgument, "upload is too large", err)
		}
		return apperr.Wrap(apperr.InvalidArgument, "invalid multipart body", err)
	}
	return nil
}

// spool copies the uploaded file in field to the upload directory and
// returns its path. A missing field yields an empty path.
func (u UploadConfig) spool(r *http.Request, rc *received, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidArgument, "invalid "+field+" upload", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	out, err := os.CreateTemp(u.Dir, "upload-*"+ext)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to receive upload", err)
	}
	rc.paths = append(rc.paths, out.Name())

	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		return "", apperr.Wrap(apperr.Internal, "failed to receive upload", err)
	}
	if err := out.Close(); err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to receive upload", err)
	}
	return out.Name(), nil
}
