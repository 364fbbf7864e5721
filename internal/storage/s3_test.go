package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/config"
)

type fakeUploader struct {
	keys []string
	body string
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(input.Body)
	f.body = string(data)
	f.keys = append(f.keys, *input.Key)
	return &manager.UploadOutput{}, nil
}

type fakeDeleter struct {
	deleted []string
	err     error
}

func (f *fakeDeleter) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestStoreUploadsAndRemovesLocalFile(t *testing.T) {
	up := &fakeUploader{}
	s := newS3Storage(up, &fakeDeleter{}, config.ObjectStoreConfig{Bucket: "media", PublicBaseURL: "https://cdn.example.com/"}, 0)
	path := writeTemp(t, "clip.MP4", "frames")

	ref, err := s.Store(context.Background(), path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasSuffix(ref.DeleteHandle, ".mp4") || ref.URL != "https://cdn.example.com/"+ref.DeleteHandle {
		t.Fatalf("unexpected media ref: %+v", ref)
	}
	if up.body != "frames" {
		t.Fatalf("unexpected uploaded body %q", up.body)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected local file removed, got %v", err)
	}
}

func TestStoreFailureIsStorageErrorAndCleansUp(t *testing.T) {
	s := newS3Storage(&fakeUploader{err: errors.New("503")}, &fakeDeleter{}, config.ObjectStoreConfig{Bucket: "media"}, 0)
	path := writeTemp(t, "thumb.png", "pixels")

	if _, err := s.Store(context.Background(), path); !apperr.IsKind(err, apperr.StorageError) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected local file removed after failure, got %v", err)
	}
}

func TestStoreMissingFile(t *testing.T) {
	s := newS3Storage(&fakeUploader{}, &fakeDeleter{}, config.ObjectStoreConfig{Bucket: "media"}, 0)
	if _, err := s.Store(context.Background(), filepath.Join(t.TempDir(), "missing.mp4")); !apperr.IsKind(err, apperr.InvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestRelease(t *testing.T) {
	del := &fakeDeleter{}
	s := newS3Storage(&fakeUploader{}, del, config.ObjectStoreConfig{Bucket: "media"}, 0)

	if err := s.Release(context.Background(), "/abc.mp4"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := s.Release(context.Background(), ""); err != nil {
		t.Fatalf("empty handle should be a no-op: %v", err)
	}
	if len(del.deleted) != 1 || del.deleted[0] != "abc.mp4" {
		t.Fatalf("unexpected deletes: %v", del.deleted)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	del := &fakeDeleter{err: errors.New("connection refused")}
	s := newS3Storage(&fakeUploader{}, del, config.ObjectStoreConfig{Bucket: "media", BreakerFailures: 2}, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Release(ctx, "a"); !apperr.IsKind(err, apperr.StorageError) {
			t.Fatalf("attempt %d: expected storage error, got %v", i, err)
		}
	}

	del.err = nil
	err := s.Release(ctx, "a")
	if apperr.MessageOf(err) != "media storage is temporarily unavailable" {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if len(del.deleted) != 0 {
		t.Fatal("open circuit must not reach the bucket")
	}
}
