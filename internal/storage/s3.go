package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/models"
)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type deleter interface {
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage keeps uploaded media in an S3-compatible bucket. Calls run behind
// a circuit breaker and under a per-call timeout.
type S3Storage struct {
	uploader uploader
	client   deleter
	bucket   string
	baseURL  string
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[any]
}

// NewS3Storage configures an uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig, timeout time.Duration) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	up := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3Storage(up, client, cfg, timeout), nil
}

func newS3Storage(up uploader, client deleter, cfg config.ObjectStoreConfig, timeout time.Duration) *S3Storage {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "object-store",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.StorageBreakerState.Set(float64(to))
			slog.Default().Warn("object store circuit changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &S3Storage{
		uploader: up,
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		timeout:  timeout,
		breaker:  breaker,
	}
}

// Store uploads the file at localPath under a fresh key and removes the local
// copy whether or not the upload succeeds.
func (s *S3Storage) Store(ctx context.Context, localPath string) (models.MediaRef, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("remove uploaded temp file", slog.String("path", localPath), slog.Any("error", err))
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		return models.MediaRef{}, apperr.Wrap(apperr.InvalidArgument, "uploaded file is not readable", err)
	}
	defer f.Close()

	key := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	url, err := s.Save(ctx, key, f)
	if err != nil {
		return models.MediaRef{}, err
	}
	return models.MediaRef{URL: url, DeleteHandle: key}, nil
}

// Save uploads the provided content to the configured bucket and returns a public location.
func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key := strings.TrimLeft(name, "/")
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	err := s.call(ctx, "upload", func(ctx context.Context) error {
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   r,
			ACL:    s3types.ObjectCannedACLPublicRead,
		})
		if err != nil {
			return fmt.Errorf("s3 storage upload %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if s.baseURL == "" {
		return key, nil
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

// Release deletes the object identified by handle.
func (s *S3Storage) Release(ctx context.Context, handle string) error {
	key := strings.TrimLeft(handle, "/")
	if key == "" {
		return nil
	}
	return s.call(ctx, "release", func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("s3 storage delete %s: %w", key, err)
		}
		return nil
	})
}

func (s *S3Storage) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	metrics.RecordStorageOperation(op, time.Since(start), err)
	if err == nil {
		return nil
	}

	logging.FromContext(ctx).Error("object store call failed", slog.String("operation", op), slog.Any("error", err))
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperr.Wrap(apperr.StorageError, "media storage is temporarily unavailable", err)
	}
	return apperr.Wrap(apperr.StorageError, "media storage failed", err)
}
