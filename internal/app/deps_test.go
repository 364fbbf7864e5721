package app

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/repositories"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

type pingPool struct {
	fakePool
}

func (pingPool) Ping(context.Context) error { return nil }

func TestBuildDependencies(t *testing.T) {
	cfg := config.Defaults()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}
	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, err := buildDependencies(context.Background(), pingPool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Content == nil {
		t.Fatal("expected content service to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Limiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
	if deps.Database == nil {
		t.Fatal("expected database health check to be configured")
	}
	if deps.Uploads.MaxBytes != cfg.Media.MaxUploadBytes {
		t.Fatalf("expected upload limit %d got %d", cfg.Media.MaxUploadBytes, deps.Uploads.MaxBytes)
	}
}

func TestOpenStore(t *testing.T) {
	tests := []struct {
		name    string
		noPool  bool
		driver  string
		wantErr bool
		memory  bool
	}{
		{name: "memory", driver: config.DriverMemory, noPool: true, memory: true},
		{name: "postgres", driver: config.DriverPostgres},
		{name: "postgres without pool", driver: config.DriverPostgres, noPool: true, wantErr: true},
		{name: "unknown driver", driver: "mongo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pool db.Pool
			if !tt.noPool {
				pool = fakePool{}
			}

			store, err := openStore(pool, tt.driver)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, isMemory := store.(*repositories.MemoryStore)
			if isMemory != tt.memory {
				t.Fatalf("expected memory store %v got %T", tt.memory, store)
			}
		})
	}
}
