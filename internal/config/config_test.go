package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.ObjectStore.Bucket = "media"
	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 8080 || cfg.StoreDriver != DriverPostgres || cfg.StoreTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Policy.AllowSelfLike || !cfg.Policy.AllowSelfSubscribe {
		t.Fatalf("expected permissive policy by default: %+v", cfg.Policy)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("VIDEOTUBE_PORT", "9090")
	t.Setenv("VIDEOTUBE_STORE_DRIVER", "memory")
	t.Setenv("VIDEOTUBE_STORE_TIMEOUT", "2s")
	t.Setenv("VIDEOTUBE_S3_BUCKET", "videos")
	t.Setenv("VIDEOTUBE_POLICY_ALLOW_SELF_LIKE", "false")
	t.Setenv("VIDEOTUBE_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("VIDEOTUBE_UNRELATED", "ignored")

	cfg, err := load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 9090 || cfg.StoreDriver != DriverMemory || cfg.StoreTimeout != 2*time.Second {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.ObjectStore.Bucket != "videos" || cfg.Policy.AllowSelfLike {
		t.Fatalf("nested overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "port: 7000\nlog_level: debug\nauth:\n  access_ttl: 1m\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("VIDEOTUBE_LOG_LEVEL", "warn")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 7000 || cfg.Auth.AccessTTL != time.Minute {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected environment to win over file, got %q", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing bucket", mutate: func(c *Config) { c.ObjectStore.Bucket = "" }, wantErr: "ObjectStore.Bucket"},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "Auth.JWTSecret"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "mongo" }, wantErr: "StoreDriver"},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DatabaseURL"},
		{name: "memory without url", mutate: func(c *Config) { c.StoreDriver = DriverMemory; c.DatabaseURL = "" }},
		{name: "refresh shorter than access", mutate: func(c *Config) { c.Auth.RefreshTTL = time.Second }, wantErr: "Auth.RefreshTTL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}
