package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/videotube/backend/internal/validation"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures the runtime configuration for the VideoTube backend service.
type Config struct {
	AppPort        int               `koanf:"port" validate:"min=1,max=65535"`
	DatabaseURL    string            `koanf:"database_url" validate:"required_if=StoreDriver postgres"`
	StoreDriver    string            `koanf:"store_driver" validate:"oneof=postgres memory"`
	MigrationDir   string            `koanf:"migration_dir"`
	SeedDir        string            `koanf:"seed_dir"`
	LogLevel       string            `koanf:"log_level" validate:"oneof=debug info warn error"`
	CORSOrigins    []string          `koanf:"cors_origins"`
	StoreTimeout   time.Duration     `koanf:"store_timeout" validate:"gt=0"`
	StorageTimeout time.Duration     `koanf:"storage_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration     `koanf:"write_timeout" validate:"gt=0"`
	ObjectStore    ObjectStoreConfig `koanf:"object_store"`
	Auth           AuthConfig        `koanf:"auth"`
	Media          MediaConfig       `koanf:"media"`
	Policy         PolicyConfig      `koanf:"policy"`
	RateLimit      RateLimitConfig   `koanf:"rate_limit"`
}

// ObjectStoreConfig describes the S3-compatible bucket holding uploaded media.
type ObjectStoreConfig struct {
	Bucket        string `koanf:"bucket" validate:"required"`
	Region        string `koanf:"region" validate:"required"`
	Endpoint      string `koanf:"endpoint" validate:"omitempty,url"`
	PublicBaseURL string `koanf:"public_base_url" validate:"omitempty,url"`
	// BreakerFailures is the number of consecutive failures that opens the
	// circuit around object storage calls.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret" validate:"min=32"`
	Issuer     string        `koanf:"issuer"`
	AccessTTL  time.Duration `koanf:"access_ttl" validate:"gt=0"`
	RefreshTTL time.Duration `koanf:"refresh_ttl" validate:"gtfield=AccessTTL"`
}

// MediaConfig controls uploads and duration probing.
type MediaConfig struct {
	FFProbePath    string        `koanf:"ffprobe_path"`
	FFProbeTimeout time.Duration `koanf:"ffprobe_timeout" validate:"gt=0"`
	UploadDir      string        `koanf:"upload_dir"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes" validate:"gt=0"`
}

// PolicyConfig holds the self-edge policy flags.
type PolicyConfig struct {
	AllowSelfLike      bool `koanf:"allow_self_like"`
	AllowSelfSubscribe bool `koanf:"allow_self_subscribe"`
}

// RateLimitConfig bounds requests per client IP on the authentication endpoints.
type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"min=1"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
	Burst    int           `koanf:"burst" validate:"min=1"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`
}

// Validate checks the settings needed by the serve command.
func (c Config) Validate() error {
	err := validation.Get().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	messages := make([]string, len(verrs))
	for i, fe := range verrs {
		messages[i] = fmt.Sprintf("%s failed %s", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
