package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ErrInvalidConfig marks configuration that must prevent the service from starting.
var ErrInvalidConfig = errors.New("invalid configuration")

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageGCS   = "gcs"
)

// Passage table sources.
const (
	PassagesBuiltin  = "builtin"
	PassagesFile     = "file"
	PassagesPostgres = "postgres"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Server      ServerConfig
	Recognition RecognitionConfig
	Storage     StorageConfig
	Passages    PassagesConfig
	RateLimit   RateLimitConfig
	Auth        AuthConfig
	LogLevel    string
}

// ServerConfig configures the HTTP and gRPC listeners.
type ServerConfig struct {
	Addr            string
	GRPCHealthAddr  string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	AllowedOrigins  []string
}

// RecognitionConfig configures the decision engine.
type RecognitionConfig struct {
	SuccessRate float64
}

// StorageConfig selects and configures the upload backend.
type StorageConfig struct {
	Backend   string
	UploadDir string
	S3        S3Config
	GCS       GCSConfig
}

// S3Config configures the s3 backend.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// GCSConfig configures the gcs backend.
type GCSConfig struct {
	Bucket string
	Prefix string
}

// PassagesConfig selects where the passage table is loaded from.
type PassagesConfig struct {
	Source      string
	File        string
	DatabaseDSN string
}

// RateLimitConfig is active only when RedisAddr is set.
type RateLimitConfig struct {
	RedisAddr string
	PerMinute int
}

// AuthConfig is active only when Secret is set.
type AuthConfig struct {
	Secret   string
	Audience string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDR", ":3000")
	v.SetDefault("GRPC_HEALTH_ADDR", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)
	v.SetDefault("MAX_UPLOAD_BYTES", 0)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("RECOGNITION_SUCCESS_RATE", 1.0)

	v.SetDefault("STORAGE_BACKEND", StorageLocal)
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_PREFIX", "uploads/")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("GCS_BUCKET", "")
	v.SetDefault("GCS_PREFIX", "uploads/")

	v.SetDefault("PASSAGE_SOURCE", PassagesBuiltin)
	v.SetDefault("PASSAGES_FILE", "")
	v.SetDefault("DATABASE_DSN", "")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_AUDIENCE", "")
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	nums := numberReader{v: v}
	cfg := &Config{
		Server: ServerConfig{
			Addr:            v.GetString("SERVER_ADDR"),
			GRPCHealthAddr:  v.GetString("GRPC_HEALTH_ADDR"),
			ShutdownTimeout: nums.duration("SHUTDOWN_TIMEOUT"),
			MaxUploadBytes:  nums.int64("MAX_UPLOAD_BYTES"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Recognition: RecognitionConfig{
			SuccessRate: nums.float64("RECOGNITION_SUCCESS_RATE"),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(v.GetString("STORAGE_BACKEND")),
			UploadDir: v.GetString("UPLOAD_DIR"),
			S3: S3Config{
				Endpoint:        v.GetString("S3_ENDPOINT"),
				Region:          v.GetString("S3_REGION"),
				Bucket:          v.GetString("S3_BUCKET"),
				Prefix:          v.GetString("S3_PREFIX"),
				AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
				SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			},
			GCS: GCSConfig{
				Bucket: v.GetString("GCS_BUCKET"),
				Prefix: v.GetString("GCS_PREFIX"),
			},
		},
		Passages: PassagesConfig{
			Source:      strings.ToLower(v.GetString("PASSAGE_SOURCE")),
			File:        v.GetString("PASSAGES_FILE"),
			DatabaseDSN: v.GetString("DATABASE_DSN"),
		},
		RateLimit: RateLimitConfig{
			RedisAddr: v.GetString("REDIS_ADDR"),
			PerMinute: nums.int("RATE_LIMIT_PER_MINUTE"),
		},
		Auth: AuthConfig{
			Secret:   strings.TrimSpace(v.GetString("JWT_SECRET")),
			Audience: strings.TrimSpace(v.GetString("JWT_AUDIENCE")),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if nums.err != nil {
		return nil, nums.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// numberReader parses numeric keys strictly. viper's Get* helpers turn
// unparsable text into zero, which would silently change behaviour.
type numberReader struct {
	v   *viper.Viper
	err error
}

func (r *numberReader) fail(key string, err error) {
	if r.err == nil {
		r.err = invalid("%s=%q is not a valid value: %v", key, r.v.GetString(key), err)
	}
}

func (r *numberReader) float64(key string) float64 {
	f, err := cast.ToFloat64E(strings.TrimSpace(r.v.GetString(key)))
	if err != nil {
		r.fail(key, err)
	}
	return f
}

func (r *numberReader) int64(key string) int64 {
	n, err := cast.ToInt64E(strings.TrimSpace(r.v.GetString(key)))
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *numberReader) int(key string) int {
	n, err := cast.ToIntE(strings.TrimSpace(r.v.GetString(key)))
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *numberReader) duration(key string) time.Duration {
	d, err := cast.ToDurationE(strings.TrimSpace(r.v.GetString(key)))
	if err != nil {
		r.fail(key, err)
	}
	return d
}

// Validate reports the first setting that would make the service misbehave.
func (c *Config) Validate() error {
	if err := ValidateSuccessRate(c.Recognition.SuccessRate); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return invalid("SERVER_ADDR must not be empty")
	}
	if c.Server.MaxUploadBytes < 0 {
		return invalid("MAX_UPLOAD_BYTES must not be negative, got %d", c.Server.MaxUploadBytes)
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.UploadDir == "" {
			return invalid("UPLOAD_DIR is required for the local backend")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return invalid("S3_BUCKET is required for the s3 backend")
		}
	case StorageGCS:
		if c.Storage.GCS.Bucket == "" {
			return invalid("GCS_BUCKET is required for the gcs backend")
		}
	default:
		return invalid("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	switch c.Passages.Source {
	case PassagesBuiltin:
	case PassagesFile:
		if c.Passages.File == "" {
			return invalid("PASSAGES_FILE is required for the file source")
		}
	case PassagesPostgres:
		if c.Passages.DatabaseDSN == "" {
			return invalid("DATABASE_DSN is required for the postgres source")
		}
	default:
		return invalid("unknown PASSAGE_SOURCE %q", c.Passages.Source)
	}

	if c.RateLimit.RedisAddr != "" && c.RateLimit.PerMinute <= 0 {
		return invalid("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimit.PerMinute)
	}
	return nil
}

// ValidateSuccessRate accepts probabilities in [0, 1].
func ValidateSuccessRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return invalid("success rate must be within [0, 1], got %v", rate)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
