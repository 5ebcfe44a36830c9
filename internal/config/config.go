package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig   `envPrefix:"DB_"`
	Redis      RedisConfig      `envPrefix:"REDIS_"`
	JWT        JWTConfig        `envPrefix:"JWT_"`
	Log        LogConfig        `envPrefix:"LOG_"`
	Storage    StorageConfig    `envPrefix:"STORAGE_"`
	Rasterizer RasterizerConfig `envPrefix:"RASTERIZER_"`
	Match      MatchConfig      `envPrefix:"MATCH_"`
	AMQP       AMQPConfig       `envPrefix:"AMQP_"`
	Seed       SeedConfig       `envPrefix:"SEED_"`
}

type AppConfig struct {
	AppName     string `env:"APP_NAME"`
	Environment string `env:"APP_ENV"`
	HTTPPort    string `env:"HTTP_PORT"`
	MediaRoute  string `env:"MEDIA_ROUTE" envDefault:"/media/previews"`
}

func (c AppConfig) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

type DatabaseConfig struct {
	DBHost     string `env:"HOST"     envDefault:"localhost"`
	DBPort     string `env:"PORT"     envDefault:"5432"`
	DBName     string `env:"NAME"     envDefault:"resume_match"`
	DBUser     string `env:"USER"     envDefault:"postgres"`
	DBPassword string `env:"PASSWORD"`
	DBSSLMode  string `env:"SSL_MODE" envDefault:"disable"`

	ConnectTimeout        time.Duration `env:"CONNECT_TIMEOUT"          envDefault:"5s"`
	PoolMaxConns          int32         `env:"POOL_MAX_CONNS"           envDefault:"10"`
	PoolMinConns          int32         `env:"POOL_MIN_CONNS"`
	PoolMaxConnLifetime   time.Duration `env:"POOL_MAX_CONN_LIFETIME"   envDefault:"1h"`
	PoolMaxConnIdleTime   time.Duration `env:"POOL_MAX_CONN_IDLE_TIME"  envDefault:"30m"`
	PoolHealthCheckPeriod time.Duration `env:"POOL_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// MigrationsDir overrides the schema files embedded in the binary.
	MigrationsDir        string `env:"MIGRATIONS_DIR"`
	RunMigrationsOnStart bool   `env:"RUN_MIGRATIONS_ON_START" envDefault:"false"`
}

type RedisConfig struct {
	Host     string        `env:"HOST"     envDefault:"localhost"`
	Port     string        `env:"PORT"     envDefault:"6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB"       envDefault:"0"`
	TTL      time.Duration `env:"TTL"      envDefault:"10m"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

type JWTConfig struct {
	AccessSecret     string        `env:"ACCESS_SECRET"`
	RefreshSecret    string        `env:"REFRESH_SECRET"`
	AccessExpiresIn  time.Duration `env:"ACCESS_EXPIRES_IN"  envDefault:"15m"`
	RefreshExpiresIn time.Duration `env:"REFRESH_EXPIRES_IN" envDefault:"168h"`
}

type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Format string `env:"FORMAT"`
}

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

type StorageConfig struct {
	Driver   string `env:"DRIVER"    envDefault:"local"`
	LocalDir string `env:"LOCAL_DIR" envDefault:"./data/media"`

	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"        envDefault:"auto"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3Prefix       string `env:"S3_PREFIX"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`
}

// RasterizerConfig configures page rendering through Poppler's pdftoppm.
// Binary overrides POPPLER_PATH, which overrides the PATH lookup.
type RasterizerConfig struct {
	Binary        string        `env:"BINARY"`
	OutputDir     string        `env:"OUTPUT_DIR"      envDefault:"./data/previews"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL" envDefault:"/media/previews"`
	DPI           int           `env:"DPI"             envDefault:"100"`
	FirstPage     int           `env:"FIRST_PAGE"      envDefault:"1"`
	LastPage      int           `env:"LAST_PAGE"       envDefault:"1"`
	Timeout       time.Duration `env:"TIMEOUT"         envDefault:"30s"`
}

type MatchConfig struct {
	MaxUploadBytes        int64 `env:"MAX_UPLOAD_BYTES"         envDefault:"8388608"`
	RenderPreviewOnSubmit bool  `env:"RENDER_PREVIEW_ON_SUBMIT" envDefault:"false"`
}

type AMQPConfig struct {
	URL      string `env:"URL"`
	Exchange string `env:"EXCHANGE" envDefault:"resume_match.events"`
}

// SeedConfig controls the optional demo account created by cmd/migrate.
type SeedConfig struct {
	DemoUser     bool   `env:"DEMO_USER"     envDefault:"false"`
	DemoUsername string `env:"DEMO_USERNAME" envDefault:"demo"`
	DemoEmail    string `env:"DEMO_EMAIL"    envDefault:"demo@example.com"`
	DemoPassword string `env:"DEMO_PASSWORD" envDefault:"demo-password"`
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(vars map[string]string) (Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	var missing []string
	req := func(key, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	req("APP_NAME", cfg.App.AppName)
	req("APP_ENV", cfg.App.Environment)
	req("HTTP_PORT", cfg.App.HTTPPort)
	req("JWT_ACCESS_SECRET", cfg.JWT.AccessSecret)
	req("JWT_REFRESH_SECRET", cfg.JWT.RefreshSecret)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case StorageDriverLocal:
	case StorageDriverS3:
		if strings.TrimSpace(cfg.Storage.S3Bucket) == "" {
			return Config{}, fmt.Errorf("%w: STORAGE_S3_BUCKET", errMissingRequiredEnv)
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_DRIVER: %q (valid options: local, s3)", cfg.Storage.Driver)
	}

	if cfg.Match.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("invalid MATCH_MAX_UPLOAD_BYTES: %d", cfg.Match.MaxUploadBytes)
	}

	return cfg, nil
}

// PopplerPathFromEnv returns the directory holding the Poppler binaries, if set.
func PopplerPathFromEnv() string {
	return strings.TrimSpace(os.Getenv("POPPLER_PATH"))
}
