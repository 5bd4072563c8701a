package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Env     string `env:"ENV" env-default:"development"`
	Port    string `env:"PORT" env-default:"8080"`
	GinMode string `env:"GIN_MODE"`

	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`

	JWTSecret string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"24h"`

	CORSOrigin string `env:"CORS_ORIGIN" env-default:"http://localhost:5173"`

	LogLevel string `env:"LOG_LEVEL" env-default:"INFO"`
	LogDir   string `env:"LOG_DIR" env-default:"logs"`

	UploadDir      string `env:"UPLOAD_DIR" env-default:"uploads"`
	PublicBaseURL  string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`

	// Cron schedule for the periodic summary digest. Empty disables it.
	DigestSchedule string `env:"SUMMARY_DIGEST_SCHEDULE"`

	SeedFile string `env:"SEED_FILE" env-default:"data/initial-users.json"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.DigestSchedule != "" {
		if _, err := cron.ParseStandard(c.DigestSchedule); err != nil {
			return fmt.Errorf("invalid SUMMARY_DIGEST_SCHEDULE %q: %w", c.DigestSchedule, err)
		}
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

// DatabaseConfig is the subset of Config needed by offline tooling.
type DatabaseConfig struct {
	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`
	SeedFile    string `env:"SEED_FILE" env-default:"data/initial-users.json"`
}

// LoadDatabase reads .env (when present) and the database settings only.
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	var cfg DatabaseConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read database configuration: %w", err)
	}
	return &cfg, nil
}
