package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Env         string `env:"ENV"          envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT"         envDefault:"8080"  validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"  validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10" validate:"min=1,max=200"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"1"  validate:"min=0,ltefield=DBMaxConns"`

	JWTSecret  string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	JWTTTL     time.Duration `env:"JWT_TTL"     envDefault:"24h" validate:"min=1m"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"  validate:"min=4,max=31"`

	OTPTTL            time.Duration `env:"OTP_TTL"             envDefault:"10m"       validate:"min=1m"`
	OTPResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"60s"`
	OTPMaxAttempts    int           `env:"OTP_MAX_ATTEMPTS"    envDefault:"5"         validate:"min=0,max=100"`
	OTPSweepCron      string        `env:"OTP_SWEEP_CRON"      envDefault:"@every 5m" validate:"required"`

	// RedisURL is optional. Without it OTP throttling and auth rate limiting are off.
	RedisURL       string        `env:"REDIS_URL"`
	AuthRateLimit  int           `env:"AUTH_RATE_LIMIT"  envDefault:"20" validate:"min=0"`
	AuthRateWindow time.Duration `env:"AUTH_RATE_WINDOW" envDefault:"1m"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:","`
	ReportTimezone string   `env:"REPORT_TIMEZONE"`
}

// Load reads the environment. In local mode a .env file, if present, is
// loaded first; variables already set win.
func Load() (*Config, error) {
	if e := os.Getenv("ENV"); e == "" || e == "local" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid config: REPORT_TIMEZONE: %w", err)
	}
	if _, err := cron.ParseStandard(cfg.OTPSweepCron); err != nil {
		return nil, fmt.Errorf("invalid config: OTP_SWEEP_CRON: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Location is the zone report day windows are cut in. Empty means the
// server's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.ReportTimezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.ReportTimezone)
}
