package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ErlanBelekov/bloodbank/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "staging")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/bloodbank")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("RESEND_FROM", "noreply@example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Errorf("OTPTTL = %v, want 10m", cfg.OTPTTL)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %v, want 24h", cfg.JWTTTL)
	}
	if cfg.OTPSweepCron != "@every 5m" {
		t.Errorf("OTPSweepCron = %q", cfg.OTPSweepCron)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("level = %v, want info", cfg.SlogLevel())
	}
	if loc, err := cfg.Location(); err != nil || loc != time.Local {
		t.Errorf("location = %v, %v", loc, err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("REPORT_TIMEZONE", "Asia/Bishkek")
	t.Setenv("OTP_TTL", "5m")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.SlogLevel())
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("OTPTTL = %v", cfg.OTPTTL)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Bishkek" {
		t.Errorf("location = %v, %v", loc, err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"short jwt secret", "JWT_SECRET", "too-short"},
		{"unknown env", "ENV", "qa"},
		{"missing resend key outside local", "RESEND_API_KEY", ""},
		{"bad timezone", "REPORT_TIMEZONE", "Mars/Olympus"},
		{"bad cron", "OTP_SWEEP_CRON", "every now and then"},
		{"bad log level", "LOG_LEVEL", "verbose"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)
			if _, err := config.Load(); err == nil {
				t.Error("want error, got nil")
			}
		})
	}
}
