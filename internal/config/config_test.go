package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "receptionist"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"APP_ENV", "DB_HOST", "REDIS_HOST", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err.Error())
		}
	}
}

func TestValidate_ProductionRequirements(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE etc.")
	}
	for _, key := range []string{"DB_SSLMODE", "APP_BASE_URL", "VAPI_WEBHOOK_SECRET", "JWT_ISSUER"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err.Error())
		}
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.App.BaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected base url default %q", c.App.BaseURL)
	}
	if c.Vapi.WebhookTimeout != 10*time.Second {
		t.Fatalf("unexpected webhook timeout %v", c.Vapi.WebhookTimeout)
	}
	if c.Notify.QueueSize != 256 || c.Notify.Workers != 2 {
		t.Fatalf("unexpected notify defaults %+v", c.Notify)
	}
	if c.Location() != time.UTC {
		t.Fatalf("expected UTC default location")
	}
}

func TestValidate_RejectsBadTimezoneAndEmail(t *testing.T) {
	c := validLocal()
	c.App.DefaultTimezone = "Mars/Olympus"
	c.Email.APIURL = "mail.example.com"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{"DEFAULT_TIMEZONE", "EMAIL_FROM", "EMAIL_API_URL"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err.Error())
		}
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("APP_BASE_URL", "https://voice.example.com/")
	t.Setenv("DEFAULT_TIMEZONE", "America/New_York")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "n")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("TOOL_TOKEN_TTL", "3h")
	t.Setenv("WEBHOOK_TIMEOUT", "5s")
	t.Setenv("NOTIFY_WORKERS", "4")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.BaseURL != "https://voice.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.App.BaseURL)
	}
	if c.Auth.ToolTokenTTL != 3*time.Hour || c.Vapi.WebhookTimeout != 5*time.Second {
		t.Fatalf("unexpected durations %+v %+v", c.Auth, c.Vapi)
	}
	if c.Notify.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", c.Notify.Workers)
	}
	if c.Location().String() != "America/New_York" {
		t.Fatalf("unexpected location %v", c.Location())
	}
}

func TestLoad_ReportsParseErrors(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("WEBHOOK_TIMEOUT", "soon")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected parse errors")
	}
	if !strings.Contains(err.Error(), "APP_PORT") || !strings.Contains(err.Error(), "WEBHOOK_TIMEOUT") {
		t.Fatalf("expected both parse errors, got %q", err.Error())
	}
}
