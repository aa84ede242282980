package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("expected 30m session ttl, got %s", cfg.Session.TTL)
	}
	if cfg.BcryptCost != 10 || cfg.Postgres.MaxConns != 10 {
		t.Fatalf("unexpected numeric defaults: cost=%d maxconns=%d", cfg.BcryptCost, cfg.Postgres.MaxConns)
	}
	if cfg.Mongo.MaxPoolSize != 20 || cfg.Redis.PoolSize != 10 {
		t.Fatalf("unexpected pool defaults: mongo=%d redis=%d", cfg.Mongo.MaxPoolSize, cfg.Redis.PoolSize)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development by default")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":                     "9090",
		"ENV":                      "production",
		"SESSION_TTL":              "2h",
		"SESSION_SECURE":           "true",
		"REDIS_DB":                 "3",
		"BOOTSTRAP_ADMIN_USERNAME": "root",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.IsDevelopment() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Session.TTL != 2*time.Hour || !cfg.Session.Secure {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Redis.DB != 3 || cfg.Bootstrap.Username != "root" {
		t.Fatalf("unexpected nested config: redis=%+v bootstrap=%+v", cfg.Redis, cfg.Bootstrap)
	}
}

func TestLoadWith_BadValue(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"REDIS_DB": "many"}))
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateSession(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateSession(); !errors.Is(err, ErrMissingSessionSecret) {
		t.Fatalf("expected ErrMissingSessionSecret, got %v", err)
	}

	cfg.Session.Secret = "short"
	if err := cfg.ValidateSession(); err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("expected length error, got %v", err)
	}

	cfg.Session.Secret = strings.Repeat("k", 32)
	if err := cfg.ValidateSession(); err != nil {
		t.Fatalf("expected valid secret, got %v", err)
	}
}
