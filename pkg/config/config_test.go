package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.App.Environment)
	}
	if cfg.JWT.AccessTokenTTL != 72*time.Hour {
		t.Errorf("AccessTokenTTL = %v, want 72h", cfg.JWT.AccessTokenTTL)
	}
	if cfg.JWT.RefreshTokenTTL != 168*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 168h", cfg.JWT.RefreshTokenTTL)
	}
	if cfg.JWT.SessionLimit != 5 {
		t.Errorf("SessionLimit = %d, want 5", cfg.JWT.SessionLimit)
	}
	if cfg.RateLimit.APIMax != 25 {
		t.Errorf("RateLimit.APIMax = %d, want 25", cfg.RateLimit.APIMax)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:    AppConfig{Name: "crowdera-auth", Environment: "development"},
			Server: ServerConfig{Port: 8081},
			JWT: JWTConfig{
				Secret:          "s3cret",
				AccessTokenTTL:  time.Hour,
				RefreshTokenTTL: 2 * time.Hour,
				SessionLimit:    5,
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for empty secret")
		}
	})

	t.Run("placeholder secret rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = "production"
		cfg.JWT.Secret = defaultJWTSecret
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for placeholder secret in production")
		}
	})

	t.Run("placeholder secret allowed in development", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = defaultJWTSecret
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("default admin password rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = "production"
		cfg.Admin.Password = defaultAdminPassword
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for default admin password in production")
		}
	})

	t.Run("zero session limit", func(t *testing.T) {
		cfg := base()
		cfg.JWT.SessionLimit = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for zero session limit")
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for port 0")
		}
	})
}
