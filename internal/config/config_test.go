package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LISTS_BASE_URL", "https://example.org/Talxa.com/Lists")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Pagination.Radius != 2 || cfg.Pagination.DefaultLimit != 25 {
		t.Errorf("unexpected pagination defaults: %+v", cfg.Pagination)
	}
	if cfg.Redis.Enabled {
		t.Error("expected redis to be disabled by default")
	}
	if cfg.Sessions.IdleTimeout != 30*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Sessions.IdleTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LISTS_BASE_URL", "https://cdn.example.org/Lists")
	t.Setenv("LISTS_REQUEST_TIMEOUT", "3s")
	t.Setenv("PAGINATION_RADIUS", "3")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("SESSION_SWEEP_INTERVAL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Lists.RequestTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.Lists.RequestTimeout)
	}
	if cfg.Pagination.Radius != 3 {
		t.Errorf("expected radius 3, got %d", cfg.Pagination.Radius)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Address != "redis:6379" {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Sessions.SweepInterval != time.Minute {
		t.Errorf("expected invalid duration to fall back to default, got %s", cfg.Sessions.SweepInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "70000"}},
		{"relative base", map[string]string{"LISTS_BASE_URL": "/Lists"}},
		{"empty base", map[string]string{"LISTS_BASE_URL": ""}},
		{"negative radius", map[string]string{"PAGINATION_RADIUS": "-1"}},
		{"default above max", map[string]string{"PAGINATION_DEFAULT_LIMIT": "100", "PAGINATION_MAX_LIMIT": "50"}},
		{"redis without address", map[string]string{"REDIS_ENABLED": "true", "REDIS_ADDRESS": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LISTS_BASE_URL", "https://example.org/Lists")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
