package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr == "" || cfg.BackendURL == "" {
		t.Fatalf("incomplete defaults: %+v", cfg)
	}
	if cfg.DeliveryFee != 29 {
		t.Fatalf("delivery fee expected 29, got %v", cfg.DeliveryFee)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("listen_addr: \":8080\"\ndelivery_fee: 49\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MITHAI_LISTEN_ADDR", ":7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DeliveryFee != 49 {
		t.Fatalf("file value lost: %v", cfg.DeliveryFee)
	}
	// env wins over file
	if cfg.ListenAddr != ":7070" {
		t.Fatalf("env override lost: %v", cfg.ListenAddr)
	}
}

func TestLoad_EnvOverridesAllKnobs(t *testing.T) {
	t.Setenv("MITHAI_BACKEND_URL", "http://backend.test")
	t.Setenv("MITHAI_REDIS_URL", "redis://localhost:6379")
	t.Setenv("MITHAI_TIMEOUT", "3s")
	t.Setenv("MITHAI_SESSION_TTL", "24h")
	t.Setenv("MITHAI_DELIVERY_FEE", "35")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackendURL != "http://backend.test" || cfg.RedisURL != "redis://localhost:6379" {
		t.Fatalf("url overrides lost: %+v", cfg)
	}
	if cfg.Timeout != 3*time.Second {
		t.Fatalf("timeout override lost: %v", cfg.Timeout)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("session ttl override lost: %v", cfg.SessionTTL)
	}
	if cfg.DeliveryFee != 35 {
		t.Fatalf("delivery fee override lost: %v", cfg.DeliveryFee)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("MITHAI_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unparseable timeout")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
