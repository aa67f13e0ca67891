package config

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"SUPPSCORE_PORT", "SUPPSCORE_METRICS_PORT", "SUPPSCORE_ADMIN_TOKEN",
	"SUPPSCORE_DATABASE_URL", "SUPPSCORE_HERMES_URL", "SUPPSCORE_REDIS_URL",
	"SUPPSCORE_CMS_URL", "SUPPSCORE_CMS_API_KEY", "SUPPSCORE_FIXTURES", "SUPPSCORE_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected slog info, got %v", cfg.SlogLevel())
	}
	if cfg.CacheTTL() != time.Hour {
		t.Errorf("expected cache TTL 1h, got %v", cfg.CacheTTL())
	}
	if cfg.Scoring.CompareConcurrency != 8 {
		t.Errorf("expected compare concurrency 8, got %d", cfg.Scoring.CompareConcurrency)
	}

	w := cfg.Scoring.Weights
	expected := map[string][2]float64{
		"evidence":     {0.35, w.Evidence},
		"safety":       {0.30, w.Safety},
		"cost":         {0.20, w.Cost},
		"practicality": {0.15, w.Practicality},
	}
	for name, pair := range expected {
		if math.Abs(pair[0]-pair[1]) > 0.001 {
			t.Errorf("scoring weight %s: expected %f, got %f", name, pair[0], pair[1])
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SUPPSCORE_PORT", "9000")
	t.Setenv("SUPPSCORE_METRICS_PORT", "9001")
	t.Setenv("SUPPSCORE_ADMIN_TOKEN", "secret-token")
	t.Setenv("SUPPSCORE_DATABASE_URL", "postgres://localhost/suppscore_test")
	t.Setenv("SUPPSCORE_HERMES_URL", "nats://nats:4222")
	t.Setenv("SUPPSCORE_REDIS_URL", "redis://redis:6379/0")
	t.Setenv("SUPPSCORE_CMS_URL", "https://cms.example.com")
	t.Setenv("SUPPSCORE_CMS_API_KEY", "cms-key")
	t.Setenv("SUPPSCORE_FIXTURES", "/etc/suppscore/products.yaml")
	t.Setenv("SUPPSCORE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.URL != "postgres://localhost/suppscore_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.Redis.URL != "redis://redis:6379/0" {
		t.Errorf("expected redis URL, got '%s'", cfg.Redis.URL)
	}
	if cfg.CMS.URL != "https://cms.example.com" || cfg.CMS.APIKey != "cms-key" {
		t.Errorf("expected cms settings, got %+v", cfg.CMS)
	}
	if cfg.Catalog.FixturesPath != "/etc/suppscore/products.yaml" {
		t.Errorf("expected fixtures path, got '%s'", cfg.Catalog.FixturesPath)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "suppscore.yaml")
	data := []byte(`
server:
  port: 8800
scoring:
  weights:
    evidence: 0.25
    safety: 0.25
    cost: 0.25
    practicality: 0.25
  reference_cost_per_mg: 0.05
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8800 {
		t.Errorf("expected port 8800, got %d", cfg.Server.Port)
	}
	if cfg.Scoring.Weights.Evidence != 0.25 {
		t.Errorf("expected evidence weight 0.25, got %f", cfg.Scoring.Weights.Evidence)
	}
	if cfg.Scoring.ReferenceCostPerMg != 0.05 {
		t.Errorf("expected reference cost 0.05, got %f", cfg.Scoring.ReferenceCostPerMg)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port to survive, got %d", cfg.Server.MetricsPort)
	}
}

func TestLoadRejectsInvalidWeights(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := []byte("scoring:\n  weights:\n    evidence: 0.9\n    safety: 0.9\n    cost: 0\n    practicality: 0\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for weights summing to 1.8")
	}
}
