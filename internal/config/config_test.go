package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Warehouse.DocumentTable != "marts.document_index" {
		t.Fatalf("unexpected document table %q", cfg.Warehouse.DocumentTable)
	}
	if cfg.Anomaly.ZThreshold != 3.0 || cfg.Anomaly.MinWindow != 2 {
		t.Fatalf("unexpected anomaly defaults %+v", cfg.Anomaly)
	}
	if cfg.Drift.RelThreshold != 0.10 {
		t.Fatalf("unexpected drift default %v", cfg.Drift.RelThreshold)
	}
	if cfg.Baseline.Capacity != 7 {
		t.Fatalf("unexpected baseline capacity %d", cfg.Baseline.Capacity)
	}
	if len(cfg.Marts) != 3 {
		t.Fatalf("unexpected marts %v", cfg.Marts)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
warehouse:
  document_table: marts.custom_index
marts:
  - marts.custom_index
anomaly:
  z_threshold: 2.5
drift:
  rel_threshold: 0.2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Warehouse.DocumentTable != "marts.custom_index" {
		t.Fatalf("unexpected document table %q", cfg.Warehouse.DocumentTable)
	}
	if cfg.Anomaly.ZThreshold != 2.5 || cfg.Drift.RelThreshold != 0.2 {
		t.Fatalf("yaml overrides not applied: %+v %+v", cfg.Anomaly, cfg.Drift)
	}
	// Untouched sections keep their defaults.
	if cfg.Semantic.TextMinChars != 50 {
		t.Fatalf("unexpected semantic config %+v", cfg.Semantic)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://qa:qa@localhost:5432/warehouse")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.example.com/T/B/x")
	t.Setenv("BASELINE_CAPACITY", "14")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Warehouse.DSN != "postgres://qa:qa@localhost:5432/warehouse" {
		t.Fatalf("DATABASE_URL not applied: %q", cfg.Warehouse.DSN)
	}
	if cfg.Notify.WebhookURL != "https://hooks.example.com/T/B/x" {
		t.Fatalf("SLACK_WEBHOOK_URL not applied")
	}
	if cfg.Baseline.Capacity != 14 {
		t.Fatalf("BASELINE_CAPACITY not applied: %d", cfg.Baseline.Capacity)
	}
}

func TestLoadBadCapacityFallsBack(t *testing.T) {
	t.Setenv("BASELINE_CAPACITY", "not-a-number")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Baseline.Capacity != 7 {
		t.Fatalf("expected fallback capacity, got %d", cfg.Baseline.Capacity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
