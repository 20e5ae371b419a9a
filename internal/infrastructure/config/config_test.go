package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg = applyDefaults(cfg)

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Source.Action != "get3oaoidata" {
		t.Errorf("expected default action, got %s", cfg.Source.Action)
	}
	if cfg.Dashboard.TrailingDays != 7 || cfg.Dashboard.TrailingWeeks != 5 || cfg.Dashboard.TrailingMonths != 3 {
		t.Errorf("unexpected trailing windows: %+v", cfg.Dashboard)
	}
	if cfg.Dashboard.OverkillThreshold != 5 {
		t.Errorf("expected threshold 5, got %v", cfg.Dashboard.OverkillThreshold)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("AOI_SYNC_INTERVAL", "90s")
	t.Setenv("OVERKILL_THRESHOLD", "3.5")

	cfg := Config{}
	cfg = applyEnv(cfg)

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTP.Addr)
	}
	if cfg.Source.SyncInterval != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.Source.SyncInterval)
	}
	if cfg.Dashboard.OverkillThreshold != 3.5 {
		t.Errorf("expected 3.5, got %v", cfg.Dashboard.OverkillThreshold)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("http:\n  addr: \":7000\"\ndashboard:\n  trailing_days: 14\n  numeric_week_order: true\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dashboard.TrailingDays != 14 || !cfg.Dashboard.NumericWeekOrder {
		t.Fatalf("yaml values not applied: %+v", cfg.Dashboard)
	}
	if cfg.Dashboard.TrailingWeeks != 5 {
		t.Fatalf("defaults not applied: %+v", cfg.Dashboard)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Source.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Source.Timeout)
	}
}

func TestDashboardLocation(t *testing.T) {
	if loc := (DashboardConfig{Timezone: "UTC"}).Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
	if loc := (DashboardConfig{Timezone: "Mars/Base"}).Location(); loc != time.Local {
		t.Fatalf("expected fallback to Local, got %v", loc)
	}
}
