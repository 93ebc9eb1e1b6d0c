package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Search.GeneralRadius != 1250 || cfg.Search.StationRadius != 1800 {
		t.Errorf("unexpected radii: %d / %d", cfg.Search.GeneralRadius, cfg.Search.StationRadius)
	}
	if cfg.Parser.EscalationThreshold != 0.7 {
		t.Errorf("EscalationThreshold = %v, want 0.7", cfg.Parser.EscalationThreshold)
	}
	if cfg.Parser.MaxLengthRatio != 1.5 {
		t.Errorf("MaxLengthRatio = %v, want 1.5", cfg.Parser.MaxLengthRatio)
	}
	if cfg.OpenAI.Enabled {
		t.Error("OpenAI should be disabled without an API key")
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %s, want memory", cfg.Cache.Backend)
	}
	if cfg.Cache.PurgeInterval != 300 {
		t.Errorf("Cache.PurgeInterval = %d, want 300", cfg.Cache.PurgeInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SEARCH_GENERAL_RADIUS_M", "900")
	t.Setenv("PARSER_ESCALATION_THRESHOLD", "0.5")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SEARCH_BACKFILL_WORKERS", "not-a-number")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Search.GeneralRadius != 900 {
		t.Errorf("GeneralRadius = %d, want 900", cfg.Search.GeneralRadius)
	}
	if cfg.Parser.EscalationThreshold != 0.5 {
		t.Errorf("EscalationThreshold = %v, want 0.5", cfg.Parser.EscalationThreshold)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled")
	}
	if cfg.Search.BackfillWorkers != 8 {
		t.Errorf("invalid integer should fall back to default, got %d", cfg.Search.BackfillWorkers)
	}
	if !cfg.OpenAI.Enabled {
		t.Error("OpenAI should be enabled with an API key")
	}
}

func TestLoadRejectsInvertedLimits(t *testing.T) {
	t.Setenv("SEARCH_DEFAULT_LIMIT", "50")
	t.Setenv("SEARCH_MAX_LIMIT", "10")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error when max limit is below default limit")
	}
}

func TestGetPostgreSQLDSN(t *testing.T) {
	c := &Config{PostgreSQL: PostgreSQLConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "props", SSLMode: "disable"}}
	want := "host=db port=5432 user=u password=p dbname=props sslmode=disable"
	if got := c.GetPostgreSQLDSN(); got != want {
		t.Errorf("GetPostgreSQLDSN() = %q, want %q", got, want)
	}
	c.PostgreSQL.DSN = "postgres://x"
	if got := c.GetPostgreSQLDSN(); got != "postgres://x" {
		t.Errorf("explicit DSN should win, got %q", got)
	}
}
