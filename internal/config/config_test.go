package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults should succeed: %v", err)
	}

	if cfg.Scheduler.Interval != 30*time.Second {
		t.Fatalf("default interval = %s", cfg.Scheduler.Interval)
	}
	if !cfg.Scheduler.AutoRefresh {
		t.Fatal("auto refresh should default on")
	}
	if cfg.Arbitrage.TopN != 5 {
		t.Fatalf("default top_n = %d", cfg.Arbitrage.TopN)
	}
	if cfg.Display.Currency != "USD" {
		t.Fatalf("default currency = %q", cfg.Display.Currency)
	}
	if cfg.Alerting.Enabled {
		t.Fatal("alerting should default off")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		return cfg
	}

	cfg := base()
	cfg.Scheduler.Interval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero interval should fail validation")
	}

	cfg = base()
	cfg.Arbitrage.TopN = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero top_n should fail validation")
	}

	cfg = base()
	cfg.Alerting.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("telegram without credentials should fail validation")
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := &Config{Export: ExportConfig{MaxDataPoints: 500}}
	if got := cfg.ResolveMaxPoints(0); got != 500 {
		t.Fatalf("config default not used: %d", got)
	}
	if got := cfg.ResolveMaxPoints(42); got != 42 {
		t.Fatalf("override not used: %d", got)
	}
}
