package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DefaultDestination != "calls_unrouted" {
		t.Errorf("DefaultDestination = %q", cfg.DefaultDestination)
	}
	if cfg.DedupWindowRows != 500 {
		t.Errorf("DedupWindowRows = %d", cfg.DedupWindowRows)
	}
	if cfg.WriteMaxAttempts != 5 {
		t.Errorf("WriteMaxAttempts = %d", cfg.WriteMaxAttempts)
	}
	if cfg.WriteBaseDelay != 500*time.Millisecond {
		t.Errorf("WriteBaseDelay = %v", cfg.WriteBaseDelay)
	}
	if cfg.WriteMaxDelay != 15*time.Second {
		t.Errorf("WriteMaxDelay = %v", cfg.WriteMaxDelay)
	}
	if cfg.CallsPerBatch != 5 {
		t.Errorf("CallsPerBatch = %d", cfg.CallsPerBatch)
	}
	if cfg.BatchInterval != 5*time.Minute {
		t.Errorf("BatchInterval = %v", cfg.BatchInterval)
	}
	if cfg.VapiURL != "https://api.vapi.ai" {
		t.Errorf("VapiURL = %q", cfg.VapiURL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEDUP_WINDOW_ROWS", "100")
	t.Setenv("BATCH_INTERVAL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DedupWindowRows != 100 {
		t.Errorf("DedupWindowRows = %d", cfg.DedupWindowRows)
	}
	if cfg.BatchInterval != 90*time.Second {
		t.Errorf("BatchInterval = %v", cfg.BatchInterval)
	}
}
