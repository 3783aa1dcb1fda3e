package codec

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	want := &Config{
		DefaultSRID:  4326,
		DefaultScale: 1000,
		Batch:        BatchConfig{MaxConcurrency: 8},
		Bridge: BridgeConfig{
			Broker:         "tcp://localhost:1883",
			ClientID:       "geofc-test",
			InTopicPrefix:  "geofc/in",
			OutTopicPrefix: "geofc/out",
		},
	}
	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *got != *want {
		t.Errorf("got %#v, want %#v", *got, *want)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := SaveConfig(path, &Config{DefaultSRID: 4326}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.DefaultScale != DefaultScale {
		t.Errorf("DefaultScale = %d, want %d", got.DefaultScale, DefaultScale)
	}
	if got.Batch.MaxConcurrency != 4 {
		t.Errorf("Batch.MaxConcurrency = %d, want 4", got.Batch.MaxConcurrency)
	}
	if got.Bridge.InTopicPrefix != "geofc/in" {
		t.Errorf("Bridge.InTopicPrefix = %q, want geofc/in", got.Bridge.InTopicPrefix)
	}
	if got.Bridge.OutTopicPrefix != "geofc/out" {
		t.Errorf("Bridge.OutTopicPrefix = %q, want geofc/out", got.Bridge.OutTopicPrefix)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}
