package verify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BatchableMinPerChunk != DefaultBatchableMinPerChunk {
		t.Errorf("BatchableMinPerChunk = %d, want %d",
			cfg.BatchableMinPerChunk, DefaultBatchableMinPerChunk)
	}
	if cfg.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", cfg.Workers)
	}
	if cfg.QueueDepth != DefaultQueueDepth {
		t.Errorf("QueueDepth = %d, want %d", cfg.QueueDepth, DefaultQueueDepth)
	}
}

func TestSanitizeClampsThreshold(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, DefaultBatchableMinPerChunk},
		{-5, MinBatchableMinPerChunk},
		{1, 1},
		{1024, 1024},
		{5000, MaxBatchableMinPerChunk},
	}
	for _, c := range cases {
		cfg := Config{BatchableMinPerChunk: c.in}.sanitize()
		if cfg.BatchableMinPerChunk != c.want {
			t.Errorf("sanitize(%d).BatchableMinPerChunk = %d, want %d",
				c.in, cfg.BatchableMinPerChunk, c.want)
		}
	}
}

func TestSanitizeFillsDefaults(t *testing.T) {
	cfg := Config{}.sanitize()
	if cfg.Backend == nil || cfg.Now == nil || cfg.Logger == nil || cfg.Registry == nil {
		t.Error("sanitize left nil collaborators")
	}
	if cfg.Workers < 1 || cfg.QueueDepth < 1 {
		t.Errorf("sanitize left non-positive sizes: workers=%d depth=%d",
			cfg.Workers, cfg.QueueDepth)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(EnvBatchableMinPerChunk, "32")
	t.Setenv(EnvWorkers, "5")
	cfg := FromEnv()
	if cfg.BatchableMinPerChunk != 32 {
		t.Errorf("BatchableMinPerChunk = %d, want 32", cfg.BatchableMinPerChunk)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Workers)
	}
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv(EnvBatchableMinPerChunk, "not-a-number")
	cfg := FromEnv()
	if cfg.BatchableMinPerChunk != DefaultBatchableMinPerChunk {
		t.Errorf("BatchableMinPerChunk = %d, want default", cfg.BatchableMinPerChunk)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blsworker.yaml")
	body := "batchable_min_per_chunk: 24\nworkers: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BatchableMinPerChunk != 24 {
		t.Errorf("BatchableMinPerChunk = %d, want 24", cfg.BatchableMinPerChunk)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	// Absent keys keep their defaults.
	if cfg.QueueDepth != DefaultQueueDepth {
		t.Errorf("QueueDepth = %d, want default", cfg.QueueDepth)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("workers: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
