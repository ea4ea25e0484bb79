package verify

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eth2030/blsworker/crypto"
	"github.com/eth2030/blsworker/log"
	"github.com/eth2030/blsworker/metrics"
)

// Chunking and worker defaults.
const (
	// DefaultBatchableMinPerChunk is the minimum set count per chunk.
	DefaultBatchableMinPerChunk = 16

	// MinBatchableMinPerChunk and MaxBatchableMinPerChunk bound the
	// tunable range.
	MinBatchableMinPerChunk = 1
	MaxBatchableMinPerChunk = 1024

	// DefaultQueueDepth is the per-worker request channel capacity.
	DefaultQueueDepth = 32
)

// Environment variables overriding the defaults.
const (
	EnvBatchableMinPerChunk = "BLSWORKER_BATCHABLE_MIN_PER_CHUNK"
	EnvWorkers              = "BLSWORKER_WORKERS"
	EnvQueueDepth           = "BLSWORKER_QUEUE_DEPTH"
)

// Config holds the engine configuration. The zero value is usable; every
// constructor passes it through sanitize first.
type Config struct {
	// BatchableMinPerChunk is the chunker threshold, clamped to
	// [MinBatchableMinPerChunk, MaxBatchableMinPerChunk].
	BatchableMinPerChunk int `yaml:"batchable_min_per_chunk"`

	// Workers is the worker count used by NewPool.
	Workers int `yaml:"workers"`

	// QueueDepth is the per-worker request channel capacity.
	QueueDepth int `yaml:"queue_depth"`

	// Backend is the BLS implementation. Defaults to the process-wide
	// active backend.
	Backend crypto.Backend `yaml:"-"`

	// Now is the monotonic clock used for the worker timing brackets.
	// Injected so tests can run against a deterministic clock.
	Now func() time.Time `yaml:"-"`

	// Logger receives engine diagnostics. Defaults to the package default
	// logger.
	Logger *log.Logger `yaml:"-"`

	// Registry receives the engine's process-wide counters. Defaults to a
	// fresh registry.
	Registry *metrics.Registry `yaml:"-"`
}

// DefaultConfig returns the engine defaults: threshold 16, one worker per
// CPU minus one for the host, queue depth 32. Backend, Now, Logger and
// Registry are left nil; sanitize fills them (the active BLS backend,
// time.Now, the default logger, a fresh registry).
func DefaultConfig() Config {
	return Config{
		BatchableMinPerChunk: DefaultBatchableMinPerChunk,
		Workers:              defaultWorkers(),
		QueueDepth:           DefaultQueueDepth,
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// FromEnv returns DefaultConfig with environment overrides applied.
// Unparseable values are ignored with a warning.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.BatchableMinPerChunk = envInt(EnvBatchableMinPerChunk, cfg.BatchableMinPerChunk)
	cfg.Workers = envInt(EnvWorkers, cfg.Workers)
	cfg.QueueDepth = envInt(EnvQueueDepth, cfg.QueueDepth)
	return cfg
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("ignoring unparseable environment override", "var", name, "value", raw)
		return fallback
	}
	return v
}

// LoadConfig reads a YAML config file and applies it over DefaultConfig.
// Absent fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("verify: reading config: %w", err)
	}
	var file struct {
		BatchableMinPerChunk *int `yaml:"batchable_min_per_chunk"`
		Workers              *int `yaml:"workers"`
		QueueDepth           *int `yaml:"queue_depth"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Config{}, fmt.Errorf("verify: parsing config: %w", err)
	}
	cfg := DefaultConfig()
	if file.BatchableMinPerChunk != nil {
		cfg.BatchableMinPerChunk = *file.BatchableMinPerChunk
	}
	if file.Workers != nil {
		cfg.Workers = *file.Workers
	}
	if file.QueueDepth != nil {
		cfg.QueueDepth = *file.QueueDepth
	}
	return cfg, nil
}

// sanitize fills zero fields with defaults and clamps the tunables.
func (c Config) sanitize() Config {
	if c.BatchableMinPerChunk == 0 {
		c.BatchableMinPerChunk = DefaultBatchableMinPerChunk
	}
	if c.BatchableMinPerChunk < MinBatchableMinPerChunk {
		c.BatchableMinPerChunk = MinBatchableMinPerChunk
	}
	if c.BatchableMinPerChunk > MaxBatchableMinPerChunk {
		c.BatchableMinPerChunk = MaxBatchableMinPerChunk
	}
	if c.Workers < 1 {
		c.Workers = defaultWorkers()
	}
	if c.QueueDepth < 1 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.Backend == nil {
		c.Backend = crypto.ActiveBackend()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.Registry == nil {
		c.Registry = metrics.NewRegistry()
	}
	return c
}
