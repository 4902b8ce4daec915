// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer in
//   file and environment overrides.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SyncQueueSize bounds the in-memory sync task queue.
	SyncQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of sync workers.
	WorkerCount int `koanf:"worker_count"`

	// BenchmarksURL is the base URL of the canonical benchmark service.
	BenchmarksURL string `koanf:"benchmarks_url"`

	// PermanentStoreURL is the base URL of the permanent results store.
	PermanentStoreURL string `koanf:"permanent_store_url"`

	// BenchmarkVersion pins the benchmark definitions submissions are
	// validated against.
	BenchmarkVersion string `koanf:"benchmark_version"`

	// LedgerPath points at the sqlite sync ledger file. Empty keeps the
	// ledger in memory.
	LedgerPath string `koanf:"ledger_path"`

	// RequestTimeoutMS bounds outbound HTTP calls.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// SyncMaxAttempts caps retries for a single sync operation.
	SyncMaxAttempts int `koanf:"sync_max_attempts"`

	// SyncBackoffMS is the base delay doubled on each sync retry.
	SyncBackoffMS int `koanf:"sync_backoff_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		SyncQueueSize:     1024,
		WorkerCount:       runtime.NumCPU(),
		BenchmarksURL:     "http://localhost:9081",
		PermanentStoreURL: "http://localhost:9082",
		BenchmarkVersion:  "v1",
		LedgerPath:        "",
		RequestTimeoutMS:  15_000,
		SyncMaxAttempts:   3,
		SyncBackoffMS:     1_000,
	}
}
