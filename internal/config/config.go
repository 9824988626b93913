// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors are wrapped via this package's error helpers.
//
// WHS constants (the 0.96 factor, the 20-round window, the selection table)
// are deliberately absent here: they are rules, not configuration.
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

	// DBPath is the sqlite database file. Empty selects the in-memory
	// store, which loses data on restart.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory recalculation job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recalculation workers.
	WorkerCount int `koanf:"worker_count"`

	// CoalescerSize bounds the pending-recalculation tracker.
	CoalescerSize int `koanf:"coalescer_size"`

	// DefaultPar is assumed when a round or projection request carries no
	// par of its own.
	DefaultPar int `koanf:"default_par"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":8710",
		DBPath:        "greenside.db",
		QueueSize:     1024,
		WorkerCount:   runtime.NumCPU(),
		CoalescerSize: 10_000,
		DefaultPar:    72,
	}
}
