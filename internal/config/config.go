// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

// Package config loads runtime tuning knobs for the archive engine from
// environment variables, prefixed MRSARCHIVE_.
package config

import (
	"runtime"

	"github.com/spf13/viper"
)

// RuntimeConfig holds the engine's tunable runtime parameters. None of these
// affect wire-format semantics; they bound resource usage.
type RuntimeConfig struct {
	// Workers is the maximum number of goroutines fanned out by
	// ExtractFiles/ExtractDirectory.
	Workers int `mapstructure:"workers"`

	// RecoveryWindowBytes is the sliding-window size used by the forced
	// recovery scanner's linear signature scan.
	RecoveryWindowBytes int `mapstructure:"recovery_window_bytes"`

	// RecoveryScratchBytes is the per-segment scratch buffer size used
	// when probing inflate offsets during recovery.
	RecoveryScratchBytes int `mapstructure:"recovery_scratch_bytes"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `mapstructure:"log_level"`

	// LogOutputDir, if non-empty, additionally fans logs out to a
	// timestamped file in this directory.
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// Load reads RuntimeConfig from environment variables prefixed
// MRSARCHIVE_ (e.g. MRSARCHIVE_WORKERS), falling back to defaults for
// anything unset. It never reads command-line flags or a config file: this
// module has no CLI surface of its own.
func Load() (*RuntimeConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("MRSARCHIVE")
	v.AutomaticEnv()

	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("recovery_window_bytes", 4096)
	v.SetDefault("recovery_scratch_bytes", 16*1024*1024)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_output_dir", "")

	cfg := &RuntimeConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
