// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.Equal(t, 4096, cfg.RecoveryWindowBytes)
	assert.Equal(t, 16*1024*1024, cfg.RecoveryScratchBytes)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogOutputDir)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("MRSARCHIVE_WORKERS", "16")
	t.Setenv("MRSARCHIVE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
}
