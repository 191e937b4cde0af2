package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeleaf/jewelgen/internal/config"
)

func TestRunInit_WritesLoadableConfig(t *testing.T) {
	origPath, origForce := initPath, initForce
	defer func() { initPath, initForce = origPath, origForce }()

	dir := t.TempDir()
	initPath = filepath.Join(dir, "config.yaml")
	initForce = false

	require.NoError(t, runInit(nil, nil))
	assert.FileExists(t, initPath)

	// The generated file round-trips through the config loader with the
	// documented defaults intact.
	t.Chdir(dir)
	cfg, err := config.Load(initPath)
	require.NoError(t, err)
	assert.Equal(t, "https://api.meshy.ai", cfg.API.BaseURL)
	assert.Equal(t, "gold", cfg.Defaults.Material)
	assert.Equal(t, "on", cfg.Generation.SymmetryMode)
	assert.Equal(t, []string{"glb", "fbx"}, cfg.Generation.Formats)
}

func TestRunInit_RefusesOverwrite(t *testing.T) {
	origPath, origForce := initPath, initForce
	defer func() { initPath, initForce = origPath, origForce }()

	initPath = filepath.Join(t.TempDir(), "config.yaml")
	initForce = false
	require.NoError(t, os.WriteFile(initPath, []byte("keep: me\n"), 0644))

	err := runInit(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	content, err := os.ReadFile(initPath)
	require.NoError(t, err)
	assert.Equal(t, "keep: me\n", string(content))
}

func TestRunInit_ForceOverwrites(t *testing.T) {
	origPath, origForce := initPath, initForce
	defer func() { initPath, initForce = origPath, origForce }()

	initPath = filepath.Join(t.TempDir(), "config.yaml")
	initForce = true
	require.NoError(t, os.WriteFile(initPath, []byte("old"), 0644))

	require.NoError(t, runInit(nil, nil))

	content, err := os.ReadFile(initPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "jewelgen configuration")
}
