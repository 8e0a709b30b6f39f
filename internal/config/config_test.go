package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/kvstore/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFilesPresent(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Load(dir, "", config.Config{}, nil)
	require.NoError(t, err)
	require.Equal(t, config.DefaultPersistencePath, cfg.PersistencePath)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadProjectConfigTolerantJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)

	// hujson tolerates comments and a trailing comma.
	content := `{
		// seed chosen for reproducible tests
		"hash_seed": 42,
		"persistence_path": "custom.json",
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(dir, "", config.Config{}, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(42), cfg.HashSeed)
	require.Equal(t, "custom.json", cfg.PersistencePath)
}

func TestLoadCLIOverrideWinsLast(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"persistence_path": "from-file.json"}`), 0o600))

	cfg, err := config.Load(dir, "", config.Config{PersistencePath: "from-cli.json"}, nil)
	require.NoError(t, err)
	require.Equal(t, "from-cli.json", cfg.PersistencePath)
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(dir, filepath.Join(dir, "missing.json"), config.Config{}, nil)
	require.Error(t, err)
}

func TestLoadInvalidJSONErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := config.Load(dir, "", config.Config{}, nil)
	require.Error(t, err)
}
