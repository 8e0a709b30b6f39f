// Package config loads the engine's two knobs — hash seed and persistence
// path — plus a log level, from a layered JSON configuration file, the same
// precedence chain the teacher's config.go applies to its own config file
// (global → project → explicit → programmatic override).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds the engine's environment-independent knobs (spec.md §6).
type Config struct {
	HashSeed        uint32 `json:"hash_seed,omitempty"`
	PersistencePath string `json:"persistence_path,omitempty"`
	LogLevel        string `json:"log_level,omitempty"`
}

// FileName is the default project config file name.
const FileName = ".kvstore.json"

// DefaultPersistencePath is used when no config sets one (spec.md §6).
const DefaultPersistencePath = "db.json"

// DefaultConfig returns the zero-seed (wall-clock-derived), default-path
// configuration.
func DefaultConfig() Config {
	return Config{PersistencePath: DefaultPersistencePath, LogLevel: "info"}
}

// getGlobalConfigPath mirrors the teacher's XDG lookup (config.go).
func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "kvstore", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kvstore", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "kvstore", "config.json")
}

// Load merges defaults, the global config, the project config (or an
// explicit path), and cliOverride, in that order of increasing precedence.
// Config files are parsed with hujson, tolerating comments and trailing
// commas, exactly like the teacher's .tk.json loader.
func Load(workDir, explicitPath string, cliOverride Config, env []string) (Config, error) {
	cfg := DefaultConfig()

	if globalPath := getGlobalConfigPath(env); globalPath != "" {
		merged, err := mergeFromFile(cfg, globalPath, false)
		if err != nil {
			return Config{}, err
		}

		cfg = merged
	}

	projectPath := explicitPath
	mustExist := explicitPath != ""

	if projectPath == "" {
		projectPath = filepath.Join(workDir, FileName)
	} else if !filepath.IsAbs(projectPath) {
		projectPath = filepath.Join(workDir, projectPath)
	}

	merged, err := mergeFromFile(cfg, projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	cfg = merged
	cfg = applyOverride(cfg, cliOverride)

	return cfg, nil
}

func mergeFromFile(base Config, path string, mustExist bool) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-configured
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, fmt.Errorf("config file not found: %s", path)
			}

			return base, nil
		}

		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	var fileCfg Config
	if err := json.Unmarshal(standardized, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return applyOverride(base, fileCfg), nil
}

func applyOverride(base, override Config) Config {
	if override.HashSeed != 0 {
		base.HashSeed = override.HashSeed
	}

	if override.PersistencePath != "" {
		base.PersistencePath = override.PersistencePath
	}

	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}

	return base
}
