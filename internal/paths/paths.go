// Package paths resolves the configuration, data and isolated-session
// directory locations used by the memonest CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under platform config locations.
const AppName = "memonest"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else selects one.
const DefaultDataDirName = ".memonest-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir   = "MEMONEST_CONFIG_DIR"
	EnvDataDir     = "MEMONEST_DATA_DIR"
	EnvIsolatedDir = "MEMONEST_ISOLATED_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/memonest (fallback ~/.config/memonest)
// macOS:   ~/Library/Application Support/memonest
// Windows: %APPDATA%/memonest
func DefaultConfigDir() (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > MEMONEST_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the directory holding the shared database, following
// the precedence chain: flag > config.yaml value > MEMONEST_DATA_DIR env >
// $(CWD)/.memonest-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstSet(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveIsolatedDir returns the directory for per-session databases in
// isolation mode: config.yaml value > MEMONEST_ISOLATED_DIR env. An empty
// result means isolated sessions use private in-memory databases.
func ResolveIsolatedDir(configValue string) (string, error) {
	if dir := firstSet(configValue, os.Getenv(EnvIsolatedDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return "", nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
