package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables read by the CLI.
const (
	EnvConfigPath = "PORTAL_CONFIG_PATH"
	EnvHome       = "PORTAL_HOME"
	EnvUser       = "PORTAL_USER"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PORTAL_CONFIG_PATH: config file location (default: ~/.config/portal.toml)
//   - PORTAL_HOME: base directory for portal data (default: ~/.local/share/portal)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// DefaultUser returns the acting identity from PORTAL_USER, or "".
func DefaultUser() string {
	return os.Getenv(EnvUser)
}

// getConfigPath returns the config file path, checking PORTAL_CONFIG_PATH first,
// then falling back to the default ~/.config/portal.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "portal.toml"), nil
}

// getBaseDir returns the base directory for portal data, checking PORTAL_HOME first,
// then falling back to the XDG default ~/.local/share/portal.
func getBaseDir() (string, error) {
	if path := os.Getenv(EnvHome); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "portal"), nil
}
