package shared

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName is the directory tracklift uses under each XDG base directory.
const AppName = "tracklift"

// DataPath returns the location of name under $XDG_DATA_HOME/tracklift, creating the directory.
func DataPath(name string) (string, error) {
	path, err := xdg.DataFile(filepath.Join(AppName, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve data path: %w", err)
	}
	return path, nil
}

// StatePath returns the location of name under $XDG_STATE_HOME/tracklift, creating the directory.
func StatePath(name string) (string, error) {
	path, err := xdg.StateFile(filepath.Join(AppName, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve state path: %w", err)
	}
	return path, nil
}

// ConfigSearchPath returns the user config file, $XDG_CONFIG_HOME/tracklift/config.toml, without creating anything.
func ConfigSearchPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// ResolvedPath returns the configured database path, or tracklift.db in the XDG data directory when unset.
func (d DatabaseConfig) ResolvedPath() (string, error) {
	if d.Path != "" {
		return d.Path, nil
	}
	return DataPath("tracklift.db")
}
