package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "specrun"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for user configuration.
//
//	Linux:   $XDG_CONFIG_HOME/specrun or ~/.config/specrun
//	macOS:   ~/Library/Application Support/specrun
func Config() string {
	return filepath.Join(xdg.ConfigHome, toolName)
}

// Default path to the user configuration file.
//
//	Linux:   $XDG_CONFIG_HOME/specrun/config.yml
//	macOS:   ~/Library/Application Support/specrun/config.yml
func ConfigFile() string {
	return filepath.Join(Config(), "config.yml")
}
