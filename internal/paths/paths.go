package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	appName = "kiln"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Root for per-run scratch directories (downloads and working trees).
//
//	Linux:   $XDG_CACHE_HOME/kiln
//	macOS:   ~/Library/Caches/kiln
func Cache() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// Default install prefix. Installed executables land in Prefix()/bin.
//
//	Linux:   $XDG_DATA_HOME/kiln/prefix
//	macOS:   ~/Library/Application Support/kiln/prefix
func Prefix() string {
	return filepath.Join(xdg.DataHome, appName, "prefix")
}

// Path of the optional TOML configuration file.
//
//	Linux:   $XDG_CONFIG_HOME/kiln/config.toml
//	macOS:   ~/Library/Application Support/kiln/config.toml
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// Path to the directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/kiln or /run/user/<uid>/kiln
//	macOS:   ~/Library/Caches/kiln/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, appName)
	}
	return filepath.Join(Cache(), "run")
}

// Default path to the daemon's Unix domain socket.
func Socket() string {
	return filepath.Join(Runtime(), "kiln.sock")
}

// Default path to the daemon's PID file.
func PIDFile() string {
	return filepath.Join(Runtime(), "kiln.pid")
}
