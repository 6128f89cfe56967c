package internal

import (
	"strconv"
	"sync/atomic"
)

var (
	quietMode   atomic.Bool // Only warnings and errors are logged.
	debugMode   atomic.Bool // Debug records are logged.
	verboseMode atomic.Bool // Build and test output is streamed live.
)

// Seeds the runtime modes from the linker flag defaults.
//
// Values that do not parse as booleans are ignored and the mode stays off.
func init() {
	for _, m := range []struct {
		raw  string
		mode *atomic.Bool
	}{
		{rawQuiet, &quietMode},
		{rawDebug, &debugMode},
		{rawVerbose, &verboseMode},
	} {
		if v, err := strconv.ParseBool(m.raw); err == nil {
			m.mode.Store(v)
		}
	}
}

// Enables or disables quiet mode.
func SetQuiet(enabled bool) { quietMode.Store(enabled) }

// Returns true if quiet mode is enabled.
func IsQuiet() bool { return quietMode.Load() }

// Enables or disables debug mode.
func SetDebug(enabled bool) { debugMode.Store(enabled) }

// Returns true if debug mode is enabled.
func IsDebug() bool { return debugMode.Load() }

// Enables or disables verbose mode.
//
// In verbose mode the output of the external build and smoke test commands
// is streamed to the terminal as it is produced, in addition to being
// captured for the failure report.
func SetVerbose(enabled bool) { verboseMode.Store(enabled) }

// Returns true if verbose mode is enabled.
func IsVerbose() bool { return verboseMode.Load() }
