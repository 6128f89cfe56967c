// Parses flags, configures logging and runs the kiln commands.
//
// Global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Stream build and test output live.
//	-d, --debug     Enable debug output.
//	-s, --socket    Unix socket path of the daemon.
//
// Commands:
//
//	kiln build RECIPE...    Fetch, verify, build, install and test recipes.
//	kiln check RECIPE...    Validate recipes without any I/O beyond reading them.
//	kiln digest FILE|URL    Print the digest to pin in a recipe.
//	kiln start              Run the daemon.
//	kiln status             Query the daemon.
//	kiln stop               Ask the daemon to shut down.
//	kiln version            Show version information.
//
// Flags override build-time defaults set via linker flags. Build settings
// can also come from KILN_* environment variables and from a TOML file at
// $XDG_CONFIG_HOME/kiln/config.toml (or $KILN_CONFIG) whose keys are flag
// names:
//
//	prefix        = "/opt/kiln"
//	fetch-timeout = "10m"
//	jobs          = 8
//
//	[dep-prefix]
//	"openssl@3" = "/opt/homebrew/opt/openssl@3"
package cli
