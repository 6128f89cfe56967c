package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/cruciblehq/kiln/internal"
	"github.com/cruciblehq/kiln/internal/paths"
)

// Destination of command results. Logs and external command output go to
// stderr.
var stdout io.Writer = os.Stdout

// Represents the root command for kiln.
var RootCmd struct {
	Quiet   bool       `short:"q" help:"Suppress informational output."`
	Verbose bool       `short:"v" help:"Stream build and test output live."`
	Debug   bool       `short:"d" help:"Enable debug output."`
	Socket  string     `short:"s" help:"Override the default Unix socket path." placeholder:"PATH" env:"KILN_SOCKET"`
	Build   BuildCmd   `cmd:"" help:"Fetch, verify, build, install and smoke test recipes."`
	Check   CheckCmd   `cmd:"" help:"Validate recipes and show what they declare."`
	Digest  DigestCmd  `cmd:"" help:"Compute the digest of a local file or a URL."`
	Start   StartCmd   `cmd:"" help:"Start the daemon."`
	Status  StatusCmd  `cmd:"" help:"Show daemon status."`
	Stop    StopCmd    `cmd:"" help:"Stop the daemon."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Turns package recipes into installed, verified binaries."),
		kong.UsageOnError(),
		kong.Configuration(tomlLoader, configFile()),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.Vars(flagVars),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Returns the config file path, $KILN_CONFIG when set.
func configFile() string {
	if p := os.Getenv("KILN_CONFIG"); p != "" {
		return p
	}
	return paths.ConfigFile()
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	logger, ok := slog.Default().Handler().(*log.Logger)
	if !ok {
		return // Not a charm logger, nothing to configure
	}

	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	switch {
	case debug:
		logger.SetLevel(log.DebugLevel)
	case quiet:
		logger.SetLevel(log.WarnLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	internal.SetDebug(debug)
	internal.SetQuiet(quiet)
	internal.SetVerbose(verbose)

	logger.SetReportTimestamp(verbose || debug)
	logger.SetReportCaller(debug)
}
