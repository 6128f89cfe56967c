package cli

import (
	"context"
	"log/slog"

	"github.com/cruciblehq/kiln/internal/pipeline"
	"github.com/cruciblehq/kiln/internal/server"
)

// Represents the 'kiln start' command.
type StartCmd struct {
	RunnerFlags `embed:""`
}

// Executes the start command.
//
// Starts the daemon on a Unix domain socket and blocks until the context is
// cancelled (e.g. via SIGINT or SIGTERM) or a client asks it to shut down.
func (c *StartCmd) Run(ctx context.Context) error {
	cfg := c.config(nil)

	srv := server.New(server.Config{
		SocketPath: RootCmd.Socket,
		Runner:     pipeline.New(cfg),
		Prefix:     cfg.Prefix,
		Parallel:   c.Parallel,
	})

	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info("kiln daemon is running", "prefix", cfg.Prefix, "cache", cfg.CacheDir)

	select {
	case <-ctx.Done():
	case <-srv.Done():
	}

	slog.Info("shutting down")
	return srv.Stop()
}
