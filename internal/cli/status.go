package cli

import (
	"context"
	"fmt"

	"github.com/cruciblehq/kiln/internal/protocol"
)

// Represents the 'kiln status' command.
type StatusCmd struct{}

// Executes the status command.
func (c *StatusCmd) Run(ctx context.Context) error {
	payload, err := request(ctx, socketPath(), protocol.CmdStatus, nil)
	if err != nil {
		return err
	}

	status, err := protocol.DecodePayload[protocol.StatusResult](payload)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "version: %s\npid:     %d\nuptime:  %s\nbuilds:  %d\nprefix:  %s\n",
		status.Version, status.Pid, status.Uptime, status.Builds, status.Prefix)
	return nil
}

// Represents the 'kiln stop' command.
type StopCmd struct{}

// Executes the stop command.
func (c *StopCmd) Run(ctx context.Context) error {
	if _, err := request(ctx, socketPath(), protocol.CmdShutdown, nil); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "daemon stopping")
	return nil
}
