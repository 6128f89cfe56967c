package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/cruciblehq/kiln/internal/paths"
	"github.com/cruciblehq/kiln/internal/protocol"
)

// Returns the daemon socket path.
func socketPath() string {
	if RootCmd.Socket != "" {
		return RootCmd.Socket
	}
	return paths.Socket()
}

// Sends one command to the daemon and returns the payload of its ok
// response. An error response is returned as an error wrapping [ErrDaemon].
//
// Cancelling ctx closes the connection, which makes the daemon cancel the
// request.
func request(ctx context.Context, socket string, cmd protocol.Command, payload any) (json.RawMessage, error) {
	data, err := protocol.Encode(cmd, payload)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return nil, fmt.Errorf("%w: is the daemon running? %w", ErrDaemon, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDaemon, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrDaemon, err)
	}

	env, resp, err := protocol.Decode(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDaemon, err)
	}

	switch env.Command {
	case protocol.CmdOK:
		return resp, nil
	case protocol.CmdError:
		res, err := protocol.DecodePayload[protocol.ErrorResult](resp)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDaemon, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrDaemon, res.Message)
	default:
		return nil, fmt.Errorf("%w: unexpected response %q", ErrDaemon, env.Command)
	}
}
