package smoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cruciblehq/kiln/internal/process"
)

// Applied when [Options.Timeout] is zero.
const DefaultTimeout = 30 * time.Second

// Controls a smoke test run.
type Options struct {
	Command   []string      // Program and arguments.
	Installed []string      // Paths written by the install stage.
	Prefix    string        // Install prefix.
	Timeout   time.Duration // Zero uses [DefaultTimeout].
	Environ   []string      // Base environment.
	Stdout    io.Writer     // Optional live copy of stdout.
	Stderr    io.Writer     // Optional live copy of stderr.
}

// Outcome of a smoke test that ran to completion.
type Result struct {
	Command  []string // Command as executed, program resolved.
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runs the smoke test described by opts.
//
// A non-zero exit yields the result and an [*ExitError]. Exceeding the
// timeout kills the command and returns an error wrapping both
// [ErrSmokeTest] and [ErrTimeout]. Cancelling ctx for any other reason
// returns an error wrapping [ErrSmokeTest] and [process.ErrCanceled].
func Run(ctx context.Context, opts Options) (*Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	env := environ(opts.Environ, opts.Prefix)

	args, err := process.Expand(opts.Command, env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrSmokeTest, ErrCommand, err)
	}
	if len(args) == 0 || args[0] == "" {
		return nil, fmt.Errorf("%w: %w: empty command", ErrSmokeTest, ErrCommand)
	}
	args[0] = resolveProgram(args[0], opts.Installed)

	slog.Info("running smoke test", "command", args, "timeout", timeout)

	ctx, cancel := context.WithTimeoutCause(ctx, timeout, ErrTimeout)
	defer cancel()

	res, err := process.Exec(ctx, process.Spec{
		Args:   args,
		Env:    env,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if res == nil {
		return nil, fmt.Errorf("%w: %w", ErrSmokeTest, err)
	}

	result := &Result{
		Command:  args,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: res.Duration,
	}

	if err != nil {
		if errors.Is(context.Cause(ctx), ErrTimeout) {
			return result, fmt.Errorf("%w: %w after %s", ErrSmokeTest, ErrTimeout, timeout)
		}
		return result, fmt.Errorf("%w: %w", ErrSmokeTest, err)
	}

	if res.ExitCode != 0 {
		return result, &ExitError{
			Command:  args,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}

	slog.Info("smoke test passed", "duration", res.Duration)
	return result, nil
}

// Returns the installed path whose base name equals program, or program
// unchanged when none does or when program is already a path.
func resolveProgram(program string, installed []string) string {
	if filepath.Base(program) != program {
		return program
	}
	for _, path := range installed {
		if filepath.Base(path) == program {
			return path
		}
	}
	return program
}

// Returns base with BIN and PREFIX set and prefix/bin first on PATH.
func environ(base []string, prefix string) []string {
	if prefix == "" {
		return base
	}
	bin := filepath.Join(prefix, "bin")

	path := bin
	if p, ok := process.Getenv(base, "PATH"); ok && p != "" {
		path += string(filepath.ListSeparator) + p
	}

	return process.MergeEnv(base, []string{
		"BIN=" + bin,
		"PREFIX=" + prefix,
		"PATH=" + path,
	})
}
