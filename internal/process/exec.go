package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Time allowed for output pipes to drain after the process exits or is
// killed. Grandchildren that keep a pipe open cannot block Exec past this.
const waitDelay = 5 * time.Second

// Default number of bytes kept per captured stream (4 MiB).
const DefaultMaxCapture = 4 << 20

// Sequence counter for process identifiers used in log records.
var execSeq uint64

// Returns a unique process identifier for log correlation.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// Describes a command to run.
type Spec struct {
	Args   []string  // Program and arguments. Args[0] is resolved via the PATH in Env.
	Dir    string    // Working directory.
	Env    []string  // Complete environment, "KEY=value" entries.
	Stdout io.Writer // Optional live copy of standard output.
	Stderr io.Writer // Optional live copy of standard error.

	// Bytes kept per captured stream. Output beyond it is dropped from the
	// front so the capture holds the tail. Zero means [DefaultMaxCapture].
	MaxCapture int
}

// Output of a command execution.
type ExecResult struct {
	ID       string // Identifier used in log records.
	Path     string // Resolved program path.
	ExitCode int    // Exit code of the process, -1 if it was killed by a signal.
	Stdout   string // Captured standard output.
	Stderr   string // Captured standard error.
	Dropped  int64  // Leading bytes dropped from the captures.
	Duration time.Duration
}

// Runs the command described by spec and waits for it to exit.
//
// A non-zero exit code is returned in the result with a nil error. Errors
// are returned when the program cannot be found or started ([ErrNotFound],
// [ErrStart]) or when ctx ends before the process exits ([ErrCanceled]); in
// the latter case the partial output is still returned.
func Exec(ctx context.Context, spec Spec) (*ExecResult, error) {
	if len(spec.Args) == 0 || spec.Args[0] == "" {
		return nil, fmt.Errorf("%w: empty command", ErrStart)
	}

	// Relative paths such as "./configure" are relative to the working
	// directory, as they would be in a shell.
	name := spec.Args[0]
	if spec.Dir != "" && !filepath.IsAbs(name) && filepath.Base(name) != name {
		name = filepath.Join(spec.Dir, name)
	}

	path, err := LookPath(name, spec.Env)
	if err != nil {
		return nil, err
	}

	res := &ExecResult{ID: nextExecID(), Path: path}

	limit := spec.MaxCapture
	if limit <= 0 {
		limit = DefaultMaxCapture
	}
	stdout, stderr := &tailBuffer{max: limit}, &tailBuffer{max: limit}

	cmd := exec.CommandContext(ctx, path, spec.Args[1:]...)
	cmd.Args[0] = spec.Args[0]
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdout = tee(stdout, spec.Stdout)
	cmd.Stderr = tee(stderr, spec.Stderr)
	cmd.WaitDelay = waitDelay

	slog.Debug("exec", "id", res.ID, "path", path, "args", spec.Args[1:], "dir", spec.Dir)

	start := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.Dropped = stdout.dropped + stderr.dropped
	if res.Dropped > 0 {
		slog.Warn("output truncated", "id", res.ID, "kept", limit, "dropped", res.Dropped)
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		res.ExitCode = 0
	case ctx.Err() != nil:
		res.ExitCode = -1
		return res, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("%w: %s: %w", ErrStart, spec.Args[0], runErr)
	}

	slog.Debug("exit", "id", res.ID, "code", res.ExitCode, "duration", res.Duration)
	return res, nil
}

// Returns a writer that captures into buf and, when live is non-nil, also
// forwards to live.
func tee(buf *tailBuffer, live io.Writer) io.Writer {
	if live == nil {
		return buf
	}
	return io.MultiWriter(buf, live)
}

// Keeps the last max bytes written to it.
type tailBuffer struct {
	max     int
	buf     []byte
	dropped int64
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n > b.max {
		b.dropped += int64(n - b.max)
		p = p[n-b.max:]
	}
	if over := len(b.buf) + len(p) - b.max; over > 0 {
		b.buf = b.buf[:copy(b.buf, b.buf[over:])]
		b.dropped += int64(over)
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
