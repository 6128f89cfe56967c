package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/cruciblehq/kiln/internal/process"
	"github.com/cruciblehq/kiln/internal/toolchain"
)

// Controls a build invocation.
type Options struct {
	Root      string              // Extracted source tree.
	Dir       string              // Build subdirectory relative to Root. Empty builds in Root.
	Command   []string            // Program and arguments, with placeholders.
	Env       map[string]string   // Recipe build environment.
	Toolchain toolchain.Toolchain // Resolved compilers and dependency prefixes.
	Environ   []string            // Base environment the layers are applied to.
	Stdout    io.Writer           // Optional live copy of the command's stdout.
	Stderr    io.Writer           // Optional live copy of the command's stderr.
}

// Returned after the build command ran to completion.
type Result struct {
	Dir      string        // Directory the command ran in.
	Command  []string      // Expanded command.
	ExitCode int           // Exit status, 0 on success.
	Stdout   string        // Captured standard output.
	Stderr   string        // Captured standard error.
	Duration time.Duration // Wall time of the command.
}

// Runs the build command described by opts and waits for it to finish.
//
// Placeholder and directory problems are reported as [ErrExpand] and
// [ErrWorkdir] before anything is started. A command that exits non-zero
// yields both the result and an [*ExitError]. Cancelling ctx kills the
// build and returns an error wrapping [ErrBuild] and [process.ErrCanceled].
func Run(ctx context.Context, opts Options) (*Result, error) {
	dir, err := workdir(opts.Root, opts.Dir)
	if err != nil {
		return nil, err
	}

	env, err := environ(opts.Environ, opts.Toolchain, opts.Env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExpand, err)
	}

	args, err := process.Expand(opts.Command, env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExpand, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrExpand)
	}

	slog.Info("building", "dir", dir, "command", args)

	res, err := process.Exec(ctx, process.Spec{
		Args:   args,
		Dir:    dir,
		Env:    env,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if res == nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	result := &Result{
		Dir:      dir,
		Command:  args,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: res.Duration,
	}

	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	if res.ExitCode != 0 {
		return result, &ExitError{
			Command:  args,
			Dir:      dir,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}

	slog.Info("build finished", "duration", res.Duration)
	return result, nil
}

// Resolves the build directory inside root.
//
// Symlinks are resolved as if root were the filesystem root, so a link in
// the source tree cannot move the build outside of it.
func workdir(root, dir string) (string, error) {
	path, err := securejoin.SecureJoin(root, dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWorkdir, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist in the source tree", ErrWorkdir, dir)
		}
		return "", fmt.Errorf("%w: %w", ErrWorkdir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrWorkdir, dir)
	}

	return path, nil
}
