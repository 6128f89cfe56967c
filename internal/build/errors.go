package build

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBuild   = errors.New("build failed")
	ErrExpand  = errors.New("invalid build command")
	ErrWorkdir = errors.New("invalid build directory")
)

// Returned when the build command exits with a non-zero status.
//
// The captured output is kept verbatim so it can be shown to the user
// unchanged.
type ExitError struct {
	Command  []string // Expanded command that was run.
	Dir      string   // Directory it ran in.
	ExitCode int      // Exit status of the command.
	Stdout   string   // Captured standard output.
	Stderr   string   // Captured standard error.
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %s exited with status %d", ErrBuild, strings.Join(e.Command, " "), e.ExitCode)
}

func (e *ExitError) Unwrap() error {
	return ErrBuild
}
