package smoke

import (
	"errors"
	"fmt"
)

var (
	ErrSmokeTest = errors.New("smoke test failed")
	ErrTimeout   = errors.New("smoke test timed out")
	ErrCommand   = errors.New("invalid smoke test command")
)

// Returned when the smoke test exits with a non-zero status.
type ExitError struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %s exited with status %d", ErrSmokeTest, e.Command[0], e.ExitCode)
}

func (e *ExitError) Unwrap() error {
	return ErrSmokeTest
}
