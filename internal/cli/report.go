package cli

import (
	"fmt"
	"io"

	"github.com/cruciblehq/kiln/internal/pipeline"
	"github.com/cruciblehq/kiln/internal/protocol"
)

// Prints the outcome of each run and returns the error of the first failed
// one.
//
// The captured output of a failing build or smoke test is written verbatim
// to errOut unless it was already streamed live.
func report(out, errOut io.Writer, runs []protocol.RunResult, streamed bool) error {
	var first error
	for _, run := range runs {
		fmt.Fprintf(out, "%s: %s (%s)\n", run.Recipe, run.State, run.Duration)
		for _, path := range run.Installed {
			fmt.Fprintf(out, "  %s\n", path)
		}

		if run.Error == "" {
			continue
		}

		if !streamed {
			io.WriteString(errOut, run.Stdout)
			io.WriteString(errOut, run.Stderr)
		}

		if first == nil {
			first = newRunError(run)
		}
	}
	return first
}

// Failure of a run reported as a [protocol.RunResult].
//
// Matches the failure class sentinel of the run's status with [errors.Is].
type runError struct {
	message string
	class   error
}

func (e *runError) Error() string { return e.message }

func (e *runError) Unwrap() error { return e.class }

// Reconstructs a classifiable error from a run result.
func newRunError(run protocol.RunResult) error {
	status, _ := pipeline.ParseStatus(run.Status)
	return &runError{message: run.Error, class: status.Sentinel()}
}
