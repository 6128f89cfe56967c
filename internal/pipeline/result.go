package pipeline

import (
	"fmt"
	"time"

	"github.com/cruciblehq/kiln/internal/recipe"
)

// Outcome of one pipeline run.
type Result struct {
	Recipe    *recipe.Recipe // Recipe that was run.
	Stage     Stage          // Stage reached, or being entered when the run aborted.
	Status    Status         // Outcome class.
	Err       error          // Nil on success, otherwise a [*StageError].
	Stdout    string         // Captured stdout of the last external command run.
	Stderr    string         // Captured stderr of the last external command run.
	ExitCode  int            // Exit status of the last external command run.
	Installed []string       // Installed paths, in declaration order.
	Duration  time.Duration  // Wall time of the run.
}

// Reports whether the run reached Tested(Pass).
func (r *Result) OK() bool {
	return r.Status == StatusSuccess
}

// Returns the terminal state, e.g. "Tested(Pass)", "Tested(Fail)" or
// "Aborted(VerificationFailed)".
func (r *Result) State() string {
	switch r.Status {
	case StatusSuccess:
		return fmt.Sprintf("%s(Pass)", StageTested)
	case StatusSmokeTestFailed:
		return fmt.Sprintf("%s(Fail)", StageTested)
	default:
		return fmt.Sprintf("Aborted(%s)", r.Status)
	}
}
