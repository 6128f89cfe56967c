package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrConfig       = errors.New("configuration error")
	ErrFetch        = errors.New("fetch error")
	ErrVerification = errors.New("verification failed")
	ErrExtract      = errors.New("extract error")
	ErrBuild        = errors.New("build failed")
	ErrInstall      = errors.New("install failed")
	ErrSmokeTest    = errors.New("smoke test failed")
)

// Process exit codes, one per failure class.
const (
	ExitSuccess      = 0
	ExitInternal     = 1
	ExitConfig       = 10
	ExitFetch        = 11
	ExitVerification = 12
	ExitExtract      = 13
	ExitBuild        = 14
	ExitInstall      = 15
	ExitSmokeTest    = 16
)

// Failure of a pipeline run at a given stage.
//
// Matches both the class sentinel of its status (e.g. [ErrVerification])
// and the underlying cause with [errors.Is].
type StageError struct {
	Recipe string // Recipe name and version.
	Stage  Stage  // Stage being entered when the run aborted.
	Status Status // Failure class.
	Err    error  // Underlying cause.
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Recipe, e.Status, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Status.Sentinel(), e.Err}
}

// Returns the process exit code for err.
//
// Nil maps to [ExitSuccess], errors of a known failure class to that class'
// code, and anything else to [ExitInternal].
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	for _, s := range failures {
		if errors.Is(err, s.Sentinel()) {
			return s.ExitCode()
		}
	}
	return ExitInternal
}
