package pipeline

import "fmt"

// Position of a run in the pipeline.
type Stage int

const (
	StagePending Stage = iota
	StageFetched
	StageVerified
	StageExtracted
	StageBuilt
	StageInstalled
	StageTested
)

var stageNames = [...]string{
	StagePending:   "Pending",
	StageFetched:   "Fetched",
	StageVerified:  "Verified",
	StageExtracted: "Extracted",
	StageBuilt:     "Built",
	StageInstalled: "Installed",
	StageTested:    "Tested",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Outcome class of a run.
type Status int

const (
	StatusSuccess Status = iota
	StatusConfigError
	StatusFetchError
	StatusVerificationFailed
	StatusExtractError
	StatusBuildFailed
	StatusInstallFailed
	StatusSmokeTestFailed
)

// Failure statuses, in the order [ExitCode] checks them.
var failures = []Status{
	StatusConfigError,
	StatusFetchError,
	StatusVerificationFailed,
	StatusExtractError,
	StatusBuildFailed,
	StatusInstallFailed,
	StatusSmokeTestFailed,
}

var statusInfo = [...]struct {
	name     string
	exitCode int
	err      error
}{
	StatusSuccess:            {"Success", ExitSuccess, nil},
	StatusConfigError:        {"ConfigError", ExitConfig, ErrConfig},
	StatusFetchError:         {"FetchError", ExitFetch, ErrFetch},
	StatusVerificationFailed: {"VerificationFailed", ExitVerification, ErrVerification},
	StatusExtractError:       {"ExtractError", ExitExtract, ErrExtract},
	StatusBuildFailed:        {"BuildFailed", ExitBuild, ErrBuild},
	StatusInstallFailed:      {"InstallFailed", ExitInstall, ErrInstall},
	StatusSmokeTestFailed:    {"SmokeTestFailed", ExitSmokeTest, ErrSmokeTest},
}

func (s Status) valid() bool {
	return s >= 0 && int(s) < len(statusInfo)
}

func (s Status) String() string {
	if !s.valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusInfo[s].name
}

// Returns the process exit code for the status.
func (s Status) ExitCode() int {
	if !s.valid() {
		return ExitInternal
	}
	return statusInfo[s].exitCode
}

// Returns the class sentinel, e.g. [ErrBuild] for [StatusBuildFailed], and nil
// for success.
func (s Status) Sentinel() error {
	if !s.valid() {
		return nil
	}
	return statusInfo[s].err
}

// Returns the status with the given name, as produced by [Status.String].
func ParseStatus(name string) (Status, bool) {
	for i, info := range statusInfo {
		if info.name == name {
			return Status(i), true
		}
	}
	return 0, false
}
