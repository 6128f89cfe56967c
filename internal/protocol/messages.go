package protocol

import (
	"time"

	"github.com/cruciblehq/kiln/internal/pipeline"
)

// A recipe file sent by the client.
//
// The client reads the file so the daemon never resolves paths relative to
// a directory it does not share.
type RecipeFile struct {
	Filename string `json:"filename"` // Name used in diagnostics.
	Source   string `json:"source"`   // HCL source.
}

// Payload of [CmdBuild].
type BuildRequest struct {
	Recipes  []RecipeFile `json:"recipes"`
	Parallel int          `json:"parallel,omitempty"` // Concurrent runs; zero uses the daemon default.
}

// Result of [CmdBuild], one entry per recipe in request order.
type BuildResult struct {
	Runs []RunResult `json:"runs"`
}

// Outcome of one recipe run.
type RunResult struct {
	Recipe    string   `json:"recipe"`
	State     string   `json:"state"`
	Stage     string   `json:"stage"`
	Status    string   `json:"status"`
	ExitCode  int      `json:"exitCode"` // Exit status of the last external command.
	Error     string   `json:"error,omitempty"`
	Stdout    string   `json:"stdout,omitempty"`
	Stderr    string   `json:"stderr,omitempty"`
	Installed []string `json:"installed,omitempty"`
	Duration  string   `json:"duration"`
}

// Result of [CmdStatus].
type StatusResult struct {
	Running bool   `json:"running"`
	Version string `json:"version"`
	Pid     int    `json:"pid"`
	Uptime  string `json:"uptime"`
	Builds  int    `json:"builds"`
	Prefix  string `json:"prefix"`
}

// Payload of [CmdError].
type ErrorResult struct {
	Message string `json:"message"`
}

// Converts a pipeline result for the wire.
func NewRunResult(res *pipeline.Result) RunResult {
	r := RunResult{
		Recipe:    res.Recipe.String(),
		State:     res.State(),
		Stage:     res.Stage.String(),
		Status:    res.Status.String(),
		ExitCode:  res.ExitCode,
		Installed: res.Installed,
		Duration:  res.Duration.Round(time.Millisecond).String(),
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
		r.Stdout = res.Stdout
		r.Stderr = res.Stderr
	}
	return r
}

// Returns the process exit code for the run, derived from its status.
func (r RunResult) Code() int {
	s, ok := pipeline.ParseStatus(r.Status)
	if !ok {
		return pipeline.ExitInternal
	}
	return s.ExitCode()
}
