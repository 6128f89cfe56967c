package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (

	// Program name, used for logging, paths and the HTTP user agent.
	Name = "kiln"

	// Placeholder for a variable that was not set at link time.
	defaultUndefined = "(undefined)"

	// Version string reported by builds made outside the release pipeline.
	defaultLocalBuild = "(local)"

	// Branch whose builds carry no stage suffix in the version string.
	mainBranch = "main"
)

var (
	version   = "" // Release version, e.g. "1.2.3".
	stage     = "" // Branch the release was cut from, e.g. "main".
	gitCommit = "" // Commit hash, e.g. "a1b2c3d4".

	rawQuiet   = "false" // Quiet mode default.
	rawDebug   = "false" // Debug mode default.
	rawVerbose = "false" // Verbose mode default.
)

// Returns the release version without a leading "v".
//
// Returns "(undefined)" when the version was not set at link time.
func Version() string {
	v := strings.ToLower(strings.TrimSpace(version))
	if v == "" {
		return defaultUndefined
	}
	return strings.TrimPrefix(v, "v")
}

// Returns the lowercased release stage, or "(undefined)".
func Stage() string {
	s := strings.TrimSpace(stage)
	if s == "" {
		return defaultUndefined
	}
	return strings.ToLower(s)
}

// Returns the commit hash, or "(undefined)".
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return defaultUndefined
	}
	return c
}

// Returns true unless version, stage and commit were all set at link time.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" ||
		strings.TrimSpace(gitCommit) == "" ||
		strings.TrimSpace(stage) == ""
}

// Returns a detailed version string.
//
// Local builds report "(local)". Release builds are formatted as
// "<version>[+<stage>] <commit> [<os>/<arch>]", where the stage is omitted
// for the main branch.
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	s := ""
	if Stage() != mainBranch {
		s = "+" + Stage()
	}

	return fmt.Sprintf("%s%s %s [%s/%s]", Version(), s, GitCommit(), runtime.GOOS, runtime.GOARCH)
}

// Returns the User-Agent header sent with source downloads.
func UserAgent() string {
	if IsLocal() {
		return Name + "/dev"
	}
	return Name + "/" + Version()
}
