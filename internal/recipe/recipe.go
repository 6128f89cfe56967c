package recipe

import (
	"slices"
	"time"

	"github.com/opencontainers/go-digest"
)

// Destination subdirectory used when an install entry declares none.
const DefaultInstallDest = "bin"

// Declarative description of how to fetch, build, install and test one
// package.
//
// Values are produced by [Parse] or [Load] and must be treated as read-only;
// pipeline stages share a single Recipe.
type Recipe struct {
	Name         string        // Package name, also the install lock key.
	Description  string        // One-line summary.
	Homepage     string        // Project homepage.
	URL          string        // Source archive URL (http or https).
	Version      string        // Declared or URL-derived version, without a "v" prefix.
	Digest       digest.Digest // Expected digest of the source archive.
	License      string        // SPDX license identifier.
	Dependencies []string      // Build dependency names, in declaration order.
	Build        Build         // Build command.
	Artifacts    []Artifact    // Files to install, in declaration order.
	Test         Test          // Post-install smoke test.
	Source       string        // File the recipe was read from, if any.
}

// External build invocation.
type Build struct {
	Dir     string            // Subdirectory of the source tree to run in.
	Command []string          // Program and arguments; may contain $CC, $CXX and similar placeholders.
	Env     map[string]string // Extra environment for the build.
}

// A produced file to install.
type Artifact struct {
	Path string // Path relative to the build directory.
	Dest string // Destination subdirectory of the install prefix.
}

// Post-install smoke test.
type Test struct {
	Command []string      // Program and arguments. A bare program name matching an installed artifact runs the installed copy.
	Timeout time.Duration // Zero means the pipeline default.
}

// Returns the destination directory, defaulting to [DefaultInstallDest].
func (a Artifact) DestDir() string {
	if a.Dest == "" {
		return DefaultInstallDest
	}
	return a.Dest
}

// Returns a deep copy of the recipe.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.Dependencies = slices.Clone(r.Dependencies)
	c.Build.Command = slices.Clone(r.Build.Command)
	if r.Build.Env != nil {
		c.Build.Env = make(map[string]string, len(r.Build.Env))
		for k, v := range r.Build.Env {
			c.Build.Env[k] = v
		}
	}
	c.Artifacts = slices.Clone(r.Artifacts)
	c.Test.Command = slices.Clone(r.Test.Command)
	return &c
}

// Returns "<name> <version>", or just the name when no version is known.
func (r *Recipe) String() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + " " + r.Version
}
