package cli

import (
	"io"
	"os"
	"time"

	"github.com/cruciblehq/kiln/internal/fetch"
	"github.com/cruciblehq/kiln/internal/paths"
	"github.com/cruciblehq/kiln/internal/pipeline"
	"github.com/cruciblehq/kiln/internal/smoke"
	"github.com/cruciblehq/kiln/internal/toolchain"
)

// Settings for running recipes, shared by 'kiln build' and 'kiln start'.
type RunnerFlags struct {
	Prefix       string            `help:"Install prefix." env:"KILN_INSTALL_PREFIX" placeholder:"DIR" type:"path"`
	Cache        string            `help:"Directory for downloads and build trees." env:"KILN_CACHE" placeholder:"DIR" type:"path"`
	FetchTimeout time.Duration     `help:"Download timeout." env:"KILN_FETCH_TIMEOUT" default:"${fetch_timeout}"`
	SmokeTimeout time.Duration     `help:"Smoke test timeout for recipes that set none." env:"KILN_SMOKE_TIMEOUT" default:"${smoke_timeout}"`
	Jobs         int               `short:"j" help:"Parallel job hint passed to the build. Zero uses the number of CPUs." env:"KILN_JOBS"`
	Parallel     int               `short:"p" help:"Recipes to run concurrently." env:"KILN_PARALLEL" default:"1"`
	CC           string            `name:"cc" help:"C compiler. Defaults to the CC environment variable, then cc." placeholder:"PATH"`
	CXX          string            `name:"cxx" help:"C++ compiler. Defaults to the CXX environment variable, then c++." placeholder:"PATH"`
	DepPrefix    map[string]string `name:"dep-prefix" help:"Install prefix of a build dependency. Also read from KILN_PREFIX_<NAME>." placeholder:"NAME=DIR"`
}

// Default values substituted into flag tags.
var flagVars = map[string]string{
	"fetch_timeout": fetch.DefaultTimeout.String(),
	"smoke_timeout": smoke.DefaultTimeout.String(),
}

// Returns the install prefix, falling back to the XDG default.
func (f *RunnerFlags) prefix() string {
	if f.Prefix != "" {
		return f.Prefix
	}
	return paths.Prefix()
}

// Returns the cache directory, falling back to the XDG default.
func (f *RunnerFlags) cache() string {
	if f.Cache != "" {
		return f.Cache
	}
	return paths.Cache()
}

// Builds the pipeline configuration. Live output goes to out when non-nil.
func (f *RunnerFlags) config(out io.Writer) pipeline.Config {
	return pipeline.Config{
		Prefix:       f.prefix(),
		CacheDir:     f.cache(),
		FetchTimeout: f.FetchTimeout,
		SmokeTimeout: f.SmokeTimeout,
		Toolchain: toolchain.Config{
			CC:       f.CC,
			CXX:      f.CXX,
			Jobs:     f.Jobs,
			Prefixes: f.DepPrefix,
		},
		Environ: os.Environ(),
		Stdout:  out,
		Stderr:  out,
	}
}
