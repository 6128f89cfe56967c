package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruciblehq/kiln/internal/paths"
	"github.com/cruciblehq/kiln/internal/toolchain"
)

// Name of the extracted source tree inside a run's scratch directory.
const workDirName = "work"

// Resources owned by a single run.
//
// A Context is created at build start and never shared. [Context.Close]
// removes everything it holds.
type Context struct {
	Dir       string              // Scratch directory.
	Archive   string              // Downloaded archive, once fetched.
	Workdir   string              // Extraction directory, once the archive is verified.
	Source    string              // Root of the extracted source tree.
	Toolchain toolchain.Toolchain // Resolved toolchain.
}

// Creates a scratch directory for name under cacheDir.
func newContext(cacheDir, name string, tc toolchain.Toolchain) (*Context, error) {
	if err := os.MkdirAll(cacheDir, paths.DefaultDirMode); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(cacheDir, "run-"+name+"-*")
	if err != nil {
		return nil, err
	}

	return &Context{Dir: dir, Toolchain: tc}, nil
}

// Creates the extraction directory. Called only after verification.
func (c *Context) mkWorkdir() error {
	c.Workdir = filepath.Join(c.Dir, workDirName)
	if err := os.Mkdir(c.Workdir, paths.DefaultDirMode); err != nil {
		return fmt.Errorf("creating working directory: %w", err)
	}
	return nil
}

// Removes the scratch directory and everything in it.
func (c *Context) Close() error {
	if err := os.RemoveAll(c.Dir); err != nil {
		slog.Warn("removing scratch directory", "dir", c.Dir, "error", err)
		return err
	}
	return nil
}
