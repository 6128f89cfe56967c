package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/moby/locker"
	"golang.org/x/sync/errgroup"

	"github.com/cruciblehq/kiln/internal"
	"github.com/cruciblehq/kiln/internal/build"
	"github.com/cruciblehq/kiln/internal/extract"
	"github.com/cruciblehq/kiln/internal/fetch"
	"github.com/cruciblehq/kiln/internal/install"
	"github.com/cruciblehq/kiln/internal/recipe"
	"github.com/cruciblehq/kiln/internal/smoke"
	"github.com/cruciblehq/kiln/internal/toolchain"
	"github.com/cruciblehq/kiln/internal/verify"
)

// Settings shared by every run of a [Runner].
type Config struct {
	Prefix       string           // Install prefix.
	CacheDir     string           // Parent of per-run scratch directories.
	FetchTimeout time.Duration    // Zero uses [fetch.DefaultTimeout].
	MaxDownload  int64            // Zero uses [fetch.DefaultMaxBytes].
	SmokeTimeout time.Duration    // Used when a recipe sets none; zero uses [smoke.DefaultTimeout].
	Limits       extract.Limits   // Extraction size bounds.
	Toolchain    toolchain.Config // Compiler and dependency prefix overrides.
	Environ      []string         // Base environment for builds and smoke tests.
	Stdout       io.Writer        // Optional live copy of external command output.
	Stderr       io.Writer        // Optional live copy of external command errors.
	Fetcher      *fetch.Fetcher   // Optional; built from the timeout and size settings when nil.
}

// Executes recipes against one install prefix.
//
// A Runner is safe for concurrent use. Installs of the same package name
// never overlap.
type Runner struct {
	cfg     Config
	fetcher *fetch.Fetcher
	locks   *locker.Locker
}

// Creates a [Runner].
func New(cfg Config) *Runner {
	f := cfg.Fetcher
	if f == nil {
		f = fetch.New(
			fetch.WithTimeout(cfg.FetchTimeout),
			fetch.WithMaxBytes(cfg.MaxDownload),
			fetch.WithUserAgent(internal.UserAgent()),
		)
	}
	return &Runner{
		cfg:     cfg,
		fetcher: f,
		locks:   locker.New(),
	}
}

// Runs every recipe, at most parallel at a time, and returns the results in
// input order.
//
// A failing run does not stop the others. Non-positive parallel runs all
// recipes at once.
func (r *Runner) RunAll(ctx context.Context, recipes []*recipe.Recipe, parallel int) []*Result {
	results := make([]*Result, len(recipes))

	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, rcp := range recipes {
		g.Go(func() error {
			results[i] = r.Run(ctx, rcp)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Runs a single recipe through the pipeline.
//
// The returned result is never nil. On failure its Err is a [*StageError]
// and, for build and smoke test failures, Stdout, Stderr and ExitCode hold
// the external command's output verbatim.
func (r *Runner) Run(ctx context.Context, rcp *recipe.Recipe) *Result {
	start := time.Now()
	res := &Result{Recipe: rcp, Stage: StagePending}
	defer func() {
		res.Duration = time.Since(start)
		if res.Err != nil {
			slog.Error("run aborted", "recipe", rcp.String(), "state", res.State(), "stage", res.Stage, "error", res.Err)
			return
		}
		slog.Info("run finished", "recipe", rcp.String(), "state", res.State(), "duration", res.Duration)
	}()

	logger := slog.With("recipe", rcp.String())
	logger.Info("starting run", "url", rcp.URL)

	if err := rcp.Validate(); err != nil {
		stage := StagePending
		if errors.Is(err, verify.ErrPlaceholder) {
			stage = StageVerified
		}
		return res.fail(stage, StatusConfigError, err)
	}

	tc, err := toolchain.Resolve(r.cfg.Environ, rcp.Dependencies, r.cfg.Toolchain)
	if err != nil {
		return res.fail(StagePending, StatusConfigError, err)
	}

	rc, err := newContext(r.cfg.CacheDir, rcp.Name, tc)
	if err != nil {
		return res.fail(StagePending, StatusConfigError, err)
	}
	defer rc.Close()

	// Fetch
	rc.Archive, err = r.fetcher.Fetch(ctx, rcp.URL, rc.Dir)
	if err != nil {
		return res.fail(StageFetched, StatusFetchError, err)
	}
	res.Stage = StageFetched

	// Verify
	if err := verify.Verify(rc.Archive, rcp.Digest); err != nil {
		status := StatusVerificationFailed
		if errors.Is(err, verify.ErrPlaceholder) || errors.Is(err, verify.ErrInvalidDigest) || errors.Is(err, verify.ErrUnsupportedAlgorithm) {
			status = StatusConfigError
		}
		return res.fail(StageVerified, status, err)
	}
	res.Stage = StageVerified
	logger.Info("archive verified", "digest", rcp.Digest)

	// Extract
	if err := rc.mkWorkdir(); err != nil {
		return res.fail(StageExtracted, StatusExtractError, err)
	}
	manifest, err := extract.ExtractWithLimits(rc.Archive, rc.Workdir, r.cfg.Limits)
	if err != nil {
		return res.fail(StageExtracted, StatusExtractError, err)
	}
	rc.Source = rc.Workdir
	if root, ok := manifest.Root(); ok {
		rc.Source = filepath.Join(rc.Workdir, root)
	}
	res.Stage = StageExtracted
	logger.Debug("archive extracted", "format", manifest.Format, "entries", manifest.Entries, "files", manifest.Files)

	// Build
	built, err := build.Run(ctx, build.Options{
		Root:      rc.Source,
		Dir:       rcp.Build.Dir,
		Command:   rcp.Build.Command,
		Env:       rcp.Build.Env,
		Toolchain: rc.Toolchain,
		Environ:   r.cfg.Environ,
		Stdout:    r.cfg.Stdout,
		Stderr:    r.cfg.Stderr,
	})
	if built != nil {
		res.captured(built.ExitCode, built.Stdout, built.Stderr)
	}
	if err != nil {
		status := StatusBuildFailed
		if errors.Is(err, build.ErrExpand) {
			status = StatusConfigError
		}
		return res.fail(StageBuilt, status, err)
	}
	res.Stage = StageBuilt

	// Install
	installed, err := r.install(rcp, built.Dir)
	if err != nil {
		return res.fail(StageInstalled, StatusInstallFailed, err)
	}
	res.Installed = installed
	res.Stage = StageInstalled

	// Test
	timeout := rcp.Test.Timeout
	if timeout == 0 {
		timeout = r.cfg.SmokeTimeout
	}
	tested, err := smoke.Run(ctx, smoke.Options{
		Command:   rcp.Test.Command,
		Installed: installed,
		Prefix:    r.cfg.Prefix,
		Timeout:   timeout,
		Environ:   r.cfg.Environ,
		Stdout:    r.cfg.Stdout,
		Stderr:    r.cfg.Stderr,
	})
	if tested != nil {
		res.captured(tested.ExitCode, tested.Stdout, tested.Stderr)
	}
	if err != nil {
		return res.fail(StageTested, StatusSmokeTestFailed, err)
	}
	res.Stage = StageTested
	res.Status = StatusSuccess

	return res
}

// Installs artifacts from dir while holding the lock for the package name.
func (r *Runner) install(rcp *recipe.Recipe, dir string) ([]string, error) {
	r.locks.Lock(rcp.Name)
	defer r.locks.Unlock(rcp.Name)

	return install.Install(dir, rcp.Artifacts, r.cfg.Prefix)
}

// Records the output of the last external command.
func (res *Result) captured(exitCode int, stdout, stderr string) {
	res.ExitCode = exitCode
	res.Stdout = stdout
	res.Stderr = stderr
}

// Marks the run as aborted at stage and returns it.
func (res *Result) fail(stage Stage, status Status, err error) *Result {
	res.Stage = stage
	res.Status = status
	res.Err = &StageError{
		Recipe: res.Recipe.String(),
		Stage:  stage,
		Status: status,
		Err:    err,
	}
	return res
}
