package cli

import (
	"context"
	"io"
	"os"

	"github.com/cruciblehq/kiln/internal"
	"github.com/cruciblehq/kiln/internal/pipeline"
	"github.com/cruciblehq/kiln/internal/protocol"
	"github.com/cruciblehq/kiln/internal/recipe"
)

// Represents the 'kiln build' command.
type BuildCmd struct {
	Recipes     []string `arg:"" name:"recipe" help:"Recipe files." type:"existingfile"`
	Daemon      bool     `help:"Run the build in the daemon instead of this process."`
	RunnerFlags `embed:""`
}

// Executes the build command.
//
// Every recipe file is parsed first; a parse error stops the command before
// anything runs. The exit code reflects the first failed run.
func (c *BuildCmd) Run(ctx context.Context) error {
	if c.Daemon {
		return c.runDaemon(ctx)
	}

	var recipes []*recipe.Recipe
	for _, path := range c.Recipes {
		loaded, err := recipe.Load(path)
		if err != nil {
			return configError(err)
		}
		recipes = append(recipes, loaded...)
	}

	var live io.Writer
	if internal.IsVerbose() {
		live = os.Stderr
	}

	runner := pipeline.New(c.config(live))
	results := runner.RunAll(ctx, recipes, c.Parallel)

	runs := make([]protocol.RunResult, len(results))
	for i, res := range results {
		runs[i] = protocol.NewRunResult(res)
	}
	return report(stdout, os.Stderr, runs, live != nil)
}

// Sends the recipes to the daemon and reports its results.
func (c *BuildCmd) runDaemon(ctx context.Context) error {
	req := &protocol.BuildRequest{Parallel: c.Parallel}
	for _, path := range c.Recipes {
		src, err := os.ReadFile(path)
		if err != nil {
			return configError(err)
		}
		req.Recipes = append(req.Recipes, protocol.RecipeFile{Filename: path, Source: string(src)})
	}

	payload, err := request(ctx, socketPath(), protocol.CmdBuild, req)
	if err != nil {
		return err
	}

	result, err := protocol.DecodePayload[protocol.BuildResult](payload)
	if err != nil {
		return err
	}
	return report(stdout, os.Stderr, result.Runs, false)
}
