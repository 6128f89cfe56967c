package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cruciblehq/kiln/internal/pipeline"
	"github.com/cruciblehq/kiln/internal/recipe"
)

// Represents the 'kiln check' command.
type CheckCmd struct {
	Recipes []string `arg:"" name:"recipe" help:"Recipe files." type:"existingfile"`
}

// Executes the check command.
//
// Parses and validates every recipe and prints what it declares. Nothing is
// fetched or built. All invalid recipes are reported, not just the first.
func (c *CheckCmd) Run(ctx context.Context) error {
	var errs []error
	for _, path := range c.Recipes {
		recipes, err := recipe.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, r := range recipes {
			describe(stdout, r)
			if err := r.Validate(); err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintln(stdout, "  ok")
		}
	}

	if len(errs) > 0 {
		return configError(errors.Join(errs...))
	}
	return nil
}

// Prints the declared fields of a recipe.
func describe(w io.Writer, r *recipe.Recipe) {
	fmt.Fprintf(w, "%s\n", r)
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %-12s %s\n", name+":", value)
		}
	}
	field("description", r.Description)
	field("homepage", r.Homepage)
	field("license", r.License)
	field("url", r.URL)
	field("digest", r.Digest.String())
	field("depends on", strings.Join(r.Dependencies, ", "))
	if r.Build.Dir != "" {
		field("build", fmt.Sprintf("(cd %s) %s", r.Build.Dir, strings.Join(r.Build.Command, " ")))
	} else {
		field("build", strings.Join(r.Build.Command, " "))
	}
	for _, a := range r.Artifacts {
		field("install", a.Path+" -> "+a.DestDir())
	}
	field("test", strings.Join(r.Test.Command, " "))
}

// Classifies err as a configuration error for the exit code.
func configError(err error) error {
	if errors.Is(err, pipeline.ErrConfig) {
		return err
	}
	return fmt.Errorf("%w: %w", pipeline.ErrConfig, err)
}
