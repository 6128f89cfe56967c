package recipe

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/opencontainers/go-digest"
	"github.com/zclconf/go-cty/cty"
)

// Top-level layout of a recipe file.
type fileSchema struct {
	Recipes []recipeHeader `hcl:"recipe,block"`
}

// A recipe block before its body is decoded. The body is decoded later,
// once the "name" and "version" variables are known.
type recipeHeader struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Body of a recipe block.
type recipeBody struct {
	Description string         `hcl:"description,optional"`
	Homepage    string         `hcl:"homepage,optional"`
	URL         string         `hcl:"url"`
	Version     string         `hcl:"version,optional"`
	SHA256      string         `hcl:"sha256,optional"`
	Digest      string         `hcl:"digest,optional"`
	License     string         `hcl:"license,optional"`
	DependsOn   []string       `hcl:"depends_on,optional"`
	Build       *buildBlock    `hcl:"build,block"`
	Install     []installBlock `hcl:"install,block"`
	Test        *testBlock     `hcl:"test,block"`
}

type buildBlock struct {
	Dir     string            `hcl:"dir,optional"`
	Command []string          `hcl:"command"`
	Env     map[string]string `hcl:"env,optional"`
}

type installBlock struct {
	Path string `hcl:"path"`
	Dest string `hcl:"dest,optional"`
}

type testBlock struct {
	Command []string `hcl:"command"`
	Timeout string   `hcl:"timeout,optional"`
}

// Attributes evaluated ahead of the full body to seed the "version" variable.
var headerSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "version"},
		{Name: "url"},
	},
}

// Reads and decodes every recipe in the HCL file at path.
//
// The returned recipes are not validated.
func Load(path string) ([]*Recipe, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return Parse(src, path)
}

// Decodes every recipe in src. The filename is used in diagnostics and
// recorded as [Recipe.Source].
//
// The returned recipes are not validated.
func Parse(src []byte, filename string) ([]*Recipe, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrParse, diags.Error())
	}

	var parsed fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrParse, diags.Error())
	}

	if len(parsed.Recipes) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRecipe, filename)
	}

	recipes := make([]*Recipe, 0, len(parsed.Recipes))
	seen := make(map[string]bool, len(parsed.Recipes))

	for _, h := range parsed.Recipes {
		if seen[h.Name] {
			return nil, fmt.Errorf("%w: duplicate recipe %q in %s", ErrParse, h.Name, filename)
		}
		seen[h.Name] = true

		r, err := decodeRecipe(h)
		if err != nil {
			return nil, err
		}
		r.Source = filename
		recipes = append(recipes, r)
	}

	return recipes, nil
}

// Decodes a single recipe block.
func decodeRecipe(h recipeHeader) (*Recipe, error) {
	version, err := resolveVersion(h)
	if err != nil {
		return nil, err
	}

	ctx := evalContext(h.Name, version)

	var body recipeBody
	if diags := gohcl.DecodeBody(h.Body, ctx, &body); diags.HasErrors() {
		return nil, fmt.Errorf("%w: recipe %q: %s", ErrParse, h.Name, diags.Error())
	}

	r := &Recipe{
		Name:         h.Name,
		Description:  body.Description,
		Homepage:     body.Homepage,
		URL:          body.URL,
		Version:      version,
		License:      body.License,
		Dependencies: body.DependsOn,
	}

	d, err := digestOf(body)
	if err != nil {
		return nil, fmt.Errorf("%w: recipe %q: %w", ErrParse, h.Name, err)
	}
	r.Digest = d

	if body.Build != nil {
		r.Build = Build{Dir: body.Build.Dir, Command: body.Build.Command, Env: body.Build.Env}
	}

	for _, in := range body.Install {
		r.Artifacts = append(r.Artifacts, Artifact{Path: in.Path, Dest: in.Dest})
	}

	if body.Test != nil {
		r.Test.Command = body.Test.Command
		if body.Test.Timeout != "" {
			timeout, err := parseDuration(body.Test.Timeout)
			if err != nil {
				return nil, fmt.Errorf("%w: recipe %q: test timeout: %w", ErrParse, h.Name, err)
			}
			r.Test.Timeout = timeout
		}
	}

	return r, nil
}

// Determines the value of the "version" variable for a recipe.
//
// An explicit version attribute wins and may reference "name". Otherwise the
// url attribute is evaluated with only "name" in scope and the version is
// derived from it. A url that cannot be evaluated this way (for example
// because it references "version") leaves the version empty; the full
// decode then reports the problem.
func resolveVersion(h recipeHeader) (string, error) {
	content, _, diags := h.Body.PartialContent(headerSchema)
	if diags.HasErrors() {
		return "", fmt.Errorf("%w: recipe %q: %s", ErrParse, h.Name, diags.Error())
	}

	ctx := evalContext(h.Name, "")

	if attr, ok := content.Attributes["version"]; ok {
		var v string
		if diags := gohcl.DecodeExpression(attr.Expr, ctx, &v); diags.HasErrors() {
			return "", fmt.Errorf("%w: recipe %q: %s", ErrParse, h.Name, diags.Error())
		}
		return normalizeVersion(v), nil
	}

	if attr, ok := content.Attributes["url"]; ok {
		var u string
		if diags := gohcl.DecodeExpression(attr.Expr, ctx, &u); !diags.HasErrors() {
			return VersionFromURL(u), nil
		}
	}

	return "", nil
}

// Builds the evaluation context exposing "name" and "version".
func evalContext(name, version string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"name":    cty.StringVal(name),
			"version": cty.StringVal(version),
		},
	}
}

// Returns the expected digest declared by either "digest" or the "sha256"
// shorthand.
//
// Both attributes at once is an error. The value is returned even when it
// is a placeholder or malformed; [Recipe.Validate] decides whether it is
// usable so that the error is reported as a configuration problem.
func digestOf(body recipeBody) (digest.Digest, error) {
	sha := strings.TrimSpace(body.SHA256)
	full := strings.TrimSpace(body.Digest)

	switch {
	case sha != "" && full != "":
		return "", fmt.Errorf("only one of \"sha256\" and \"digest\" may be set")
	case sha != "":
		return digest.NewDigestFromEncoded(digest.SHA256, strings.ToLower(sha)), nil
	case full != "":
		alg, enc, ok := strings.Cut(full, ":")
		if !ok {
			return digest.Digest(full), nil
		}
		return digest.NewDigestFromEncoded(digest.Algorithm(strings.ToLower(alg)), strings.ToLower(enc)), nil
	}

	return "", nil
}
