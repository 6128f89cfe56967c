package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pelletier/go-toml/v2"
)

// Loads a TOML config file as a kong resolver.
//
// Top-level keys are flag names, with "-" or "_" as word separator. Tables
// map onto map flags and arrays onto slice flags. Values are handed to kong
// as strings so they are decoded exactly like command line values.
func tomlLoader(r io.Reader) (kong.Resolver, error) {
	var values map[string]any
	if err := toml.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigFile, err)
	}

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		v, ok := lookup(values, flag.Name)
		if !ok {
			return nil, nil
		}
		return flagValue(v, flag), nil
	}), nil
}

// Returns the value stored under name or its snake_case spelling.
func lookup(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	v, ok := values[strings.ReplaceAll(name, "-", "_")]
	return v, ok
}

// Renders a decoded TOML value in command line syntax.
func flagValue(v any, flag *kong.Flag) string {
	switch v := v.(type) {
	case map[string]any:
		sep := ";"
		if flag.Tag != nil && flag.Tag.MapSep != 0 {
			sep = string(flag.Tag.MapSep)
		}
		pairs := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			pairs = append(pairs, k+"="+fmt.Sprint(v[k]))
		}
		return strings.Join(pairs, sep)

	case []any:
		sep := ","
		if flag.Tag != nil && flag.Tag.Sep != 0 {
			sep = string(flag.Tag.Sep)
		}
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprint(item)
		}
		return strings.Join(items, sep)

	default:
		return fmt.Sprint(v)
	}
}
