package build

import (
	"maps"
	"slices"

	"github.com/cruciblehq/kiln/internal/process"
	"github.com/cruciblehq/kiln/internal/toolchain"
)

// Layers the environment a build command sees.
//
// Later layers override earlier ones: the base environment, the toolchain
// variables, and finally the recipe's own entries. Recipe values may refer
// to toolchain variables ("CFLAGS=-I$PREFIX_ZLIB/include") and are expanded
// against the layers beneath them.
func environ(base []string, tc toolchain.Toolchain, recipeEnv map[string]string) ([]string, error) {
	env := process.MergeEnv(base, process.Environ(tc.Vars()), tc.Environ(base))

	if len(recipeEnv) == 0 {
		return env, nil
	}

	keys := slices.Sorted(maps.Keys(recipeEnv))
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = recipeEnv[k]
	}

	expanded, err := process.Expand(values, env)
	if err != nil {
		return nil, err
	}

	overrides := make([]string, len(keys))
	for i, k := range keys {
		overrides[i] = k + "=" + expanded[i]
	}
	return process.MergeEnv(env, overrides), nil
}
