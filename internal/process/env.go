package process

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Merges override entries on top of a base environment.
//
// Entries are "KEY=value"; malformed entries without "=" are dropped. The
// result is sorted by key so that identical inputs always produce identical
// environments.
func MergeEnv(base []string, overrides ...[]string) []string {
	merged := make(map[string]string, len(base))
	apply := func(entries []string) {
		for _, entry := range entries {
			if k, v, ok := strings.Cut(entry, "="); ok && k != "" {
				merged[k] = v
			}
		}
	}
	apply(base)
	for _, o := range overrides {
		apply(o)
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// Returns the value of key in env, and whether it is set.
//
// When a key appears more than once the last entry wins, matching how
// [os/exec] treats duplicate entries.
func Getenv(env []string, key string) (string, bool) {
	var (
		val   string
		found bool
	)
	for _, entry := range env {
		if k, v, ok := strings.Cut(entry, "="); ok && k == key {
			val, found = v, true
		}
	}
	return val, found
}

// Converts a map into "KEY=value" entries, sorted by key.
func Environ(m map[string]string) []string {
	env := make([]string, 0, len(m))
	for k, v := range m {
		env = append(env, k+"="+v)
	}
	slices.Sort(env)
	return env
}

// Resolves name to an executable path using the PATH found in env.
//
// Names containing a path separator are checked directly and not searched.
// Returns [ErrNotFound] when nothing executable matches.
func LookPath(name string, env []string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	pathList, _ := Getenv(env, "PATH")
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			if !filepath.IsAbs(candidate) {
				if abs, err := filepath.Abs(candidate); err == nil {
					candidate = abs
				}
			}
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s not in PATH", ErrNotFound, name)
}

// Reports whether path is a regular file with an execute bit set.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
