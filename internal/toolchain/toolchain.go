package toolchain

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/cruciblehq/kiln/internal/process"
)

const (

	// Fallback C compiler name looked up on PATH.
	defaultCC = "cc"

	// Fallback C++ compiler name looked up on PATH.
	defaultCXX = "c++"

	// Prefix of environment variables naming dependency install prefixes,
	// e.g. KILN_PREFIX_OPENSSL_3 for "openssl@3".
	prefixEnvPrefix = "KILN_PREFIX_"
)

// Compilers and dependency locations for one build.
type Toolchain struct {
	CC       string            // Absolute path of the C compiler.
	CXX      string            // Absolute path of the C++ compiler.
	Jobs     int               // Parallel job hint for the build tool.
	Prefixes map[string]string // Dependency name to install prefix.
}

// Overrides applied on top of the environment during [Resolve].
type Config struct {
	CC       string            // C compiler; empty uses $CC or "cc".
	CXX      string            // C++ compiler; empty uses $CXX or "c++".
	Jobs     int               // Zero uses the number of CPUs.
	Prefixes map[string]string // Dependency prefixes; take precedence over KILN_PREFIX_* variables.
}

// Resolves the toolchain for a build with the given dependencies.
//
// Compilers are taken from cfg, then from CC/CXX in env, then from "cc" and
// "c++" on the PATH in env. A compiler that cannot be resolved to an
// executable fails with [ErrCompilerNotFound]. Dependency prefixes come from
// cfg or from KILN_PREFIX_<NAME> variables; a dependency without a prefix is
// logged and left for the external build to find.
func Resolve(env []string, deps []string, cfg Config) (Toolchain, error) {
	cc, err := compiler(env, "CC", cfg.CC, defaultCC)
	if err != nil {
		return Toolchain{}, err
	}

	cxx, err := compiler(env, "CXX", cfg.CXX, defaultCXX)
	if err != nil {
		return Toolchain{}, err
	}

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	prefixes := make(map[string]string, len(deps))
	for _, dep := range deps {
		if p, ok := cfg.Prefixes[dep]; ok && p != "" {
			prefixes[dep] = p
			continue
		}
		if p, ok := process.Getenv(env, EnvName(dep)); ok && p != "" {
			prefixes[dep] = p
			continue
		}
		slog.Warn("no prefix for build dependency, relying on the build to locate it",
			"dependency", dep,
			"variable", EnvName(dep),
		)
	}

	tc := Toolchain{CC: cc, CXX: cxx, Jobs: jobs, Prefixes: prefixes}
	slog.Debug("resolved toolchain", "cc", tc.CC, "cxx", tc.CXX, "jobs", tc.Jobs, "prefixes", tc.Prefixes)
	return tc, nil
}

// Resolves one compiler from an explicit value, an environment variable, or
// a fallback name, in that order.
func compiler(env []string, key, explicit, fallback string) (string, error) {
	name := explicit
	if name == "" {
		name, _ = process.Getenv(env, key)
	}
	if name == "" {
		name = fallback
	}

	path, err := process.LookPath(name, env)
	if err != nil {
		return "", fmt.Errorf("%w: %s=%s: %w", ErrCompilerNotFound, key, name, err)
	}
	return path, nil
}

// Returns the environment variable naming the prefix of dependency dep.
//
// Letters are uppercased and every other non-alphanumeric character becomes
// an underscore: "openssl@3" maps to KILN_PREFIX_OPENSSL_3.
func EnvName(dep string) string {
	return prefixEnvPrefix + sanitize(dep)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Returns the placeholder variables available to build and test commands.
//
// CC, CXX and JOBS are always present. Each dependency with a known prefix
// contributes PREFIX_<NAME> (e.g. PREFIX_OPENSSL_3).
func (t Toolchain) Vars() map[string]string {
	vars := map[string]string{
		"CC":   t.CC,
		"CXX":  t.CXX,
		"JOBS": strconv.Itoa(t.Jobs),
	}
	for dep, p := range t.Prefixes {
		vars["PREFIX_"+sanitize(dep)] = p
	}
	return vars
}

// Returns the environment entries the toolchain contributes to a build.
//
// Besides CC and CXX, dependency prefixes are exposed through the
// conventional search variables, in sorted dependency order so the result
// is deterministic. Existing values in base are extended, not replaced.
func (t Toolchain) Environ(base []string) []string {
	env := map[string]string{
		"CC":  t.CC,
		"CXX": t.CXX,
	}
	if t.Jobs > 0 {
		env["MAKEFLAGS"] = join(" ", lookup(base, "MAKEFLAGS"), "-j"+strconv.Itoa(t.Jobs))
	}

	if len(t.Prefixes) > 0 {
		var pkgConfig, cppflags, ldflags []string
		for _, dep := range slices.Sorted(maps.Keys(t.Prefixes)) {
			p := t.Prefixes[dep]
			pkgConfig = append(pkgConfig, filepath.Join(p, "lib", "pkgconfig"))
			cppflags = append(cppflags, "-I"+filepath.Join(p, "include"))
			ldflags = append(ldflags, "-L"+filepath.Join(p, "lib"))
		}
		env["PKG_CONFIG_PATH"] = join(string(filepath.ListSeparator), append(pkgConfig, lookup(base, "PKG_CONFIG_PATH"))...)
		env["CPPFLAGS"] = join(" ", append(cppflags, lookup(base, "CPPFLAGS"))...)
		env["LDFLAGS"] = join(" ", append(ldflags, lookup(base, "LDFLAGS"))...)
	}

	for k, v := range t.Vars() {
		if strings.HasPrefix(k, "PREFIX_") {
			env[k] = v
		}
	}

	return process.Environ(env)
}

func lookup(env []string, key string) string {
	v, _ := process.Getenv(env, key)
	return v
}

// Joins the non-empty parts with sep.
func join(sep string, parts ...string) string {
	return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), sep)
}
