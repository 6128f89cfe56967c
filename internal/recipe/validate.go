package recipe

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"

	"github.com/cruciblehq/kiln/internal/verify"
)

// Package names: lowercase alphanumerics plus "@", ".", "_", "+" and "-",
// starting with an alphanumeric (e.g. "openssl@3", "clawsec").
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9@._+-]*$`)

// Checks that the recipe is complete and safe to execute.
//
// All problems are reported together, joined with [errors.Join], each
// wrapping [ErrInvalid]. A placeholder digest additionally wraps
// [verify.ErrPlaceholder] so callers can tell an unfinished recipe apart
// from other configuration mistakes. Validate performs no I/O.
func (r *Recipe) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalid, r.Name, fmt.Sprintf(format, args...)))
	}

	if !namePattern.MatchString(r.Name) {
		fail("name %q must match %s", r.Name, namePattern)
	}

	if err := validateSourceURL(r.URL); err != nil {
		fail("url: %v", err)
	}

	if err := verify.Check(r.Digest); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalid, r.Name, err))
	}

	if r.Version != "" && !ValidVersion(r.Version) {
		fail("version %q is not a semantic version", r.Version)
	}

	seen := make(map[string]bool, len(r.Dependencies))
	for _, dep := range r.Dependencies {
		if !namePattern.MatchString(dep) {
			fail("dependency %q is not a valid package name", dep)
		}
		if seen[dep] {
			fail("dependency %q declared twice", dep)
		}
		seen[dep] = true
	}

	if len(r.Build.Command) == 0 || r.Build.Command[0] == "" {
		fail("build command is empty")
	}
	if r.Build.Dir != "" && !filepath.IsLocal(r.Build.Dir) {
		fail("build dir %q must be a relative path inside the source tree", r.Build.Dir)
	}

	if len(r.Artifacts) == 0 {
		fail("no install entries")
	}
	dests := make(map[string]bool, len(r.Artifacts))
	for _, a := range r.Artifacts {
		if !filepath.IsLocal(a.Path) {
			fail("install path %q must be a relative path inside the build directory", a.Path)
			continue
		}
		if !filepath.IsLocal(a.DestDir()) {
			fail("install dest %q must be a relative path inside the prefix", a.Dest)
			continue
		}
		dst := filepath.Join(a.DestDir(), filepath.Base(a.Path))
		if dests[dst] {
			fail("install destination %q declared twice", dst)
		}
		dests[dst] = true
	}

	if len(r.Test.Command) == 0 || r.Test.Command[0] == "" {
		fail("test command is empty")
	}
	if r.Test.Timeout < 0 {
		fail("test timeout %s is negative", r.Test.Timeout)
	}

	return errors.Join(errs...)
}

// Checks that rawURL is an absolute http or https URL with a host.
func validateSourceURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("missing")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
