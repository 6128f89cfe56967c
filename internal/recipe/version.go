package recipe

import (
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Archive suffixes stripped before looking for a version in a URL.
var archiveSuffixes = []string{".tar.gz", ".tgz", ".tar.zst", ".tzst", ".tar"}

// Dotted numeric version, optionally with a pre-release suffix.
var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+(?:-[0-9A-Za-z.]+)?`)

// Derives a version from a source archive URL.
//
// The last dotted version found in the final path segment wins, so both
// ".../archive/refs/tags/v2.0.0.tar.gz" and ".../clawsec-2.0.0.tar.gz" yield
// "2.0.0". Returns "" when no version can be found.
func VersionFromURL(rawURL string) string {
	u := rawURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}

	stem := path.Base(u)
	for _, s := range archiveSuffixes {
		if strings.HasSuffix(stem, s) {
			stem = strings.TrimSuffix(stem, s)
			break
		}
	}

	matches := versionPattern.FindAllString(stem, -1)
	if len(matches) == 0 {
		return ""
	}
	return normalizeVersion(matches[len(matches)-1])
}

// Returns true if v is a semantic version, with or without a "v" prefix.
//
// Short forms such as "1.2" are accepted.
func ValidVersion(v string) bool {
	return semver.IsValid("v" + normalizeVersion(v))
}

// Trims surrounding space and a leading "v".
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') && v[1] >= '0' && v[1] <= '9' {
		return v[1:]
	}
	return v
}

// Parses a duration such as "30s" or "2m".
func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(strings.TrimSpace(s))
}
