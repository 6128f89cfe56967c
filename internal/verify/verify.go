package verify

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Substrings that mark a digest as not yet filled in.
var placeholderMarkers = []string{"replace", "placeholder", "todo", "fixme", "xxx"}

// Reports a digest that does not match the file content.
type MismatchError struct {
	Path     string        // File that was hashed.
	Expected digest.Digest // Digest declared by the recipe.
	Actual   digest.Digest // Digest computed from the file.
}

// Returns both digests so the recipe can be corrected.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("digest mismatch for %s\nexpected: %s\nactual:   %s", e.Path, e.Expected, e.Actual)
}

// Returns [ErrMismatch].
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Reports whether d is a sentinel standing in for a real digest.
//
// Empty values, values containing a marker word such as "REPLACE" or "TODO"
// and encoded values made only of zeros are placeholders. The check looks at
// the encoded part so "sha256:REPLACE_WITH_ACTUAL_SHA256" is caught as well as
// the bare sentinel.
func IsPlaceholder(d digest.Digest) bool {
	s := strings.TrimSpace(string(d))
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return true
	}

	lower := strings.ToLower(s)
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}

	return strings.Trim(s, "0") == ""
}

// Checks that d is a usable expected digest.
//
// Placeholders yield [ErrPlaceholder]. Unknown algorithms yield
// [ErrUnsupportedAlgorithm]; malformed encodings yield [ErrInvalidDigest].
func Check(d digest.Digest) error {
	if IsPlaceholder(d) {
		return fmt.Errorf("%w: %q", ErrPlaceholder, string(d))
	}

	if err := d.Validate(); err != nil {
		if errors.Is(err, digest.ErrDigestUnsupported) {
			return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, d.Algorithm())
		}
		return fmt.Errorf("%w: %q: %w", ErrInvalidDigest, string(d), err)
	}

	return nil
}

// Computes the digest of the file at path with the given algorithm.
//
// The file is streamed through the hash, so archives of any size are handled
// without loading them into memory.
func Compute(path string, alg digest.Algorithm) (digest.Digest, error) {
	if !alg.Available() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	d, err := alg.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return d, nil
}

// Verifies the file at path against the expected digest.
//
// The algorithm is taken from expected. Returns nil only when the computed
// digest equals expected; every other outcome is an error and the file must
// not be used.
func Verify(path string, expected digest.Digest) error {
	if err := Check(expected); err != nil {
		return err
	}

	actual, err := Compute(path, expected.Algorithm())
	if err != nil {
		return err
	}

	if !Equal(expected, actual) {
		return &MismatchError{Path: path, Expected: expected, Actual: actual}
	}
	return nil
}

// Compares two digests in constant time with respect to the encoded value.
//
// Encoded values are compared case-insensitively, matching how checksums are
// usually copied from release pages.
func Equal(a, b digest.Digest) bool {
	if a.Algorithm() != b.Algorithm() {
		return false
	}
	ea := []byte(strings.ToLower(a.Encoded()))
	eb := []byte(strings.ToLower(b.Encoded()))
	return subtle.ConstantTimeCompare(ea, eb) == 1
}
