// Package verify checks downloaded archives against their pinned digest.
//
// The expected value is an OCI-style digest ("sha256:<hex>"), so the hash
// algorithm travels with the value. [Verify] hashes the full file content and
// compares the encoded result in constant time. A mismatch is reported as a
// [*MismatchError] wrapping [ErrMismatch].
//
// Unfilled digests are rejected outright. Recipes are commonly committed with
// a sentinel such as "REPLACE_WITH_ACTUAL_SHA256" and a build must never run
// from content that was not checked against a real value, so [Verify] fails
// with [ErrPlaceholder] instead of skipping the comparison.
//
// Example usage:
//
//	if err := verify.Verify(archive, r.Digest); err != nil {
//	    return err
//	}
package verify
