package verify

import "errors"

var (
	ErrMismatch             = errors.New("digest mismatch")
	ErrPlaceholder          = errors.New("digest is a placeholder")
	ErrInvalidDigest        = errors.New("invalid digest")
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")
)
