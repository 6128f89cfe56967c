package toolchain

import "errors"

var (
	ErrCompilerNotFound = errors.New("compiler not found")
)
