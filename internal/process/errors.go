package process

import "errors"

var (
	ErrStart    = errors.New("process failed to start")
	ErrNotFound = errors.New("executable not found")
	ErrCanceled = errors.New("process canceled")
	ErrExpand   = errors.New("argument expansion failed")
)
