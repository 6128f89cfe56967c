package protocol

import "errors"

var (
	ErrDecode  = errors.New("malformed message")
	ErrVersion = errors.New("unsupported protocol version")
)
