package cli

import "errors"

var (
	ErrConfigFile = errors.New("invalid config file")
	ErrDaemon     = errors.New("daemon request failed")
)
