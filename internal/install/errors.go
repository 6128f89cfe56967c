package install

import "errors"

var (
	ErrInstall         = errors.New("install failed")
	ErrMissingArtifact = errors.New("artifact not found")
	ErrNotRegular      = errors.New("artifact is not a regular file")
)
