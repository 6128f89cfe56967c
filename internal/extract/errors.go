package extract

import "errors"

var (
	ErrExtract           = errors.New("extract failed")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrPathTraversal     = errors.New("archive entry escapes destination")
	ErrUnsupportedEntry  = errors.New("unsupported archive entry type")
	ErrTooLarge          = errors.New("archive content exceeds size limit")
)
