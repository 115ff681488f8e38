package source

import "errors"

var (
	// ErrWalkFailed indicates traversal of the project directory failed.
	ErrWalkFailed = errors.New("project directory walk failed")

	// ErrReadFailed indicates reading a source file failed.
	ErrReadFailed = errors.New("source file read failed")

	// ErrNotUTF8 indicates a source file is not valid UTF-8 text.
	ErrNotUTF8 = errors.New("source file is not valid UTF-8")

	// ErrUnknownSource indicates the configured data source shortname is not registered.
	ErrUnknownSource = errors.New("unknown data source")
)
