package xerrors

import "errors"

// Common reusable application errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrMalformedInput = errors.New("malformed input")
)
