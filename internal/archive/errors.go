package archive

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned when no usable 7-Zip executable could be
// located on the host.
var ErrToolNotFound = errors.New("7z executable not found")

// ErrNotInitialized is returned when extraction is requested before a
// successful List call bound the reader to an archive.
var ErrNotInitialized = errors.New("archive reader not initialized")

// ValidationError reports a source file that was rejected before any
// extraction work started.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid archive file %s: %s", e.Path, e.Reason)
}

// ReadError wraps a failed tool invocation or unparsable tool output.
type ReadError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *ReadError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("archive %s failed: %v: %s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("archive %s failed: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
