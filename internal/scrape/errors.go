package scrape

import (
	"errors"
	"fmt"
)

// ErrNoContainer means no candidate container carried the caption marker.
// Recoverable: the target is skipped and the run continues.
var ErrNoContainer = errors.New("no content container found")

// ErrUnsupportedContentType means the URL shape matched none of the known
// content types. Recoverable per target.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// SessionFatalError wraps a failure of the shared browser session that
// makes processing further targets pointless. It aborts the run.
type SessionFatalError struct {
	Err error
}

func (e *SessionFatalError) Error() string {
	return fmt.Sprintf("browser session failed: %v", e.Err)
}

func (e *SessionFatalError) Unwrap() error { return e.Err }

// IsSessionFatal reports whether err aborts the whole run.
func IsSessionFatal(err error) bool {
	var sf *SessionFatalError
	return errors.As(err, &sf)
}
