package vadecode

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedProfile is returned when the accelerator does not advertise a profile.
	ErrUnsupportedProfile = errors.New("vadecode: unsupported profile")

	// ErrNotOpen is returned when a session operation needs an open config.
	ErrNotOpen = errors.New("vadecode: session not open")

	// ErrNoContext is returned when a session operation needs a decode context.
	ErrNoContext = errors.New("vadecode: session has no context")

	// ErrMissingReference is returned when a required reference picture is absent
	// and the missing-reference policy does not allow a substitute.
	ErrMissingReference = errors.New("vadecode: missing reference picture")

	// ErrAllocation is returned when the output surface pool is exhausted.
	ErrAllocation = errors.New("vadecode: surface pool exhausted")

	// ErrNoSequence is returned when a picture arrives before any sequence header.
	ErrNoSequence = errors.New("vadecode: picture before sequence header")

	// ErrStreamFailed is returned for every unit after a session-fatal error
	// until the stream is reset.
	ErrStreamFailed = errors.New("vadecode: stream failed")

	// ErrDriver matches every *DriverError with errors.Is.
	ErrDriver = errors.New("vadecode: driver error")
)

// DriverError reports a failed accelerator call.
type DriverError struct {
	Op  string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("vadecode: %s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDriver) true for any DriverError.
func (e *DriverError) Is(target error) bool { return target == ErrDriver }

// SessionError marks a failure of the session itself (open, close, context or
// pool creation). It is fatal for the stream.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("vadecode: session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// PictureError reports a dropped picture. Decoding continues with the next unit.
type PictureError struct {
	FrameID uint64
	Stage   string
	Err     error
}

func (e *PictureError) Error() string {
	return fmt.Sprintf("vadecode: frame %d dropped in %s: %v", e.FrameID, e.Stage, e.Err)
}

func (e *PictureError) Unwrap() error { return e.Err }

// StreamError reports a failure that ends the stream.
type StreamError struct {
	FrameID uint64
	Stage   string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("vadecode: stream failed at frame %d in %s: %v", e.FrameID, e.Stage, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// IsFatal reports whether err ends the stream rather than a single picture.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var se *StreamError
	return errors.As(err, &se) || errors.Is(err, ErrStreamFailed)
}

// isSessionScoped reports whether a hook error originates from the session
// rather than from the picture being built.
func isSessionScoped(err error) bool {
	var se *SessionError
	return errors.As(err, &se) ||
		errors.Is(err, ErrUnsupportedProfile) ||
		errors.Is(err, ErrNoSequence) ||
		errors.Is(err, ErrNotOpen)
}
