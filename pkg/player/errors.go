package player

import (
	"errors"
	"fmt"

	"github.com/user/mediaplay/pkg/ports"
)

// Start and Seek failures. Errors carrying an engine status are *Error values
// whose Kind is one of these.
var (
	ErrUnsupportedCaptureBackend = errors.New("player: capture backend not available")
	ErrOpenFailed                = errors.New("player: open input failed")
	ErrProbeFailed               = errors.New("player: probe failed")
	ErrNoVideoStream             = errors.New("player: no video stream")
	ErrDecoderNotFound           = errors.New("player: decoder not found")
	ErrDecoderOpenFailed         = errors.New("player: decoder open failed")
	ErrConverterInitFailed       = errors.New("player: converter init failed")
	ErrSchedulerFailed           = errors.New("player: scheduler registration failed")
	ErrSessionActive             = errors.New("player: session already active")
	ErrSeekFailed                = errors.New("player: seek failed")
	ErrEngineInitFailed          = errors.New("player: engine init failed")
)

// Error is a categorized failure with the engine's numeric status.
type Error struct {
	Kind error
	Code int
	Err  error
}

func newError(kind, err error) *Error {
	code := 0
	if err != nil {
		code = ports.StatusCode(err)
	}
	return &Error{Kind: kind, Code: code, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Kind.Error()
	case e.Code != 0 && e.Code != ports.CodeUnknown:
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.Code, e.Err)
	default:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code returns the engine status carried by err, or 0.
func Code(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 0
}
