package media

import "sync/atomic"

// Signal is the playback status of a session.
type Signal int32

const (
	// SignalIdle means no session was started yet.
	SignalIdle Signal = iota
	// SignalRunning means the decode cycle is producing frames.
	SignalRunning
	// SignalEndOfStream means the source ran out of data.
	SignalEndOfStream
	// SignalError means decoding failed mid-stream.
	SignalError
)

func (s Signal) String() string {
	switch s {
	case SignalIdle:
		return "idle"
	case SignalRunning:
		return "running"
	case SignalEndOfStream:
		return "end-of-stream"
	case SignalError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is EndOfStream or Error.
func (s Signal) Terminal() bool {
	return s == SignalEndOfStream || s == SignalError
}

// SignalState holds a Signal that only leaves Running through Finish.
// The zero value is Idle.
type SignalState struct {
	v atomic.Int32
}

// Load returns the current signal.
func (s *SignalState) Load() Signal {
	return Signal(s.v.Load())
}

// Reset moves the state to Running unconditionally. Used by start.
func (s *SignalState) Reset() {
	s.v.Store(int32(SignalRunning))
}

// Finish moves Running to a terminal signal. It returns false when the state
// was not Running, leaving the first terminal value in place.
func (s *SignalState) Finish(to Signal) bool {
	if !to.Terminal() {
		return false
	}
	return s.v.CompareAndSwap(int32(SignalRunning), int32(to))
}
