// Package nullsink provides a frame sink that discards frames and only
// counts them.
package nullsink

import (
	"sync/atomic"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// Sink discards frames. Counters are safe to read from other goroutines.
type Sink struct {
	frames    atomic.Int64
	lastStamp atomic.Int64
}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// OnFrame counts the frame.
func (s *Sink) OnFrame(frame *media.Frame) error {
	s.frames.Add(1)
	s.lastStamp.Store(frame.Timestamp)
	return nil
}

// Frames returns the number of frames received.
func (s *Sink) Frames() int64 {
	return s.frames.Load()
}

// LastTimestamp returns the timestamp of the latest frame in milliseconds.
func (s *Sink) LastTimestamp() int64 {
	return s.lastStamp.Load()
}

var _ ports.FrameSink = (*Sink)(nil)
