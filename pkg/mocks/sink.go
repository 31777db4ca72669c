package mocks

import (
	"sync"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink that keeps a copy of
// every frame it receives.
type FrameSink struct {
	mu     sync.Mutex
	frames []*media.Frame

	OnFrameFunc func(frame *media.Frame) error
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink() *FrameSink {
	return &FrameSink{}
}

func (m *FrameSink) OnFrame(frame *media.Frame) error {
	m.mu.Lock()
	m.frames = append(m.frames, frame.Clone())
	m.mu.Unlock()
	if m.OnFrameFunc != nil {
		return m.OnFrameFunc(frame)
	}
	return nil
}

// Frames returns the received frames.
func (m *FrameSink) Frames() []*media.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*media.Frame(nil), m.frames...)
}

// Timestamps returns the timestamp of every received frame.
func (m *FrameSink) Timestamps() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.frames))
	for i, f := range m.frames {
		out[i] = f.Timestamp
	}
	return out
}

// Count returns the number of received frames.
func (m *FrameSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

var _ ports.FrameSink = (*FrameSink)(nil)
