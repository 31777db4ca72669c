package ports

import "github.com/user/mediaplay/pkg/media"

// FrameSink receives converted frames from the decode cycle.
// OnFrame is called synchronously on the decode worker. The frame is reused
// by the next cycle, so implementations copy whatever they keep. A returned
// error is logged and does not stop playback.
type FrameSink interface {
	OnFrame(frame *media.Frame) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(frame *media.Frame) error

// OnFrame calls f(frame).
func (f FrameSinkFunc) OnFrame(frame *media.Frame) error {
	return f(frame)
}
