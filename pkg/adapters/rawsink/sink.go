// Package rawsink writes converted frames back to back to a stream, the
// layout `ffplay -f rawvideo -pixel_format bgr24 -video_size WxH` reads.
package rawsink

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// Sink writes frame data to w.
type Sink struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	width  int
	height int
	frames int64
}

// New wraps w. If w is an io.Closer it is closed by Close.
func New(w io.Writer) *Sink {
	s := &Sink{w: bufio.NewWriterSize(w, 1<<20)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Open creates path through fs and returns a sink writing to it.
func Open(fs ports.FileSystem, path string) (*Sink, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create raw output: %w", err)
	}
	return New(f), nil
}

// OnFrame appends the frame. Geometry changes within a stream are rejected
// because the output has no framing.
func (s *Sink) OnFrame(frame *media.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames == 0 {
		s.width, s.height = frame.Width, frame.Height
	} else if frame.Width != s.width || frame.Height != s.height {
		return fmt.Errorf("raw output: frame size changed from %dx%d to %dx%d",
			s.width, s.height, frame.Width, frame.Height)
	}
	if _, err := s.w.Write(frame.Data); err != nil {
		return err
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written.
func (s *Sink) Frames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close flushes buffered data and closes the destination.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}

var _ ports.FrameSink = (*Sink)(nil)
