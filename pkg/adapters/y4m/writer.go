package y4m

import (
	"bufio"
	"fmt"
	"io"

	"github.com/user/mediaplay/pkg/media"
)

// Writer writes a y4m stream.
type Writer struct {
	w      *bufio.Writer
	header Header
	frames int
}

// NewWriter writes the header and returns a frame writer.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if h.Format == media.PixelFormatNone {
		h.Format = media.PixelFormatYUV420P
	}
	if colorspaceFor(h.Format) == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedColorspace, h.Format)
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n", h); err != nil {
		return nil, err
	}
	return &Writer{w: bw, header: h}, nil
}

// WriteFrame writes one frame. data must be exactly Header.FrameSize bytes.
func (w *Writer) WriteFrame(data []byte) error {
	if len(data) != w.header.FrameSize() {
		return fmt.Errorf("y4m: frame is %d bytes, want %d", len(data), w.header.FrameSize())
	}
	if _, err := w.w.WriteString(frameMarker + "\n"); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int {
	return w.frames
}

// Flush flushes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
