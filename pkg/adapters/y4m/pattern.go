package y4m

import (
	"io"

	"github.com/user/mediaplay/pkg/media"
)

// PatternOptions configures WritePattern.
type PatternOptions struct {
	Width     int
	Height    int
	FrameRate media.Rational
	Frames    int
}

// WritePattern writes a yuv420p test pattern: a luma gradient with a bright
// bar that moves one column per frame. The first luma byte of frame n is
// n%256 so decoded frames can be matched to their index.
func WritePattern(w io.Writer, o PatternOptions) error {
	h := Header{
		Width:     o.Width,
		Height:    o.Height,
		FrameRate: o.FrameRate,
		Aspect:    media.Rational{Num: 1, Den: 1},
		Format:    media.PixelFormatYUV420P,
	}
	yw, err := NewWriter(w, h)
	if err != nil {
		return err
	}
	sizes := h.Format.PlaneSizes(o.Width, o.Height)
	buf := make([]byte, h.FrameSize())
	luma := buf[:sizes[0]]
	chroma := buf[sizes[0]:]
	for i := range chroma {
		chroma[i] = 128
	}
	for n := 0; n < o.Frames; n++ {
		bar := n % o.Width
		for y := 0; y < o.Height; y++ {
			row := luma[y*o.Width : (y+1)*o.Width]
			for x := range row {
				row[x] = byte(16 + (x*200)/o.Width)
			}
			row[bar] = 235
		}
		luma[0] = byte(n)
		if err := yw.WriteFrame(buf); err != nil {
			return err
		}
	}
	return yw.Flush()
}
