package media

import (
	"fmt"
	"strings"
)

// PixelFormat tags the memory layout of a picture or frame.
type PixelFormat int

const (
	PixelFormatNone PixelFormat = iota
	PixelFormatBGR24
	PixelFormatRGB24
	PixelFormatRGBA
	PixelFormatGray8
	PixelFormatYUV420P
	PixelFormatYUV422P
	PixelFormatYUV444P
	PixelFormatYUYV422
	PixelFormatNV12
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatNone:    "none",
	PixelFormatBGR24:   "bgr24",
	PixelFormatRGB24:   "rgb24",
	PixelFormatRGBA:    "rgba",
	PixelFormatGray8:   "gray",
	PixelFormatYUV420P: "yuv420p",
	PixelFormatYUV422P: "yuv422p",
	PixelFormatYUV444P: "yuv444p",
	PixelFormatYUYV422: "yuyv422",
	PixelFormatNV12:    "nv12",
}

func (f PixelFormat) String() string {
	if s, ok := pixelFormatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("pixfmt(%d)", int(f))
}

// ParsePixelFormat accepts the ffmpeg-style names returned by String.
func ParsePixelFormat(s string) (PixelFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "gray8" {
		return PixelFormatGray8, nil
	}
	for f, name := range pixelFormatNames {
		if name == s {
			return f, nil
		}
	}
	return PixelFormatNone, fmt.Errorf("media: unknown pixel format %q", s)
}

// BitsPerPixel returns the average number of bits one pixel occupies.
func (f PixelFormat) BitsPerPixel() int {
	switch f {
	case PixelFormatBGR24, PixelFormatRGB24, PixelFormatYUV444P:
		return 24
	case PixelFormatRGBA:
		return 32
	case PixelFormatGray8:
		return 8
	case PixelFormatYUV420P, PixelFormatNV12:
		return 12
	case PixelFormatYUV422P, PixelFormatYUYV422:
		return 16
	default:
		return 0
	}
}

// Planar reports whether the format stores components in separate planes.
func (f PixelFormat) Planar() bool {
	switch f {
	case PixelFormatYUV420P, PixelFormatYUV422P, PixelFormatYUV444P, PixelFormatNV12:
		return true
	}
	return false
}

// PlaneSizes returns the byte size of each plane for a w x h picture with
// tightly packed rows.
func (f PixelFormat) PlaneSizes(w, h int) []int {
	cw, ch := (w+1)/2, (h+1)/2
	switch f {
	case PixelFormatYUV420P:
		return []int{w * h, cw * ch, cw * ch}
	case PixelFormatYUV422P:
		return []int{w * h, cw * h, cw * h}
	case PixelFormatYUV444P:
		return []int{w * h, w * h, w * h}
	case PixelFormatNV12:
		return []int{w * h, cw * 2 * ch}
	case PixelFormatYUYV422:
		return []int{cw * 4 * h}
	default:
		return []int{w * h * f.BitsPerPixel() / 8}
	}
}

// PlaneStrides returns the tightly packed row stride of each plane.
func (f PixelFormat) PlaneStrides(w int) []int {
	cw := (w + 1) / 2
	switch f {
	case PixelFormatYUV420P, PixelFormatYUV422P:
		return []int{w, cw, cw}
	case PixelFormatYUV444P:
		return []int{w, w, w}
	case PixelFormatNV12:
		return []int{w, cw * 2}
	case PixelFormatYUYV422:
		return []int{cw * 4}
	default:
		return []int{w * f.BitsPerPixel() / 8}
	}
}
