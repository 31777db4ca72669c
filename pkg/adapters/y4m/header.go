// Package y4m reads and writes YUV4MPEG2 streams, the uncompressed format
// used for fixtures and raw capture dumps.
package y4m

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/mediaplay/pkg/media"
)

const (
	magic       = "YUV4MPEG2"
	frameMarker = "FRAME"
	// maxHeaderLen bounds header and frame-marker lines.
	maxHeaderLen = 1024
)

var (
	// ErrBadMagic is returned when the stream does not start with YUV4MPEG2.
	ErrBadMagic = errors.New("y4m: missing YUV4MPEG2 signature")
	// ErrBadHeader is returned for malformed or incomplete headers.
	ErrBadHeader = errors.New("y4m: malformed header")
	// ErrUnsupportedColorspace is returned for C tags this package cannot map.
	ErrUnsupportedColorspace = errors.New("y4m: unsupported colorspace")
)

// Header is the stream header.
type Header struct {
	Width      int
	Height     int
	FrameRate  media.Rational
	Aspect     media.Rational
	Interlace  byte
	Colorspace string
	Format     media.PixelFormat
}

// FrameSize returns the payload size of one frame.
func (h Header) FrameSize() int {
	n := 0
	for _, s := range h.Format.PlaneSizes(h.Width, h.Height) {
		n += s
	}
	return n
}

// String renders the header line without the trailing newline.
func (h Header) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s W%d H%d F%d:%d", magic, h.Width, h.Height, h.FrameRate.Num, h.FrameRate.Den)
	il := h.Interlace
	if il == 0 {
		il = 'p'
	}
	fmt.Fprintf(&b, " I%c", il)
	if h.Aspect.Valid() {
		fmt.Fprintf(&b, " A%d:%d", h.Aspect.Num, h.Aspect.Den)
	}
	cs := h.Colorspace
	if cs == "" {
		cs = colorspaceFor(h.Format)
	}
	if cs != "" {
		fmt.Fprintf(&b, " C%s", cs)
	}
	return b.String()
}

// ParseHeader parses a header line (without newline).
func ParseHeader(line []byte) (Header, error) {
	if !bytes.HasPrefix(line, []byte(magic)) {
		return Header{}, ErrBadMagic
	}
	h := Header{Interlace: 'p', Colorspace: "420jpeg"}
	for _, tok := range strings.Fields(string(line[len(magic):])) {
		val := tok[1:]
		var err error
		switch tok[0] {
		case 'W':
			h.Width, err = strconv.Atoi(val)
		case 'H':
			h.Height, err = strconv.Atoi(val)
		case 'F':
			h.FrameRate, err = parseRatio(val)
		case 'A':
			h.Aspect, err = parseRatio(val)
		case 'I':
			if len(val) > 0 {
				h.Interlace = val[0]
			}
		case 'C':
			h.Colorspace = val
		case 'X':
			// comment / extension field
		}
		if err != nil {
			return Header{}, fmt.Errorf("%w: %s: %v", ErrBadHeader, tok, err)
		}
	}
	if h.Width <= 0 || h.Height <= 0 {
		return Header{}, fmt.Errorf("%w: missing dimensions", ErrBadHeader)
	}
	f, err := formatFor(h.Colorspace)
	if err != nil {
		return Header{}, err
	}
	h.Format = f
	return h, nil
}

func parseRatio(s string) (media.Rational, error) {
	num, den, ok := strings.Cut(s, ":")
	if !ok {
		return media.Rational{}, fmt.Errorf("expected n:d")
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return media.Rational{}, err
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return media.Rational{}, err
	}
	return media.Rational{Num: n, Den: d}, nil
}

func formatFor(cs string) (media.PixelFormat, error) {
	switch {
	case strings.HasPrefix(cs, "420"):
		return media.PixelFormatYUV420P, nil
	case cs == "422":
		return media.PixelFormatYUV422P, nil
	case cs == "444":
		return media.PixelFormatYUV444P, nil
	case cs == "mono":
		return media.PixelFormatGray8, nil
	}
	return media.PixelFormatNone, fmt.Errorf("%w: %s", ErrUnsupportedColorspace, cs)
}

func colorspaceFor(f media.PixelFormat) string {
	switch f {
	case media.PixelFormatYUV420P:
		return "420jpeg"
	case media.PixelFormatYUV422P:
		return "422"
	case media.PixelFormatYUV444P:
		return "444"
	case media.PixelFormatGray8:
		return "mono"
	}
	return ""
}
