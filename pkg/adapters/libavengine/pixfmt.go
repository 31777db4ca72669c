//go:build libav && cgo

package libavengine

// #include <libavutil/pixfmt.h>
import "C"

import "github.com/user/mediaplay/pkg/media"

var avFormats = map[media.PixelFormat]C.enum_AVPixelFormat{
	media.PixelFormatBGR24:   C.AV_PIX_FMT_BGR24,
	media.PixelFormatRGB24:   C.AV_PIX_FMT_RGB24,
	media.PixelFormatRGBA:    C.AV_PIX_FMT_RGBA,
	media.PixelFormatGray8:   C.AV_PIX_FMT_GRAY8,
	media.PixelFormatYUV420P: C.AV_PIX_FMT_YUV420P,
	media.PixelFormatYUV422P: C.AV_PIX_FMT_YUV422P,
	media.PixelFormatYUV444P: C.AV_PIX_FMT_YUV444P,
	media.PixelFormatYUYV422: C.AV_PIX_FMT_YUYV422,
	media.PixelFormatNV12:    C.AV_PIX_FMT_NV12,
}

// Full-range JPEG variants share the plane layout of their limited-range
// counterparts.
var jpegFormats = map[C.enum_AVPixelFormat]media.PixelFormat{
	C.AV_PIX_FMT_YUVJ420P: media.PixelFormatYUV420P,
	C.AV_PIX_FMT_YUVJ422P: media.PixelFormatYUV422P,
	C.AV_PIX_FMT_YUVJ444P: media.PixelFormatYUV444P,
}

func toAV(f media.PixelFormat) (C.enum_AVPixelFormat, bool) {
	v, ok := avFormats[f]
	return v, ok
}

func fromAV(v C.int) (media.PixelFormat, bool) {
	av := C.enum_AVPixelFormat(v)
	for f, a := range avFormats {
		if a == av {
			return f, true
		}
	}
	f, ok := jpegFormats[av]
	return f, ok
}

// planeRows returns the number of rows of each plane.
func planeRows(f media.PixelFormat, h int) []int {
	ch := (h + 1) / 2
	switch f {
	case media.PixelFormatYUV420P:
		return []int{h, ch, ch}
	case media.PixelFormatYUV422P, media.PixelFormatYUV444P:
		return []int{h, h, h}
	case media.PixelFormatNV12:
		return []int{h, ch}
	default:
		return []int{h}
	}
}
