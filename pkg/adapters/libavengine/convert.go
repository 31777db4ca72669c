//go:build libav && cgo

package libavengine

// #include <libavutil/frame.h>
// #include <libswscale/swscale.h>
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/user/mediaplay/pkg/ports"
)

var swsFlags = map[ports.ScaleAlgorithm]C.int{
	ports.ScaleFastBilinear: C.SWS_FAST_BILINEAR,
	ports.ScaleBilinear:     C.SWS_BILINEAR,
	ports.ScaleBicubic:      C.SWS_BICUBIC,
	ports.ScalePoint:        C.SWS_POINT,
}

// converter runs sws_scale between two libav-owned frames. Picture planes are
// copied in and the packed result is copied out, so no Go memory is handed
// to libswscale.
type converter struct {
	sws *C.struct_SwsContext
	src ports.PictureSpec
	dst ports.PictureSpec
	in  *C.AVFrame
	out *C.AVFrame
}

func newConverter(src, dst ports.PictureSpec, alg ports.ScaleAlgorithm) (*converter, error) {
	sf, ok := toAV(src.Format)
	if !ok {
		return nil, ports.NewStatusError("converter", ports.CodeEINVAL, fmt.Errorf("unsupported source format %s", src.Format))
	}
	df, ok := toAV(dst.Format)
	if !ok || dst.Format.Planar() {
		return nil, ports.NewStatusError("converter", ports.CodeEINVAL, fmt.Errorf("unsupported destination format %s", dst.Format))
	}
	flags, ok := swsFlags[alg]
	if !ok {
		flags = C.SWS_FAST_BILINEAR
	}

	sws := C.sws_getContext(C.int(src.Width), C.int(src.Height), sf,
		C.int(dst.Width), C.int(dst.Height), df, flags, nil, nil, nil)
	if sws == nil {
		return nil, ports.NewStatusError("converter", ports.CodeEINVAL,
			fmt.Errorf("%dx%d %s -> %dx%d %s", src.Width, src.Height, src.Format, dst.Width, dst.Height, dst.Format))
	}

	c := &converter{sws: sws, src: src, dst: dst}
	var err error
	if c.in, err = allocFrame(src, sf); err != nil {
		c.Close()
		return nil, err
	}
	if c.out, err = allocFrame(dst, df); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func allocFrame(spec ports.PictureSpec, f C.enum_AVPixelFormat) (*C.AVFrame, error) {
	fr := C.av_frame_alloc()
	if fr == nil {
		return nil, ports.NewStatusError("alloc frame", ports.CodeENOMEM, nil)
	}
	fr.width = C.int(spec.Width)
	fr.height = C.int(spec.Height)
	fr.format = C.int(f)
	if r := C.av_frame_get_buffer(fr, 0); r < 0 {
		C.av_frame_free(&fr)
		return nil, statusError("alloc frame", r)
	}
	return fr, nil
}

func (c *converter) Convert(pic *ports.Picture, dst []byte, dstStride int) error {
	if pic.Width != c.src.Width || pic.Height != c.src.Height || pic.Format != c.src.Format {
		return ports.NewStatusError("convert", ports.CodeEINVAL,
			fmt.Errorf("picture %dx%d %s does not match %dx%d %s", pic.Width, pic.Height, pic.Format, c.src.Width, c.src.Height, c.src.Format))
	}
	rows := planeRows(pic.Format, pic.Height)
	if len(pic.Planes) < len(rows) || len(pic.Strides) < len(rows) {
		return ports.NewStatusError("convert", ports.CodeEINVAL, fmt.Errorf("picture has %d planes, want %d", len(pic.Planes), len(rows)))
	}

	packed := pic.Format.PlaneStrides(pic.Width)
	for i, n := range rows {
		stride := int(c.in.linesize[i])
		plane := unsafe.Slice((*byte)(unsafe.Pointer(c.in.data[i])), stride*n)
		for y := 0; y < n; y++ {
			copy(plane[y*stride:y*stride+packed[i]], pic.Planes[i][y*pic.Strides[i]:])
		}
	}

	C.sws_scale(c.sws, &c.in.data[0], &c.in.linesize[0], 0, C.int(pic.Height), &c.out.data[0], &c.out.linesize[0])

	rowBytes := c.dst.Width * c.dst.Format.BitsPerPixel() / 8
	outStride := int(c.out.linesize[0])
	out := unsafe.Slice((*byte)(unsafe.Pointer(c.out.data[0])), outStride*c.dst.Height)
	for y := 0; y < c.dst.Height; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], out[y*outStride:])
	}
	return nil
}

func (c *converter) Close() error {
	if c.in != nil {
		C.av_frame_free(&c.in)
	}
	if c.out != nil {
		C.av_frame_free(&c.out)
	}
	if c.sws != nil {
		C.sws_freeContext(c.sws)
		c.sws = nil
	}
	return nil
}

var _ ports.Converter = (*converter)(nil)
