// Package imgconvert converts decoded pictures into packed RGB frame buffers,
// scaling with golang.org/x/image/draw.
package imgconvert

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

var (
	// ErrUnsupportedFormat is returned for pixel formats with no conversion path.
	ErrUnsupportedFormat = errors.New("imgconvert: unsupported pixel format")
	// ErrInvalidGeometry is returned for empty source or destination sizes.
	ErrInvalidGeometry = errors.New("imgconvert: invalid geometry")
	// ErrPictureMismatch is returned when a picture does not match the source spec.
	ErrPictureMismatch = errors.New("imgconvert: picture does not match converter source")
	// ErrShortBuffer is returned when the destination cannot hold the picture.
	ErrShortBuffer = errors.New("imgconvert: destination buffer too small")
)

// Converter converts pictures of one source geometry to one destination
// geometry. It keeps scratch images between calls and is not safe for
// concurrent use.
type Converter struct {
	src    ports.PictureSpec
	dst    ports.PictureSpec
	scaler draw.Scaler

	// srcRGBA holds packed formats that have no image.Image view.
	srcRGBA *image.RGBA
	// dstRGBA is the scaled result before packing.
	dstRGBA *image.RGBA
}

// New validates the formats and sizes and builds a converter.
func New(src, dst ports.PictureSpec, alg ports.ScaleAlgorithm) (*Converter, error) {
	if src.Width <= 0 || src.Height <= 0 || dst.Width <= 0 || dst.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d -> %dx%d", ErrInvalidGeometry, src.Width, src.Height, dst.Width, dst.Height)
	}
	if !supportedSource(src.Format) {
		return nil, fmt.Errorf("%w: source %s", ErrUnsupportedFormat, src.Format)
	}
	switch dst.Format {
	case media.PixelFormatBGR24, media.PixelFormatRGB24, media.PixelFormatRGBA:
	default:
		return nil, fmt.Errorf("%w: destination %s", ErrUnsupportedFormat, dst.Format)
	}
	return &Converter{
		src:     src,
		dst:     dst,
		scaler:  scalerFor(alg),
		dstRGBA: image.NewRGBA(image.Rect(0, 0, dst.Width, dst.Height)),
	}, nil
}

func scalerFor(alg ports.ScaleAlgorithm) draw.Scaler {
	switch alg {
	case ports.ScalePoint:
		return draw.NearestNeighbor
	case ports.ScaleBilinear:
		return draw.BiLinear
	case ports.ScaleBicubic:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}

func supportedSource(f media.PixelFormat) bool {
	switch f {
	case media.PixelFormatYUV420P, media.PixelFormatYUV422P, media.PixelFormatYUV444P,
		media.PixelFormatGray8, media.PixelFormatRGBA, media.PixelFormatRGB24,
		media.PixelFormatBGR24, media.PixelFormatYUYV422, media.PixelFormatNV12:
		return true
	}
	return false
}

// Source returns the source spec.
func (c *Converter) Source() ports.PictureSpec { return c.src }

// Destination returns the destination spec.
func (c *Converter) Destination() ports.PictureSpec { return c.dst }

// Convert converts pic into dst, whose rows are dstStride bytes apart.
func (c *Converter) Convert(pic *ports.Picture, dst []byte, dstStride int) error {
	if pic.Width != c.src.Width || pic.Height != c.src.Height || pic.Format != c.src.Format {
		return fmt.Errorf("%w: got %dx%d %s", ErrPictureMismatch, pic.Width, pic.Height, pic.Format)
	}
	bpp := c.dst.Format.BitsPerPixel() / 8
	if dstStride < c.dst.Width*bpp || len(dst) < dstStride*(c.dst.Height-1)+c.dst.Width*bpp {
		return ErrShortBuffer
	}

	src, err := c.view(pic)
	if err != nil {
		return err
	}

	dr := c.dstRGBA.Bounds()
	if dr.Size() == src.Bounds().Size() {
		draw.Draw(c.dstRGBA, dr, src, src.Bounds().Min, draw.Src)
	} else {
		c.scaler.Scale(c.dstRGBA, dr, src, src.Bounds(), draw.Src, nil)
	}
	c.pack(dst, dstStride, bpp)
	return nil
}

// view wraps planar/gray/RGBA pictures without copying and copies other
// packed formats into an RGBA scratch image.
func (c *Converter) view(pic *ports.Picture) (image.Image, error) {
	r := image.Rect(0, 0, pic.Width, pic.Height)
	need := len(pic.Format.PlaneSizes(pic.Width, pic.Height))
	if len(pic.Planes) < need || len(pic.Strides) < need {
		return nil, fmt.Errorf("%w: %d planes", ErrPictureMismatch, len(pic.Planes))
	}

	switch pic.Format {
	case media.PixelFormatYUV420P, media.PixelFormatYUV422P, media.PixelFormatYUV444P:
		ratio := image.YCbCrSubsampleRatio420
		if pic.Format == media.PixelFormatYUV422P {
			ratio = image.YCbCrSubsampleRatio422
		} else if pic.Format == media.PixelFormatYUV444P {
			ratio = image.YCbCrSubsampleRatio444
		}
		if pic.Strides[1] != pic.Strides[2] {
			return nil, fmt.Errorf("%w: chroma strides differ", ErrUnsupportedFormat)
		}
		return &image.YCbCr{
			Y: pic.Planes[0], Cb: pic.Planes[1], Cr: pic.Planes[2],
			YStride: pic.Strides[0], CStride: pic.Strides[1],
			SubsampleRatio: ratio, Rect: r,
		}, nil
	case media.PixelFormatGray8:
		return &image.Gray{Pix: pic.Planes[0], Stride: pic.Strides[0], Rect: r}, nil
	case media.PixelFormatRGBA:
		return &image.RGBA{Pix: pic.Planes[0], Stride: pic.Strides[0], Rect: r}, nil
	}

	if c.srcRGBA == nil {
		c.srcRGBA = image.NewRGBA(r)
	}
	out := c.srcRGBA
	for y := 0; y < pic.Height; y++ {
		o := out.Pix[y*out.Stride:]
		switch pic.Format {
		case media.PixelFormatRGB24, media.PixelFormatBGR24:
			row := pic.Planes[0][y*pic.Strides[0]:]
			ri, bi := 0, 2
			if pic.Format == media.PixelFormatBGR24 {
				ri, bi = 2, 0
			}
			for x := 0; x < pic.Width; x++ {
				o[x*4] = row[x*3+ri]
				o[x*4+1] = row[x*3+1]
				o[x*4+2] = row[x*3+bi]
				o[x*4+3] = 0xff
			}
		case media.PixelFormatYUYV422:
			row := pic.Planes[0][y*pic.Strides[0]:]
			for x := 0; x < pic.Width; x++ {
				pair := (x / 2) * 4
				yy := row[pair+(x%2)*2]
				o[x*4], o[x*4+1], o[x*4+2] = yuvToRGB(yy, row[pair+1], row[pair+3])
				o[x*4+3] = 0xff
			}
		case media.PixelFormatNV12:
			luma := pic.Planes[0][y*pic.Strides[0]:]
			uv := pic.Planes[1][(y/2)*pic.Strides[1]:]
			for x := 0; x < pic.Width; x++ {
				ci := (x / 2) * 2
				o[x*4], o[x*4+1], o[x*4+2] = yuvToRGB(luma[x], uv[ci], uv[ci+1])
				o[x*4+3] = 0xff
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, pic.Format)
		}
	}
	return out, nil
}

// yuvToRGB uses the JFIF full-range matrix, as image/jpeg does.
func yuvToRGB(y, u, v uint8) (uint8, uint8, uint8) {
	return color.YCbCrToRGB(y, u, v)
}

func (c *Converter) pack(dst []byte, stride, bpp int) {
	src := c.dstRGBA
	w, h := c.dst.Width, c.dst.Height
	for y := 0; y < h; y++ {
		in := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := dst[y*stride : y*stride+w*bpp]
		switch c.dst.Format {
		case media.PixelFormatRGBA:
			copy(out, in)
		case media.PixelFormatRGB24:
			for x := 0; x < w; x++ {
				out[x*3] = in[x*4]
				out[x*3+1] = in[x*4+1]
				out[x*3+2] = in[x*4+2]
			}
		default:
			for x := 0; x < w; x++ {
				out[x*3] = in[x*4+2]
				out[x*3+1] = in[x*4+1]
				out[x*3+2] = in[x*4]
			}
		}
	}
}

// Close drops the scratch images.
func (c *Converter) Close() error {
	c.srcRGBA = nil
	c.dstRGBA = nil
	return nil
}

var _ ports.Converter = (*Converter)(nil)
