package media

import (
	"image"
	"image/color"
)

// Frame is one decoded, converted picture. A player reuses a single Frame for
// the whole session, so receivers must copy what they keep.
type Frame struct {
	Width        int
	Height       int
	Format       PixelFormat
	BitsPerPixel int
	Data         []byte
	// Timestamp is the presentation time in milliseconds.
	Timestamp int64
}

// Size returns the number of bytes the frame geometry requires.
func (f *Frame) Size() int {
	return f.Width * f.Height * f.BitsPerPixel / 8
}

// Stride returns the length of one row in bytes.
func (f *Frame) Stride() int {
	return f.Width * f.BitsPerPixel / 8
}

// Resize sets the geometry and makes Data exactly Size() bytes long,
// reallocating only when the current capacity is too small.
func (f *Frame) Resize(width, height int, format PixelFormat) {
	f.Width = width
	f.Height = height
	f.Format = format
	f.BitsPerPixel = format.BitsPerPixel()
	n := f.Size()
	if cap(f.Data) < n {
		f.Data = make([]byte, n)
		return
	}
	f.Data = f.Data[:n]
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Data = append([]byte(nil), f.Data...)
	return &c
}

// Image returns an RGBA copy of packed RGB/BGR/gray frames. Other formats
// return nil.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	stride := f.Stride()
	for y := 0; y < f.Height; y++ {
		row := f.Data[y*stride : (y+1)*stride]
		for x := 0; x < f.Width; x++ {
			var c color.RGBA
			switch f.Format {
			case PixelFormatBGR24:
				c = color.RGBA{R: row[x*3+2], G: row[x*3+1], B: row[x*3], A: 0xff}
			case PixelFormatRGB24:
				c = color.RGBA{R: row[x*3], G: row[x*3+1], B: row[x*3+2], A: 0xff}
			case PixelFormatRGBA:
				c = color.RGBA{R: row[x*4], G: row[x*4+1], B: row[x*4+2], A: row[x*4+3]}
			case PixelFormatGray8:
				c = color.RGBA{R: row[x], G: row[x], B: row[x], A: 0xff}
			default:
				return nil
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
