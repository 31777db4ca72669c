package ports

import (
	"image"
	"image/color"
)

// Renderer draws annotations on frame images and encodes them.
type Renderer interface {
	// Annotate draws text lines in a translucent box at the top-left corner
	// and returns the resulting image.
	Annotate(img image.Image, lines []string, style TextStyle) image.Image

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	FontSize   float64
	FontPath   string
	Color      color.Color
	Background color.Color
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// Extension returns the file extension for the format, with the dot.
func (f ImageFormat) Extension() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}
