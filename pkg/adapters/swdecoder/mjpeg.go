package swdecoder

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

type mjpegDecoder struct {
	q    queue
	rgba *image.RGBA
	out  ports.PictureSpec
}

// openMJPEG cannot know the chroma layout before the first image, so the
// output starts as the stream geometry in yuv420p, the common baseline case.
func openMJPEG(s ports.StreamInfo) (ports.Decoder, error) {
	return &mjpegDecoder{out: ports.PictureSpec{Width: s.Width, Height: s.Height, Format: media.PixelFormatYUV420P}}, nil
}

func (d *mjpegDecoder) SendPacket(pkt *ports.Packet) error {
	ok, err := d.q.canSend(pkt)
	if !ok {
		return err
	}
	img, err := jpeg.Decode(bytes.NewReader(pkt.Data))
	if err != nil {
		return ports.NewStatusError("mjpeg decode", ports.CodeInvalidData, err)
	}
	pts := pkt.PTS
	if pts == media.NoPTS {
		pts = pkt.DTS
	}
	d.q.pic = d.picture(img)
	d.q.pic.PTS = pts
	d.out = ports.PictureSpec{Width: d.q.pic.Width, Height: d.q.pic.Height, Format: d.q.pic.Format}
	d.q.pending = true
	return nil
}

// picture exposes the decoded image without copying when its layout maps to
// a planar format, and through an RGBA copy otherwise.
func (d *mjpegDecoder) picture(img image.Image) ports.Picture {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.YCbCr:
		var f media.PixelFormat
		switch m.SubsampleRatio {
		case image.YCbCrSubsampleRatio420:
			f = media.PixelFormatYUV420P
		case image.YCbCrSubsampleRatio422:
			f = media.PixelFormatYUV422P
		case image.YCbCrSubsampleRatio444:
			f = media.PixelFormatYUV444P
		}
		if f != media.PixelFormatNone && b.Min == (image.Point{}) {
			return ports.Picture{
				Width: b.Dx(), Height: b.Dy(), Format: f,
				Planes:  [][]byte{m.Y, m.Cb, m.Cr},
				Strides: []int{m.YStride, m.CStride, m.CStride},
			}
		}
	case *image.Gray:
		if b.Min == (image.Point{}) {
			return ports.Picture{
				Width: b.Dx(), Height: b.Dy(), Format: media.PixelFormatGray8,
				Planes: [][]byte{m.Pix}, Strides: []int{m.Stride},
			}
		}
	}
	if d.rgba == nil || d.rgba.Bounds().Size() != b.Size() {
		d.rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.Draw(d.rgba, d.rgba.Bounds(), img, b.Min, draw.Src)
	return ports.Picture{
		Width: b.Dx(), Height: b.Dy(), Format: media.PixelFormatRGBA,
		Planes: [][]byte{d.rgba.Pix}, Strides: []int{d.rgba.Stride},
	}
}

func (d *mjpegDecoder) ReceivePicture(pic *ports.Picture) error {
	return d.q.receive(pic)
}

func (d *mjpegDecoder) Output() ports.PictureSpec { return d.out }

func (d *mjpegDecoder) Close() error {
	d.q.closed = true
	d.rgba = nil
	return nil
}
