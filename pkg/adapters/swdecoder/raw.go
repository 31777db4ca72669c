package swdecoder

import (
	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

type rawDecoder struct {
	q      queue
	width  int
	height int
	format media.PixelFormat
	sizes  []int
	buf    []byte
}

func openRaw(s ports.StreamInfo) (ports.Decoder, error) {
	if s.Width <= 0 || s.Height <= 0 || s.PixelFormat.BitsPerPixel() == 0 {
		return nil, ports.NewStatusError("rawvideo open", ports.CodeEINVAL, ErrBadGeometry)
	}
	d := &rawDecoder{
		width:  s.Width,
		height: s.Height,
		format: s.PixelFormat,
		sizes:  s.PixelFormat.PlaneSizes(s.Width, s.Height),
	}
	total := 0
	for _, n := range d.sizes {
		total += n
	}
	d.buf = make([]byte, total)
	return d, nil
}

// SendPacket copies the packet into the decoder-owned picture buffer, so the
// packet can be reused immediately.
func (d *rawDecoder) SendPacket(pkt *ports.Packet) error {
	ok, err := d.q.canSend(pkt)
	if !ok {
		return err
	}
	if len(pkt.Data) < len(d.buf) {
		return ports.NewStatusError("rawvideo decode", ports.CodeInvalidData, ErrShortPacket)
	}
	copy(d.buf, pkt.Data)

	planes := make([][]byte, len(d.sizes))
	off := 0
	for i, n := range d.sizes {
		planes[i] = d.buf[off : off+n]
		off += n
	}
	pts := pkt.PTS
	if pts == media.NoPTS {
		pts = pkt.DTS
	}
	d.q.pic = ports.Picture{
		Width:   d.width,
		Height:  d.height,
		Format:  d.format,
		Planes:  planes,
		Strides: d.format.PlaneStrides(d.width),
		PTS:     pts,
	}
	d.q.pending = true
	return nil
}

func (d *rawDecoder) ReceivePicture(pic *ports.Picture) error {
	return d.q.receive(pic)
}

func (d *rawDecoder) Output() ports.PictureSpec {
	return ports.PictureSpec{Width: d.width, Height: d.height, Format: d.format}
}

func (d *rawDecoder) Close() error {
	d.q.closed = true
	d.buf = nil
	return nil
}
