// Package swdecoder provides in-process software decoders for formats that
// need no external codec library: rawvideo and Motion JPEG.
package swdecoder

import (
	"errors"
	"io"

	"github.com/user/mediaplay/pkg/ports"
)

const (
	CodecRawVideo ports.CodecID = "rawvideo"
	CodecMJPEG    ports.CodecID = "mjpeg"
)

var (
	// ErrBadGeometry is returned when the stream lacks usable dimensions.
	ErrBadGeometry = errors.New("swdecoder: stream has no valid geometry")
	// ErrShortPacket is returned when a rawvideo packet is smaller than a picture.
	ErrShortPacket = errors.New("swdecoder: packet smaller than picture")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("swdecoder: decoder closed")
)

type codec struct {
	name     string
	longName string
	id       ports.CodecID
	open     func(ports.StreamInfo) (ports.Decoder, error)
}

func (c *codec) Name() string      { return c.name }
func (c *codec) LongName() string  { return c.longName }
func (c *codec) ID() ports.CodecID { return c.id }
func (c *codec) Hardware() bool    { return false }
func (c *codec) Open(s ports.StreamInfo) (ports.Decoder, error) {
	return c.open(s)
}

var codecs = []*codec{
	{name: "rawvideo", longName: "raw video", id: CodecRawVideo, open: openRaw},
	{name: "mjpeg", longName: "Motion JPEG", id: CodecMJPEG, open: openMJPEG},
}

// Codecs returns every decoder in this package.
func Codecs() []ports.Codec {
	out := make([]ports.Codec, len(codecs))
	for i, c := range codecs {
		out[i] = c
	}
	return out
}

// ByName finds a decoder by name.
func ByName(name string) (ports.Codec, bool) {
	for _, c := range codecs {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// ByID finds the decoder for a codec id.
func ByID(id ports.CodecID) (ports.Codec, bool) {
	for _, c := range codecs {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

// queue holds at most one decoded picture, giving send/receive semantics to
// decoders that produce exactly one picture per packet.
type queue struct {
	pending  bool
	draining bool
	closed   bool
	pic      ports.Picture
}

func (q *queue) canSend(pkt *ports.Packet) (bool, error) {
	if q.closed {
		return false, ErrClosed
	}
	if pkt == nil {
		q.draining = true
		return false, nil
	}
	if q.pending {
		return false, ports.ErrAgain
	}
	return true, nil
}

func (q *queue) receive(pic *ports.Picture) error {
	if q.closed {
		return ErrClosed
	}
	if q.pending {
		q.pending = false
		*pic = q.pic
		return nil
	}
	if q.draining {
		return io.EOF
	}
	return ports.ErrAgain
}
