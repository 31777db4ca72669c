//go:build libav && cgo

package libavengine

// #include <errno.h>
// #include <libavcodec/avcodec.h>
// #include <libavutil/frame.h>
// #include <libswscale/swscale.h>
import "C"

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

var errDecoderClosed = errors.New("libavengine: decoder closed")

type codec struct {
	c        *C.AVCodec
	name     string
	longName string
	id       ports.CodecID
	hardware bool
}

func newCodec(c *C.AVCodec) *codec {
	k := &codec{
		c:        c,
		name:     C.GoString(c.name),
		id:       ports.CodecID(C.GoString(C.avcodec_get_name(c.id))),
		hardware: c.capabilities&C.AV_CODEC_CAP_HARDWARE != 0,
	}
	if c.long_name != nil {
		k.longName = C.GoString(c.long_name)
	}
	return k
}

func (c *codec) Name() string      { return c.name }
func (c *codec) LongName() string  { return c.longName }
func (c *codec) ID() ports.CodecID { return c.id }
func (c *codec) Hardware() bool    { return c.hardware }

func (c *codec) describe() ports.CodecDescriptor {
	return ports.CodecDescriptor{Name: c.name, LongName: c.longName, ID: c.id, Hardware: c.hardware}
}

// Open allocates a codec context from the stream's container parameters, or
// from the StreamInfo fields when the stream came from another engine.
func (c *codec) Open(stream ports.StreamInfo) (ports.Decoder, error) {
	ctx := C.avcodec_alloc_context3(c.c)
	if ctx == nil {
		return nil, ports.NewStatusError("alloc codec context", ports.CodeENOMEM, nil)
	}

	if p, ok := stream.Params.(*codecParams); ok && p.par != nil {
		if r := C.avcodec_parameters_to_context(ctx, p.par); r < 0 {
			C.avcodec_free_context(&ctx)
			return nil, statusError("codec parameters", r)
		}
	} else {
		ctx.width = C.int(stream.Width)
		ctx.height = C.int(stream.Height)
		if f, ok := toAV(stream.PixelFormat); ok {
			ctx.pix_fmt = f
		}
		if n := len(stream.Extradata); n > 0 {
			buf := (*C.uint8_t)(C.av_mallocz(C.size_t(n + C.AV_INPUT_BUFFER_PADDING_SIZE)))
			copy(unsafe.Slice((*byte)(unsafe.Pointer(buf)), n), stream.Extradata)
			ctx.extradata = buf
			ctx.extradata_size = C.int(n)
		}
	}
	ctx.pkt_timebase = C.AVRational{num: C.int(stream.TimeBase.Num), den: C.int(stream.TimeBase.Den)}

	if r := C.avcodec_open2(ctx, c.c, nil); r < 0 {
		C.avcodec_free_context(&ctx)
		return nil, statusError("open "+c.name, r)
	}

	d := &decoder{ctx: ctx, pkt: C.av_packet_alloc(), frame: C.av_frame_alloc()}
	if d.pkt == nil || d.frame == nil {
		d.Close()
		return nil, ports.NewStatusError("alloc decoder buffers", ports.CodeENOMEM, nil)
	}
	return d, nil
}

type decoder struct {
	ctx   *C.AVCodecContext
	pkt   *C.AVPacket
	frame *C.AVFrame

	// Pictures in formats media does not model are rescaled to yuv420p.
	sws *C.struct_SwsContext
	tmp *C.AVFrame

	planes [][]byte
}

func (d *decoder) SendPacket(pkt *ports.Packet) error {
	if d.ctx == nil {
		return errDecoderClosed
	}
	if pkt == nil {
		return sendStatus("drain", C.avcodec_send_packet(d.ctx, nil))
	}

	if r := C.av_new_packet(d.pkt, C.int(len(pkt.Data))); r < 0 {
		return statusError("alloc packet", r)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(d.pkt.data)), len(pkt.Data)), pkt.Data)
	d.pkt.pts = C.int64_t(pkt.PTS)
	d.pkt.dts = C.int64_t(pkt.DTS)
	if pkt.Keyframe {
		d.pkt.flags |= C.AV_PKT_FLAG_KEY
	}
	r := C.avcodec_send_packet(d.ctx, d.pkt)
	C.av_packet_unref(d.pkt)
	return sendStatus("send", r)
}

// ReceivePicture copies the decoded planes. They stay valid until the next
// call.
func (d *decoder) ReceivePicture(pic *ports.Picture) error {
	if d.ctx == nil {
		return errDecoderClosed
	}
	if err := sendStatus("receive", C.avcodec_receive_frame(d.ctx, d.frame)); err != nil {
		return err
	}
	defer C.av_frame_unref(d.frame)

	f := d.frame
	format, ok := fromAV(f.format)
	if !ok {
		var err error
		if f, err = d.normalize(f); err != nil {
			return err
		}
		format = media.PixelFormatYUV420P
	}

	rows := planeRows(format, int(f.height))
	if len(d.planes) < len(rows) {
		d.planes = make([][]byte, len(rows))
	}
	pic.Width, pic.Height, pic.Format = int(f.width), int(f.height), format
	pic.Planes = pic.Planes[:0]
	pic.Strides = pic.Strides[:0]
	for i, n := range rows {
		stride := int(f.linesize[i])
		src := unsafe.Slice((*byte)(unsafe.Pointer(f.data[i])), stride*n)
		d.planes[i] = append(d.planes[i][:0], src...)
		pic.Planes = append(pic.Planes, d.planes[i])
		pic.Strides = append(pic.Strides, stride)
	}

	pic.PTS = int64(d.frame.best_effort_timestamp)
	if pic.PTS == media.NoPTS {
		pic.PTS = int64(d.frame.pts)
	}
	return nil
}

func (d *decoder) normalize(f *C.AVFrame) (*C.AVFrame, error) {
	d.sws = C.sws_getCachedContext(d.sws,
		f.width, f.height, C.enum_AVPixelFormat(f.format),
		f.width, f.height, C.AV_PIX_FMT_YUV420P,
		C.SWS_BILINEAR, nil, nil, nil)
	if d.sws == nil {
		return nil, ports.NewStatusError("normalize", ports.CodeEINVAL, fmt.Errorf("pixel format %d", int(f.format)))
	}
	if d.tmp == nil {
		if d.tmp = C.av_frame_alloc(); d.tmp == nil {
			return nil, ports.NewStatusError("normalize", ports.CodeENOMEM, nil)
		}
	}
	if d.tmp.width != f.width || d.tmp.height != f.height {
		C.av_frame_unref(d.tmp)
		d.tmp.width = f.width
		d.tmp.height = f.height
		d.tmp.format = C.AV_PIX_FMT_YUV420P
		if r := C.av_frame_get_buffer(d.tmp, 0); r < 0 {
			return nil, statusError("normalize", r)
		}
	}
	C.sws_scale(d.sws, &f.data[0], &f.linesize[0], 0, f.height, &d.tmp.data[0], &d.tmp.linesize[0])
	return d.tmp, nil
}

// Output reports the opened context. Hardware contexts may only settle on
// their surface format with the first frame.
func (d *decoder) Output() ports.PictureSpec {
	if d.ctx == nil {
		return ports.PictureSpec{}
	}
	spec := ports.PictureSpec{Width: int(d.ctx.width), Height: int(d.ctx.height), Format: media.PixelFormatYUV420P}
	if f, ok := fromAV(C.int(d.ctx.pix_fmt)); ok {
		spec.Format = f
	}
	return spec
}

func (d *decoder) Close() error {
	if d.ctx != nil {
		C.avcodec_free_context(&d.ctx)
	}
	if d.pkt != nil {
		C.av_packet_free(&d.pkt)
	}
	if d.frame != nil {
		C.av_frame_free(&d.frame)
	}
	if d.tmp != nil {
		C.av_frame_free(&d.tmp)
	}
	if d.sws != nil {
		C.sws_freeContext(d.sws)
		d.sws = nil
	}
	d.planes = nil
	return nil
}

// sendStatus maps AVERROR(EAGAIN) and AVERROR_EOF onto the send/receive
// contract of ports.Decoder.
func sendStatus(op string, r C.int) error {
	switch {
	case r >= 0:
		return nil
	case r == -C.EAGAIN:
		return ports.ErrAgain
	case int(r) == ports.CodeEOF:
		return io.EOF
	}
	return statusError(op, r)
}

var (
	_ ports.Codec   = (*codec)(nil)
	_ ports.Decoder = (*decoder)(nil)
)
