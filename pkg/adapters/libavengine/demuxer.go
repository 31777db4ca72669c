//go:build libav && cgo

package libavengine

// #include <libavcodec/avcodec.h>
// #include <libavformat/avformat.h>
import "C"

import (
	"io"
	"unsafe"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// codecParams is carried in ports.StreamInfo.Params so the decoder can copy
// the container's exact codec configuration.
type codecParams struct {
	par *C.AVCodecParameters
}

type demuxer struct {
	ctx     *C.AVFormatContext
	pkt     *C.AVPacket
	streams []ports.StreamInfo
}

func newDemuxer(ctx *C.AVFormatContext) (*demuxer, error) {
	pkt := C.av_packet_alloc()
	if pkt == nil {
		C.avformat_close_input(&ctx)
		return nil, ports.NewStatusError("alloc packet", ports.CodeENOMEM, nil)
	}
	return &demuxer{ctx: ctx, pkt: pkt}, nil
}

func (d *demuxer) FindStreamInfo() error {
	if r := C.avformat_find_stream_info(d.ctx, nil); r < 0 {
		return statusError("find stream info", r)
	}
	streams := unsafe.Slice(d.ctx.streams, d.ctx.nb_streams)
	d.streams = make([]ports.StreamInfo, 0, len(streams))
	for _, st := range streams {
		d.streams = append(d.streams, describeStream(st))
	}
	return nil
}

func describeStream(st *C.AVStream) ports.StreamInfo {
	par := st.codecpar
	info := ports.StreamInfo{
		Index:        int(st.index),
		Kind:         kindOf(par.codec_type),
		Codec:        ports.CodecID(C.GoString(C.avcodec_get_name(par.codec_id))),
		TimeBase:     rational(st.time_base),
		AvgFrameRate: rational(st.avg_frame_rate),
		Duration:     int64(st.duration),
		StartTime:    int64(st.start_time),
		BitRate:      int64(par.bit_rate),
		Width:        int(par.width),
		Height:       int(par.height),
		FrameCount:   int64(st.nb_frames),
		Params:       &codecParams{par: par},
	}
	if info.Kind == ports.KindVideo {
		info.PixelFormat, _ = fromAV(par.format)
	}
	if par.extradata_size > 0 {
		info.Extradata = C.GoBytes(unsafe.Pointer(par.extradata), par.extradata_size)
	}
	return info
}

func (d *demuxer) Streams() []ports.StreamInfo {
	return d.streams
}

func (d *demuxer) FindBestStream(kind ports.StreamKind) int {
	t, ok := mediaType(kind)
	if !ok {
		return -1
	}
	r := C.av_find_best_stream(d.ctx, t, -1, -1, nil, 0)
	if r < 0 {
		return -1
	}
	return int(r)
}

// Duration is AV_NOPTS_VALUE, which equals media.NoPTS, when unknown.
func (d *demuxer) Duration() int64 {
	return int64(d.ctx.duration)
}

func (d *demuxer) ReadPacket(pkt *ports.Packet) error {
	r := C.av_read_frame(d.ctx, d.pkt)
	if int(r) == ports.CodeEOF {
		return io.EOF
	}
	if r < 0 {
		return statusError("read", r)
	}
	defer C.av_packet_unref(d.pkt)

	pkt.StreamIndex = int(d.pkt.stream_index)
	pkt.PTS = int64(d.pkt.pts)
	pkt.DTS = int64(d.pkt.dts)
	pkt.Keyframe = d.pkt.flags&C.AV_PKT_FLAG_KEY != 0
	pkt.Data = append(pkt.Data[:0], unsafe.Slice((*byte)(unsafe.Pointer(d.pkt.data)), int(d.pkt.size))...)
	return nil
}

func (d *demuxer) Seek(stream int, ts int64, flags ports.SeekFlags) error {
	if d.ctx.pb != nil && d.ctx.pb.seekable == 0 {
		return ports.ErrNotSeekable
	}
	var f C.int
	if flags&ports.SeekBackward != 0 {
		f |= C.AVSEEK_FLAG_BACKWARD
	}
	if flags&ports.SeekAny != 0 {
		f |= C.AVSEEK_FLAG_ANY
	}
	if r := C.av_seek_frame(d.ctx, C.int(stream), C.int64_t(ts), f); r < 0 {
		return statusError("seek", r)
	}
	return nil
}

func (d *demuxer) Close() error {
	if d.pkt != nil {
		C.av_packet_free(&d.pkt)
	}
	if d.ctx != nil {
		C.avformat_close_input(&d.ctx)
	}
	d.streams = nil
	return nil
}

func kindOf(t C.enum_AVMediaType) ports.StreamKind {
	switch t {
	case C.AVMEDIA_TYPE_VIDEO:
		return ports.KindVideo
	case C.AVMEDIA_TYPE_AUDIO:
		return ports.KindAudio
	case C.AVMEDIA_TYPE_SUBTITLE:
		return ports.KindSubtitle
	case C.AVMEDIA_TYPE_DATA:
		return ports.KindData
	}
	return ports.KindUnknown
}

func mediaType(k ports.StreamKind) (C.enum_AVMediaType, bool) {
	switch k {
	case ports.KindVideo:
		return C.AVMEDIA_TYPE_VIDEO, true
	case ports.KindAudio:
		return C.AVMEDIA_TYPE_AUDIO, true
	case ports.KindSubtitle:
		return C.AVMEDIA_TYPE_SUBTITLE, true
	case ports.KindData:
		return C.AVMEDIA_TYPE_DATA, true
	}
	return 0, false
}

func rational(r C.AVRational) media.Rational {
	return media.Rational{Num: int(r.num), Den: int(r.den)}
}

var _ ports.Demuxer = (*demuxer)(nil)
