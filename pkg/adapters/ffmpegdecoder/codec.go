package ffmpegdecoder

import (
	"strings"

	"github.com/user/mediaplay/pkg/ports"
)

// pipeFormats maps codec ids to the ffmpeg demuxer that reads their
// Annex-B / elementary stream form from a pipe.
var pipeFormats = map[ports.CodecID]string{
	"h264":       "h264",
	"hevc":       "hevc",
	"mpeg2video": "mpegvideo",
	"mpeg1video": "mpegvideo",
	"mpeg4":      "m4v",
}

// HardwareSuffixes are decoder name suffixes of hardware-accelerated ffmpeg
// decoders.
var HardwareSuffixes = []string{"_cuvid", "_qsv", "_videotoolbox", "_v4l2m2m", "_mediacodec", "_rkmpp", "_mmal", "_amf"}

// Pipeable reports whether id can be fed to ffmpeg as an elementary stream.
func Pipeable(id ports.CodecID) bool {
	_, ok := pipeFormats[id]
	return ok
}

// baseCodec derives the codec id from a decoder name, e.g. h264_cuvid -> h264.
func baseCodec(name string) (ports.CodecID, bool) {
	for _, s := range HardwareSuffixes {
		if strings.HasSuffix(name, s) {
			return ports.CodecID(strings.TrimSuffix(name, s)), true
		}
	}
	return ports.CodecID(name), false
}

// Codec is a decoder backed by an ffmpeg process.
type Codec struct {
	ffmpegPath string
	name       string
	longName   string
	id         ports.CodecID
	hardware   bool
}

// NewCodec describes the ffmpeg decoder name. ok is false when its codec
// cannot be piped.
func NewCodec(ffmpegPath, name, longName string) (*Codec, bool) {
	id, hw := baseCodec(name)
	if strings.HasPrefix(name, "mpeg2_") {
		id = "mpeg2video"
	}
	if !Pipeable(id) {
		return nil, false
	}
	return &Codec{ffmpegPath: ffmpegPath, name: name, longName: longName, id: id, hardware: hw}, true
}

// Catalog builds codecs for every pipeable video decoder in list.
func Catalog(ffmpegPath string, list []DecoderInfo) []*Codec {
	var out []*Codec
	for _, d := range list {
		if !d.Video {
			continue
		}
		if c, ok := NewCodec(ffmpegPath, d.Name, d.LongName); ok {
			out = append(out, c)
		}
	}
	return out
}

func (c *Codec) Name() string      { return c.name }
func (c *Codec) LongName() string  { return c.longName }
func (c *Codec) ID() ports.CodecID { return c.id }
func (c *Codec) Hardware() bool    { return c.hardware }

// Open starts an ffmpeg process for the stream.
func (c *Codec) Open(s ports.StreamInfo) (ports.Decoder, error) {
	return newDecoder(c, s)
}

var _ ports.Codec = (*Codec)(nil)
