package player

import (
	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// DefaultFallbackFPS paces sources that report no usable frame rate.
const DefaultFallbackFPS = 25

// DefaultHardwareSuffixes are tried in order after the codec name when
// hardware decoding is requested.
var DefaultHardwareSuffixes = []string{"_cuvid", "_qsv", "_videotoolbox", "_v4l2m2m"}

// Options configures a Player.
type Options struct {
	// FallbackFPS is used when the stream's average frame rate is unknown.
	FallbackFPS int
	// HardwareSuffixes overrides DefaultHardwareSuffixes.
	HardwareSuffixes []string
	// DrainAtEnd flushes the decoder's delayed pictures once input ends.
	DrainAtEnd bool
	// Scale is the converter's resampling filter.
	Scale  ports.ScaleAlgorithm
	Logger ports.Logger
}

func (o Options) withDefaults() Options {
	if o.FallbackFPS <= 0 {
		o.FallbackFPS = DefaultFallbackFPS
	}
	if o.HardwareSuffixes == nil {
		o.HardwareSuffixes = DefaultHardwareSuffixes
	}
	return o
}

// Info is a snapshot of the current or last session.
type Info struct {
	Source media.Source
	Input  string
	Format string

	FPS         int
	FallbackFPS bool
	DurationMs  int64
	StartTimeMs int64
	TimeBase    media.Rational

	VideoStream    int
	AudioStream    int
	SubtitleStream int

	Codec            ports.CodecID
	Decoder          string
	Hardware         bool
	HardwareFallback bool

	SrcWidth  int
	SrcHeight int
	SrcFormat media.PixelFormat
	DstWidth  int
	DstHeight int
	DstFormat media.PixelFormat

	Frames int64
	Signal media.Signal
}
