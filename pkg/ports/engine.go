// Package ports defines the interfaces between the player and its engines,
// sinks, scheduler and host services.
package ports

import (
	"context"
	"time"

	"github.com/user/mediaplay/pkg/media"
)

// StreamKind is the media type of an elementary stream.
type StreamKind int

const (
	KindUnknown StreamKind = iota
	KindVideo
	KindAudio
	KindSubtitle
	KindData
)

func (k StreamKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSubtitle:
		return "subtitle"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// CodecID is the canonical codec name, e.g. "h264" or "rawvideo".
type CodecID string

// StreamInfo describes one elementary stream after probing.
type StreamInfo struct {
	Index        int
	Kind         StreamKind
	Codec        CodecID
	TimeBase     media.Rational
	AvgFrameRate media.Rational
	// Duration and StartTime are in TimeBase units. NoPTS when unknown.
	Duration    int64
	StartTime   int64
	BitRate     int64
	Width       int
	Height      int
	PixelFormat media.PixelFormat
	// Extradata is codec configuration, e.g. Annex-B SPS/PPS.
	Extradata []byte
	// FrameCount is the number of samples if the container knows it.
	FrameCount int64
	// Params is engine-private codec configuration, valid while the demuxer
	// that produced it is open.
	Params any
}

// Packet is one compressed unit read from a demuxer.
type Packet struct {
	StreamIndex int
	PTS         int64
	DTS         int64
	Keyframe    bool
	Data        []byte
}

// Reset clears the packet while keeping the data buffer.
func (p *Packet) Reset() {
	p.StreamIndex = -1
	p.PTS = media.NoPTS
	p.DTS = media.NoPTS
	p.Keyframe = false
	p.Data = p.Data[:0]
}

// Picture is one decoded image in the decoder's native layout.
type Picture struct {
	Width   int
	Height  int
	Format  media.PixelFormat
	Planes  [][]byte
	Strides []int
	PTS     int64
}

// SeekFlags modifies Demuxer.Seek.
type SeekFlags int

const (
	// SeekBackward lands on the nearest decodable point at or before the target.
	SeekBackward SeekFlags = 1 << iota
	// SeekAny allows landing on non-key units.
	SeekAny
)

// ScaleAlgorithm selects the converter's resampling filter.
type ScaleAlgorithm int

const (
	ScaleFastBilinear ScaleAlgorithm = iota
	ScaleBilinear
	ScaleBicubic
	ScalePoint
)

func (a ScaleAlgorithm) String() string {
	switch a {
	case ScaleFastBilinear:
		return "fast_bilinear"
	case ScaleBilinear:
		return "bilinear"
	case ScaleBicubic:
		return "bicubic"
	case ScalePoint:
		return "point"
	default:
		return "unknown"
	}
}

// PictureSpec is the geometry and layout a converter works with.
type PictureSpec struct {
	Width  int
	Height int
	Format media.PixelFormat
}

// CodecDescriptor lists a decoder known to an engine.
type CodecDescriptor struct {
	Name     string
	LongName string
	ID       CodecID
	Hardware bool
}

// Engine is the demuxing and decoding backend.
type Engine interface {
	// Name identifies the engine in logs, e.g. "native" or "libav".
	Name() string

	// Init performs process-wide registration. Callers guarantee it runs once.
	Init() error

	// FindInputFormat reports whether a forced input format is available.
	FindInputFormat(name string) bool

	// OpenInput opens url, forcing format when it is not empty.
	OpenInput(ctx context.Context, url, format string) (Demuxer, error)

	// FindDecoderByName looks a decoder up by its exact name.
	FindDecoderByName(name string) (Codec, bool)

	// FindDecoder returns the default decoder for a codec.
	FindDecoder(id CodecID) (Codec, bool)

	// Decoders lists every decoder the engine can instantiate.
	Decoders() []CodecDescriptor

	// NewConverter creates a pixel converter from src to dst.
	NewConverter(src, dst PictureSpec, alg ScaleAlgorithm) (Converter, error)
}

// CaptureDevice is one source a capture driver offers.
type CaptureDevice struct {
	Name        string
	Description string
	Default     bool
}

// DeviceLister is implemented by engines that can enumerate capture
// devices.
type DeviceLister interface {
	// CaptureDevices lists the devices of capture format, e.g. "v4l2".
	CaptureDevices(format string) ([]CaptureDevice, error)
}

// Demuxer is an open input.
type Demuxer interface {
	// FindStreamInfo probes the input so Streams is complete.
	FindStreamInfo() error

	// Streams returns the probed streams.
	Streams() []StreamInfo

	// FindBestStream returns the preferred stream of kind, or -1.
	FindBestStream(kind StreamKind) int

	// Duration returns the container duration in microseconds, or NoPTS.
	Duration() int64

	// ReadPacket fills pkt with the next unit. It returns io.EOF at the end.
	ReadPacket(pkt *Packet) error

	// Seek repositions stream to ts in that stream's time base.
	Seek(stream int, ts int64, flags SeekFlags) error

	Close() error
}

// Codec is a decoder factory.
type Codec interface {
	Name() string
	LongName() string
	ID() CodecID
	Hardware() bool
	// Open creates a decoder configured for the stream.
	Open(stream StreamInfo) (Decoder, error)
}

// Decoder uses send/receive semantics.
type Decoder interface {
	// SendPacket submits a unit. A nil packet starts draining.
	// ErrAgain means a picture must be received first.
	SendPacket(pkt *Packet) error

	// ReceivePicture returns ErrAgain when more input is needed and io.EOF
	// once drained.
	ReceivePicture(pic *Picture) error

	// Output reports the pictures the decoder is expected to produce, as far
	// as known once opened. It may differ from the stream parameters, e.g.
	// NV12 from a hardware decoder. Zero fields are unknown.
	Output() PictureSpec

	Close() error
}

// Converter converts a decoded picture into a packed destination buffer.
type Converter interface {
	Convert(src *Picture, dst []byte, dstStride int) error
	Close() error
}

// SleepPolicy controls how a scheduler waits between task invocations.
type SleepPolicy int

const (
	// SleepUntil waits until previous tick + interval.
	SleepUntil SleepPolicy = iota
	// SleepFor waits interval after the task returned.
	SleepFor
)

// Scheduler repeatedly invokes a task on a single worker.
type Scheduler interface {
	// Register starts invoking task every interval until it returns false
	// or Unregister is called.
	Register(task func() bool, interval time.Duration, policy SleepPolicy) error

	// Unregister stops the worker and waits for an in-flight invocation.
	// It is safe to call more than once.
	Unregister()

	// Running reports whether a task is registered and active.
	Running() bool
}
