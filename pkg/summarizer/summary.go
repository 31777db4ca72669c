package summarizer

import (
	"time"

	"github.com/user/mediaplay/pkg/player"
)

// Summary contains all data collected during a playback run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	Source   SourceInfo
	Stream   StreamInfo
	Playback PlaybackInfo
	Settings Settings
}

// SourceInfo describes what was opened.
type SourceInfo struct {
	Type string
	Src  string
	// Input and Format are what the engine was asked to open.
	Input  string
	Format string
}

// StreamInfo describes the decoded video stream.
type StreamInfo struct {
	Codec            string
	Decoder          string
	Hardware         bool
	HardwareFallback bool

	Width       int
	Height      int
	PixelFormat string
	OutWidth    int
	OutHeight   int

	FPS         int
	FallbackFPS bool
	DurationMs  int64
	StartTimeMs int64
	TimeBase    string
}

// PlaybackInfo contains the outcome of the run.
type PlaybackInfo struct {
	Frames      int64
	Signal      string
	ElapsedMs   int64
	MeasuredFPS float64
	Interrupted bool
	Error       string
}

// Settings contains the run configuration.
type Settings struct {
	Engine     string
	DecodeMode string
	DrainAtEnd bool
	Sink       string
	StartAtMs  int64
	MaxFrames  int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithPlayerInfo fills source and stream details from a session snapshot.
func (b *Builder) WithPlayerInfo(info player.Info) *Builder {
	b.summary.Source = SourceInfo{
		Type:   info.Source.Type.String(),
		Src:    info.Source.Src,
		Input:  info.Input,
		Format: info.Format,
	}
	b.summary.Stream = StreamInfo{
		Codec:            string(info.Codec),
		Decoder:          info.Decoder,
		Hardware:         info.Hardware,
		HardwareFallback: info.HardwareFallback,
		Width:            info.SrcWidth,
		Height:           info.SrcHeight,
		PixelFormat:      info.SrcFormat.String(),
		OutWidth:         info.DstWidth,
		OutHeight:        info.DstHeight,
		FPS:              info.FPS,
		FallbackFPS:      info.FallbackFPS,
		DurationMs:       info.DurationMs,
		StartTimeMs:      info.StartTimeMs,
		TimeBase:         info.TimeBase.String(),
	}
	b.summary.Playback.Frames = info.Frames
	b.summary.Playback.Signal = info.Signal.String()
	return b
}

// WithPlayback sets run timing and outcome. A nil err leaves Error empty.
func (b *Builder) WithPlayback(elapsed time.Duration, measuredFPS float64, interrupted bool, err error) *Builder {
	b.summary.Playback.ElapsedMs = elapsed.Milliseconds()
	b.summary.Playback.MeasuredFPS = measuredFPS
	b.summary.Playback.Interrupted = interrupted
	if err != nil {
		b.summary.Playback.Error = err.Error()
	}
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
