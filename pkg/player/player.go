// Package player runs a single-stream decode session: it opens a source
// through a ports.Engine, decodes the best video stream and delivers
// converted, timestamped frames to a sink at the stream's frame rate.
package player

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/mediaplay/pkg/adapters/logger"
	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// Player owns at most one decode session at a time.
type Player struct {
	engine ports.Engine
	sched  ports.Scheduler
	sink   ports.FrameSink
	opts   Options
	log    ports.Logger

	// ctrl serializes Start and Stop.
	ctrl sync.Mutex
	// mu serializes the decode cycle, Seek and cleanup.
	mu   sync.Mutex
	sess session

	infoMu sync.RWMutex
	info   Info
	err    error

	signal media.SignalState
	frames atomic.Int64
}

// New creates a player. A nil sink discards frames.
func New(engine ports.Engine, sched ports.Scheduler, sink ports.FrameSink, opts Options) *Player {
	opts = opts.withDefaults()
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	if sink == nil {
		sink = ports.FrameSinkFunc(func(*media.Frame) error { return nil })
	}
	return &Player{
		engine: engine,
		sched:  sched,
		sink:   sink,
		opts:   opts,
		log:    log.WithComponent("player"),
		info:   Info{VideoStream: -1, AudioStream: -1, SubtitleStream: -1},
	}
}

// Start opens src and registers the decode cycle with the scheduler. Every
// failure leaves the session torn down.
func (p *Player) Start(src media.Source) error {
	return p.StartAt(src, 0)
}

// StartAt is Start with an initial seek to ms, applied before the cycle is
// registered so no frame from the stream start is delivered. A ms of zero or
// less starts at the beginning.
func (p *Player) StartAt(src media.Source, ms int64) error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess.open() || p.sched.Running() {
		return ErrSessionActive
	}

	info, err := p.open(src)
	if err == nil && ms > 0 {
		err = p.seek(ms, info.StartTimeMs)
	}
	if err != nil {
		p.cleanup()
		p.log.Error("Failed to start %s: %v", src.Src, err)
		return err
	}

	interval := time.Duration(1000/info.FPS) * time.Millisecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	if err := p.sched.Register(p.cycle, interval, ports.SleepUntil); err != nil {
		p.cleanup()
		err = newError(ErrSchedulerFailed, err)
		p.log.Error("Failed to start %s: %v", src.Src, err)
		return err
	}

	// The cycle needs mu, so it cannot observe the previous signal.
	p.signal.Reset()
	p.frames.Store(0)
	p.infoMu.Lock()
	p.info = info
	p.err = nil
	p.infoMu.Unlock()

	p.log.Info("Playing %s at %d fps (%s)", src.Src, info.FPS, info.Decoder)
	return nil
}

// open acquires every session resource. The caller cleans up on error.
func (p *Player) open(src media.Source) (Info, error) {
	info := Info{Source: src, VideoStream: -1, AudioStream: -1, SubtitleStream: -1}

	if err := ensureEngineInitialized(p.engine); err != nil {
		return info, newError(ErrEngineInitFailed, err)
	}

	url, format, err := platformInput(src)
	if err != nil {
		return info, err
	}
	if format != "" && !p.engine.FindInputFormat(format) {
		return info, &Error{Kind: ErrUnsupportedCaptureBackend, Code: ports.CodeDemuxerNotFound,
			Err: ports.NewStatusError("find input format "+format, ports.CodeDemuxerNotFound, nil)}
	}
	info.Input, info.Format = url, format
	p.log.Debug("Opening input %s", url)

	demuxer, err := p.engine.OpenInput(context.Background(), url, format)
	if err != nil {
		return info, newError(ErrOpenFailed, err)
	}
	p.sess.demuxer = demuxer

	if err := demuxer.FindStreamInfo(); err != nil {
		return info, newError(ErrProbeFailed, err)
	}
	streams := demuxer.Streams()
	info.VideoStream = demuxer.FindBestStream(ports.KindVideo)
	info.AudioStream = demuxer.FindBestStream(ports.KindAudio)
	info.SubtitleStream = demuxer.FindBestStream(ports.KindSubtitle)
	p.log.Debug("Streams: %d total, video=%d audio=%d subtitle=%d",
		len(streams), info.VideoStream, info.AudioStream, info.SubtitleStream)
	if info.VideoStream < 0 || info.VideoStream >= len(streams) {
		info.VideoStream = -1
		return info, ErrNoVideoStream
	}
	stream := streams[info.VideoStream]

	p.applyTiming(&info, stream)
	p.log.Debug("fps=%d duration=%dms start_time=%dms", info.FPS, info.DurationMs, info.StartTimeMs)

	codec, err := p.selectDecoder(&info, src.DecodeMode, stream.Codec)
	if err != nil {
		return info, err
	}
	decoder, err := codec.Open(stream)
	if err != nil {
		return info, newError(ErrDecoderOpenFailed, err)
	}
	p.sess.decoder = decoder
	p.log.Debug("Decoder %s (%s)", codec.Name(), codec.LongName())

	out := decoder.Output()
	if out.Width <= 0 || out.Height <= 0 {
		out.Width, out.Height = stream.Width, stream.Height
	}
	if out.Format == media.PixelFormatNone {
		out.Format = stream.PixelFormat
	}
	if err := p.openConverter(&info, out); err != nil {
		return info, err
	}
	p.sess.frame = &media.Frame{}
	p.sess.frame.Resize(info.DstWidth, info.DstHeight, info.DstFormat)
	p.sess.picture = &ports.Picture{}
	p.sess.packet = &ports.Packet{}
	p.sess.packet.Reset()
	p.sess.videoIndex = info.VideoStream
	p.sess.timeBase = info.TimeBase
	p.sess.pending = false
	p.sess.draining = false
	p.sess.lastDTS = media.NoPTS
	return info, nil
}

// openConverter replaces the session converter with one taking src pictures
// to BGR24 at src size, the width rounded down to a multiple of 4.
func (p *Player) openConverter(info *Info, src ports.PictureSpec) error {
	dst := ports.PictureSpec{Width: src.Width &^ 3, Height: src.Height, Format: media.PixelFormatBGR24}
	if dst.Width <= 0 || dst.Height <= 0 {
		return &Error{Kind: ErrConverterInitFailed, Code: ports.CodeEINVAL,
			Err: ports.NewStatusError("converter", ports.CodeEINVAL, nil)}
	}
	if p.sess.converter != nil {
		if err := p.sess.converter.Close(); err != nil {
			p.log.Warn("Failed to release %s: %v", "converter", err)
		}
		p.sess.converter = nil
	}
	converter, err := p.engine.NewConverter(src, dst, p.opts.Scale)
	if err != nil {
		return newError(ErrConverterInitFailed, err)
	}
	p.sess.converter = converter
	p.sess.src, p.sess.dst = src, dst
	info.SrcWidth, info.SrcHeight, info.SrcFormat = src.Width, src.Height, src.Format
	info.DstWidth, info.DstHeight, info.DstFormat = dst.Width, dst.Height, dst.Format
	p.log.Debug("Converting %dx%d %s to %dx%d %s", src.Width, src.Height, src.Format,
		dst.Width, dst.Height, dst.Format)
	return nil
}

// applyTiming derives fps, duration and start time from the stream.
func (p *Player) applyTiming(info *Info, stream ports.StreamInfo) {
	info.TimeBase = stream.TimeBase
	if stream.TimeBase.Valid() {
		if stream.Duration != media.NoPTS {
			info.DurationMs = media.TicksToMillis(stream.Duration, stream.TimeBase)
		}
		if stream.StartTime != media.NoPTS {
			info.StartTimeMs = media.TicksToMillis(stream.StartTime, stream.TimeBase)
		}
	}

	if stream.AvgFrameRate.Valid() && stream.AvgFrameRate.Float() > 0 {
		info.FPS = int(math.Round(stream.AvgFrameRate.Float()))
		if info.FPS < 1 {
			info.FPS = 1
		}
		return
	}
	info.FPS = p.opts.FallbackFPS
	info.FallbackFPS = true
	p.log.Warn("Stream reports no frame rate, pacing at %d fps", info.FPS)
}

// selectDecoder resolves the decoder once per session. A missing hardware
// decoder falls back to software.
func (p *Player) selectDecoder(info *Info, mode media.DecodeMode, id ports.CodecID) (ports.Codec, error) {
	info.Codec = id
	if mode == media.DecodeHardware {
		for _, suffix := range p.opts.HardwareSuffixes {
			name := string(id) + suffix
			if codec, ok := p.engine.FindDecoderByName(name); ok {
				info.Decoder = codec.Name()
				info.Hardware = true
				return codec, nil
			}
			p.log.Debug("Hardware decoder %s not found", name)
		}
		info.HardwareFallback = true
		p.log.Warn("No hardware decoder for %s, falling back to software", id)
	}

	codec, ok := p.engine.FindDecoder(id)
	if !ok {
		return nil, &Error{Kind: ErrDecoderNotFound, Code: ports.CodeDecoderNotFound,
			Err: ports.NewStatusError("find decoder "+string(id), ports.CodeDecoderNotFound, nil)}
	}
	info.Decoder = codec.Name()
	info.Hardware = codec.Hardware()
	return codec, nil
}

// Stop unregisters the decode cycle, waiting for a running one, then
// releases the session. It is safe to call at any time.
func (p *Player) Stop() {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	p.sched.Unregister()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess.open() {
		p.log.Debug("Stopping after %d frames", p.frames.Load())
	}
	p.cleanup()
}

// Close stops the player.
func (p *Player) Close() error {
	p.Stop()
	return nil
}

// cleanup walks releaseOrder. Caller holds mu.
func (p *Player) cleanup() {
	for _, slot := range releaseOrder {
		if err := slot.release(&p.sess); err != nil {
			p.log.Warn("Failed to release %s: %v", slot.name, err)
		}
	}
}

// Seek repositions the video stream to the nearest decodable point at or
// before ms, measured from the stream start. Without a session it does
// nothing.
func (p *Player) Seek(ms int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess.demuxer == nil {
		return nil
	}
	return p.seek(ms, p.StartTimeMs())
}

// seek moves the demuxer. Caller holds mu.
func (p *Player) seek(ms, startMs int64) error {
	target := media.MillisToTicks(startMs+ms, p.sess.timeBase)
	p.log.Debug("Seek to %dms (ts=%d)", ms, target)
	if err := p.sess.demuxer.Seek(p.sess.videoIndex, target, ports.SeekBackward); err != nil {
		return newError(ErrSeekFailed, err)
	}
	// A unit refused before the seek belongs to the old position.
	p.sess.pending = false
	return nil
}

// FPS returns the pacing rate of the current or last session.
func (p *Player) FPS() int {
	p.infoMu.RLock()
	defer p.infoMu.RUnlock()
	return p.info.FPS
}

// DurationMs returns the video stream duration in milliseconds.
func (p *Player) DurationMs() int64 {
	p.infoMu.RLock()
	defer p.infoMu.RUnlock()
	return p.info.DurationMs
}

// StartTimeMs returns the video stream start offset in milliseconds.
func (p *Player) StartTimeMs() int64 {
	p.infoMu.RLock()
	defer p.infoMu.RUnlock()
	return p.info.StartTimeMs
}

// Signal returns the playback status.
func (p *Player) Signal() media.Signal {
	return p.signal.Load()
}

// Frames returns the number of frames delivered in the current session.
func (p *Player) Frames() int64 {
	return p.frames.Load()
}

// Err returns the decode failure that set SignalError, if any.
func (p *Player) Err() error {
	p.infoMu.RLock()
	defer p.infoMu.RUnlock()
	return p.err
}

// Info returns a snapshot of the session parameters.
func (p *Player) Info() Info {
	p.infoMu.RLock()
	info := p.info
	p.infoMu.RUnlock()
	info.Frames = p.frames.Load()
	info.Signal = p.signal.Load()
	return info
}

// finish records a terminal signal. Only the first one sticks.
func (p *Player) finish(sig media.Signal, cause error) {
	if !p.signal.Finish(sig) {
		return
	}
	if sig == media.SignalError {
		p.infoMu.Lock()
		p.err = cause
		p.infoMu.Unlock()
		p.log.Error("Decoding failed: %v", cause)
		return
	}
	if cause != nil && !errors.Is(cause, io.EOF) {
		p.log.Debug("Input ended: %v", cause)
	}
	p.log.Info("End of stream after %d frames", p.frames.Load())
}
