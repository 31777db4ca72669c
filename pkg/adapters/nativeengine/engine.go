// Package nativeengine is a pure-Go ports.Engine. It demuxes Y4M, MP4 and
// MPEG-TS, decodes rawvideo and MJPEG in process, and hands other video
// codecs to an external ffmpeg when one is installed.
package nativeengine

import (
	"context"
	"sort"

	"github.com/user/mediaplay/pkg/adapters/ffmpegdecoder"
	"github.com/user/mediaplay/pkg/adapters/imgconvert"
	"github.com/user/mediaplay/pkg/adapters/logger"
	"github.com/user/mediaplay/pkg/adapters/swdecoder"
	"github.com/user/mediaplay/pkg/ports"
)

// Options configures the engine.
type Options struct {
	// FFmpegPath overrides ffmpeg discovery.
	FFmpegPath string
	// DisableFFmpeg keeps the engine to in-process decoders only.
	DisableFFmpeg bool
	Logger        ports.Logger
}

// Engine implements ports.Engine.
type Engine struct {
	opts     Options
	log      ports.Logger
	ffmpeg   string
	external []*ffmpegdecoder.Codec
}

// New creates an engine. Decoder discovery happens in Init.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Engine{opts: opts, log: log.WithComponent("native")}
}

func (e *Engine) Name() string { return "native" }

// Init locates ffmpeg and lists its decoders. A missing ffmpeg is not an
// error; only rawvideo and mjpeg are then available.
func (e *Engine) Init() error {
	if e.opts.DisableFFmpeg {
		return nil
	}
	path, err := ffmpegdecoder.FindFFmpeg(e.opts.FFmpegPath)
	if err != nil {
		e.log.Debug("ffmpeg not available: %v", err)
		return nil
	}
	list, err := ffmpegdecoder.ListDecoders(context.Background(), path)
	if err != nil {
		e.log.Warn("Failed to list ffmpeg decoders: %v", err)
		return nil
	}
	e.ffmpeg = path
	e.external = ffmpegdecoder.Catalog(path, list)
	e.log.Debug("ffmpeg at %s provides %d pipeable decoders", path, len(e.external))
	return nil
}

// FindInputFormat reports whether a forced format name is demuxable.
// Capture device formats are never available.
func (e *Engine) FindInputFormat(name string) bool {
	_, ok := formatAliases[name]
	return ok
}

func (e *Engine) FindDecoderByName(name string) (ports.Codec, bool) {
	if c, ok := swdecoder.ByName(name); ok {
		return c, true
	}
	for _, c := range e.external {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// FindDecoder prefers in-process decoders, then the first software ffmpeg
// decoder for id.
func (e *Engine) FindDecoder(id ports.CodecID) (ports.Codec, bool) {
	if c, ok := swdecoder.ByID(id); ok {
		return c, true
	}
	for _, c := range e.external {
		if c.ID() == id && !c.Hardware() {
			return c, true
		}
	}
	return nil, false
}

func (e *Engine) Decoders() []ports.CodecDescriptor {
	var out []ports.CodecDescriptor
	for _, c := range swdecoder.Codecs() {
		out = append(out, describe(c))
	}
	for _, c := range e.external {
		out = append(out, describe(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func describe(c ports.Codec) ports.CodecDescriptor {
	return ports.CodecDescriptor{Name: c.Name(), LongName: c.LongName(), ID: c.ID(), Hardware: c.Hardware()}
}

func (e *Engine) NewConverter(src, dst ports.PictureSpec, alg ports.ScaleAlgorithm) (ports.Converter, error) {
	c, err := imgconvert.New(src, dst, alg)
	if err != nil {
		return nil, ports.NewStatusError("converter", ports.CodeEINVAL, err)
	}
	return c, nil
}

var _ ports.Engine = (*Engine)(nil)
