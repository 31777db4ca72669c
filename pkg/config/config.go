// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/orchestrator"
	"github.com/user/mediaplay/pkg/player"
	"github.com/user/mediaplay/pkg/ports"
)

// Engine names.
const (
	EngineNative = "native"
	EngineLibav  = "libav"
)

// Sink kinds.
const (
	SinkNull     = "null"
	SinkRaw      = "raw"
	SinkSnapshot = "snapshot"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config represents the full configuration for mediaplay.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Engine string       `yaml:"engine"`

	// Decoding
	FallbackFPS      int      `yaml:"fallback_fps"`
	HardwareSuffixes []string `yaml:"hardware_suffixes"`
	DrainAtEnd       bool     `yaml:"drain_at_end"`
	Scale            string   `yaml:"scale"`
	FFmpegPath       string   `yaml:"ffmpeg_path"`

	// Run control
	StartAtMs          int64 `yaml:"start_at_ms"`
	MaxFrames          int64 `yaml:"max_frames"`
	ProgressIntervalMs int   `yaml:"progress_interval_ms"`

	Sink    SinkConfig    `yaml:"sink"`
	Summary SummaryConfig `yaml:"summary"`

	LogLevel      string `yaml:"log_level"`
	LogTimestamps bool   `yaml:"log_timestamps"`
}

// SourceConfig selects what to play.
type SourceConfig struct {
	Type       string `yaml:"type"`
	Src        string `yaml:"src"`
	DecodeMode string `yaml:"decode_mode"`
}

// SinkConfig selects where decoded frames go.
type SinkConfig struct {
	Kind   string `yaml:"kind"`
	Output string `yaml:"output"`
	// Every, Overlay, Format and Width apply to the snapshot sink.
	Every    int    `yaml:"every"`
	Overlay  bool   `yaml:"overlay"`
	Format   string `yaml:"format"`
	Width    int    `yaml:"width"`
	FontPath string `yaml:"font_path"`
}

// SummaryConfig controls the end-of-run report.
type SummaryConfig struct {
	// Output is a file path, written as Markdown for .md and as text
	// otherwise. Empty prints text to stdout.
	Output string `yaml:"output"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Source: SourceConfig{
			DecodeMode: "software",
		},
		Engine: EngineNative,

		FallbackFPS:      player.DefaultFallbackFPS,
		HardwareSuffixes: append([]string(nil), player.DefaultHardwareSuffixes...),
		DrainAtEnd:       true,
		Scale:            "fast_bilinear",

		ProgressIntervalMs: 1000,

		Sink: SinkConfig{
			Kind:   SinkNull,
			Every:  25,
			Format: "png",
		},

		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(fs ports.FileSystem, path string) (Config, error) {
	cfg := Defaults()

	data, err := fs.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	if c.Source.Src == "" {
		invalid("source.src is required")
	}
	if _, err := c.MediaSource(); err != nil {
		invalid("source: %v", err)
	}
	switch c.Engine {
	case EngineNative, EngineLibav:
	default:
		invalid("engine %q (want native or libav)", c.Engine)
	}
	if c.FallbackFPS < 0 {
		invalid("fallback_fps must not be negative")
	}
	if _, ok := parseScale(c.Scale); !ok {
		invalid("scale %q", c.Scale)
	}
	if c.StartAtMs < 0 {
		invalid("start_at_ms must not be negative")
	}
	if c.MaxFrames < 0 {
		invalid("max_frames must not be negative")
	}
	if c.ProgressIntervalMs < 0 {
		invalid("progress_interval_ms must not be negative")
	}

	switch c.Sink.Kind {
	case SinkNull:
	case SinkRaw:
		if c.Sink.Output == "" {
			invalid("sink.output is required for the raw sink")
		}
	case SinkSnapshot:
		if c.Sink.Output == "" {
			invalid("sink.output is required for the snapshot sink")
		}
		if c.Sink.Every < 1 {
			invalid("sink.every must be at least 1")
		}
		if _, ok := parseImageFormat(c.Sink.Format); !ok {
			invalid("sink.format %q (want png or jpeg)", c.Sink.Format)
		}
	default:
		invalid("sink.kind %q (want null, raw or snapshot)", c.Sink.Kind)
	}

	if _, ok := ports.ParseLogLevel(c.LogLevel); !ok {
		invalid("log_level %q", c.LogLevel)
	}
	return errors.Join(errs...)
}

// Overrides holds values set explicitly on the command line. Nil fields keep
// the file or default value.
type Overrides struct {
	SourceType   *string
	Src          *string
	DecodeMode   *string
	Engine       *string
	FallbackFPS  *int
	DrainAtEnd   *bool
	FFmpegPath   *string
	StartAtMs    *int64
	MaxFrames    *int64
	SinkKind     *string
	SinkOutput   *string
	SinkEvery    *int
	SinkOverlay  *bool
	SummaryPath  *string
	LogLevel     *string
	Timestamps   *bool
	HardwareList []string
}

// Merge applies overrides on a copy of c.
func (c Config) Merge(o Overrides) Config {
	setString(&c.Source.Type, o.SourceType)
	setString(&c.Source.Src, o.Src)
	setString(&c.Source.DecodeMode, o.DecodeMode)
	setString(&c.Engine, o.Engine)
	if o.FallbackFPS != nil {
		c.FallbackFPS = *o.FallbackFPS
	}
	if o.DrainAtEnd != nil {
		c.DrainAtEnd = *o.DrainAtEnd
	}
	setString(&c.FFmpegPath, o.FFmpegPath)
	if o.StartAtMs != nil {
		c.StartAtMs = *o.StartAtMs
	}
	if o.MaxFrames != nil {
		c.MaxFrames = *o.MaxFrames
	}
	setString(&c.Sink.Kind, o.SinkKind)
	setString(&c.Sink.Output, o.SinkOutput)
	if o.SinkEvery != nil {
		c.Sink.Every = *o.SinkEvery
	}
	if o.SinkOverlay != nil {
		c.Sink.Overlay = *o.SinkOverlay
	}
	setString(&c.Summary.Output, o.SummaryPath)
	setString(&c.LogLevel, o.LogLevel)
	if o.Timestamps != nil {
		c.LogTimestamps = *o.Timestamps
	}
	if o.HardwareList != nil {
		c.HardwareSuffixes = append([]string(nil), o.HardwareList...)
	}
	return c
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// MediaSource converts the source section. An empty type is guessed from
// the URL scheme.
func (c Config) MediaSource() (media.Source, error) {
	mode, err := media.ParseDecodeMode(c.Source.DecodeMode)
	if err != nil {
		return media.Source{}, err
	}
	if c.Source.Type == "" {
		return media.SourceFromString(c.Source.Src, mode), nil
	}
	typ, err := media.ParseSourceType(c.Source.Type)
	if err != nil {
		return media.Source{}, err
	}
	return media.Source{Type: typ, Src: c.Source.Src, DecodeMode: mode}, nil
}

// PlayerOptions converts Config to player.Options.
func (c Config) PlayerOptions(logger ports.Logger) player.Options {
	scale, _ := parseScale(c.Scale)
	return player.Options{
		FallbackFPS:      c.FallbackFPS,
		HardwareSuffixes: c.HardwareSuffixes,
		DrainAtEnd:       c.DrainAtEnd,
		Scale:            scale,
		Logger:           logger,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() (orchestrator.Config, error) {
	src, err := c.MediaSource()
	if err != nil {
		return orchestrator.Config{}, err
	}
	return orchestrator.Config{
		Source:           src,
		StartAtMs:        c.StartAtMs,
		MaxFrames:        c.MaxFrames,
		ProgressInterval: time.Duration(c.ProgressIntervalMs) * time.Millisecond,
	}, nil
}

// ImageFormat returns the snapshot encoding.
func (c Config) ImageFormat() ports.ImageFormat {
	f, _ := parseImageFormat(c.Sink.Format)
	return f
}

func parseScale(s string) (ports.ScaleAlgorithm, bool) {
	switch strings.ToLower(s) {
	case "", "fast_bilinear":
		return ports.ScaleFastBilinear, true
	case "bilinear":
		return ports.ScaleBilinear, true
	case "bicubic":
		return ports.ScaleBicubic, true
	case "point":
		return ports.ScalePoint, true
	}
	return ports.ScaleFastBilinear, false
}

func parseImageFormat(s string) (ports.ImageFormat, bool) {
	switch strings.ToLower(s) {
	case "", "png":
		return ports.FormatPNG, true
	case "jpeg", "jpg":
		return ports.FormatJPEG, true
	}
	return ports.FormatPNG, false
}
