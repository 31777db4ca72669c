package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/mediaplay/pkg/adapters/ggrenderer"
	"github.com/user/mediaplay/pkg/adapters/libavengine"
	"github.com/user/mediaplay/pkg/adapters/logger"
	"github.com/user/mediaplay/pkg/adapters/nativeengine"
	"github.com/user/mediaplay/pkg/adapters/nullsink"
	"github.com/user/mediaplay/pkg/adapters/osfilesystem"
	"github.com/user/mediaplay/pkg/adapters/rawsink"
	"github.com/user/mediaplay/pkg/adapters/snapshotsink"
	"github.com/user/mediaplay/pkg/adapters/ticker"
	"github.com/user/mediaplay/pkg/adapters/y4m"
	"github.com/user/mediaplay/pkg/config"
	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/orchestrator"
	"github.com/user/mediaplay/pkg/player"
	"github.com/user/mediaplay/pkg/ports"
	"github.com/user/mediaplay/pkg/summarizer"
)

var (
	errNoSource     = errors.New("a source argument is required")
	errNoDeviceList = errors.New("engine cannot list capture devices")
)

// runPlay executes the play command.
func runPlay(c *cli.Context) error {
	cfg, err := loadConfig(c, true)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	fs := osfilesystem.New()
	sink, closeSink, err := newSink(cfg, fs)
	if err != nil {
		return err
	}
	defer closeSink()

	runConfig, err := cfg.ToOrchestratorConfig()
	if err != nil {
		return err
	}

	p := player.New(engine, ticker.New(), sink, cfg.PlayerOptions(log))
	defer p.Close()

	result, runErr := orchestrator.New(p, log).Run(ctx, runConfig)

	summary := summarizer.NewBuilder().
		WithPlayerInfo(result.Info).
		WithPlayback(result.Elapsed, result.MeasuredFPS, result.Interrupted, runErr).
		WithSettings(summarizer.Settings{
			Engine:     cfg.Engine,
			DecodeMode: cfg.Source.DecodeMode,
			DrainAtEnd: cfg.DrainAtEnd,
			Sink:       cfg.Sink.Kind,
			StartAtMs:  cfg.StartAtMs,
			MaxFrames:  cfg.MaxFrames,
		}).
		Build()

	if cfg.Summary.Output != "" {
		if err := summarizer.NewWriter(fs).Write(cfg.Summary.Output, summary); err != nil {
			log.Warn("Failed to write summary: %v", err)
		} else {
			log.Info("Summary saved to %s", cfg.Summary.Output)
		}
	} else {
		fmt.Fprint(c.App.Writer, summarizer.NewTextFormatter().Format(summary))
	}

	return runErr
}

// runProbe opens the source, prints what the session found and stops
// before the first frame is consumed.
func runProbe(c *cli.Context) error {
	cfg, err := loadConfig(c, true)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	src, err := cfg.MediaSource()
	if err != nil {
		return err
	}

	p := player.New(engine, ticker.New(), nullsink.New(), cfg.PlayerOptions(log))
	if err := p.Start(src); err != nil {
		return err
	}
	info := p.Info()
	p.Stop()

	printInfo(c.App.Writer, info)
	return nil
}

// runDecoders lists the engine's video decoders, hardware ones marked H.
func runDecoders(c *cli.Context) error {
	cfg, err := loadConfig(c, false)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg, newLogger(c, cfg))
	if err != nil {
		return err
	}
	if err := engine.Init(); err != nil {
		return err
	}

	w := c.App.Writer
	for _, d := range engine.Decoders() {
		mark := "S"
		if d.Hardware {
			mark = "H"
		}
		fmt.Fprintf(w, "%s %-24s %-12s %s\n", mark, d.Name, d.ID, d.LongName)
	}
	return nil
}

// runDevices lists the capture devices of the platform capture driver.
func runDevices(c *cli.Context) error {
	cfg, err := loadConfig(c, false)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg, newLogger(c, cfg))
	if err != nil {
		return err
	}
	if err := engine.Init(); err != nil {
		return err
	}
	format := media.CaptureFormat(runtime.GOOS)
	if format == "" {
		return fmt.Errorf("%w: %s", player.ErrUnsupportedCaptureBackend, runtime.GOOS)
	}
	return listDevices(c.App.Writer, engine, format)
}

// listDevices prints the devices of capture format, the default one marked
// with an asterisk.
func listDevices(w io.Writer, engine ports.Engine, format string) error {
	lister, ok := engine.(ports.DeviceLister)
	if !ok {
		return fmt.Errorf("%w: %s", errNoDeviceList, engine.Name())
	}
	devices, err := lister.CaptureDevices(format)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, l10n.F("No %s capture devices found", format))
		return nil
	}
	for _, d := range devices {
		mark := " "
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-24s %s\n", mark, d.Name, d.Description)
	}
	return nil
}

// runGenerate writes a Y4M test pattern.
func runGenerate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New(l10n.T("an output path is required"))
	}

	f, err := osfilesystem.New().Create(path)
	if err != nil {
		return err
	}
	err = y4m.WritePattern(f, y4m.PatternOptions{
		Width:     c.Int("width"),
		Height:    c.Int("height"),
		FrameRate: media.Rational{Num: c.Int("fps"), Den: 1},
		Frames:    c.Int("frames"),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("generate %s: %w", path, err)
	}
	fmt.Fprintln(c.App.Writer, l10n.F("Wrote %d frames to %s", c.Int("frames"), path))
	return nil
}

// loadConfig reads --config, applies flags and validates. Commands that do
// not open a source skip the source check.
func loadConfig(c *cli.Context, needSource bool) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(osfilesystem.New(), path); err != nil {
			return cfg, err
		}
	}
	cfg = cfg.Merge(overridesFrom(c))

	if !needSource {
		cfg.Source.Src = "-"
	} else if cfg.Source.Src == "" {
		return cfg, errNoSource
	}
	return cfg, cfg.Validate()
}

// overridesFrom collects the flags the user actually set.
func overridesFrom(c *cli.Context) config.Overrides {
	var o config.Overrides
	if src := c.Args().First(); src != "" {
		o.Src = &src
	}
	o.SourceType = stringFlag(c, "type")
	if c.IsSet("hw") {
		mode := media.DecodeSoftware.String()
		if c.Bool("hw") {
			mode = media.DecodeHardware.String()
		}
		o.DecodeMode = &mode
	}
	o.Engine = stringFlag(c, "engine")
	o.FFmpegPath = stringFlag(c, "ffmpeg")
	if c.IsSet("fallback-fps") {
		v := c.Int("fallback-fps")
		o.FallbackFPS = &v
	}
	if c.IsSet("hw-suffix") {
		o.HardwareList = c.StringSlice("hw-suffix")
	}
	if c.IsSet("no-drain") {
		v := !c.Bool("no-drain")
		o.DrainAtEnd = &v
	}
	if c.IsSet("start") {
		v := c.Int64("start")
		o.StartAtMs = &v
	}
	if c.IsSet("max-frames") {
		v := c.Int64("max-frames")
		o.MaxFrames = &v
	}
	o.SinkKind = stringFlag(c, "sink")
	o.SinkOutput = stringFlag(c, "output")
	if c.IsSet("every") {
		v := c.Int("every")
		o.SinkEvery = &v
	}
	if c.IsSet("overlay") {
		v := c.Bool("overlay")
		o.SinkOverlay = &v
	}
	o.SummaryPath = stringFlag(c, "summary")
	o.LogLevel = stringFlag(c, "log-level")
	if c.IsSet("timestamps") {
		v := c.Bool("timestamps")
		o.Timestamps = &v
	}
	return o
}

func stringFlag(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	level, _ := ports.ParseLogLevel(cfg.LogLevel)
	return logger.New(level, cfg.LogTimestamps)
}

func newEngine(cfg config.Config, log ports.Logger) (ports.Engine, error) {
	switch cfg.Engine {
	case config.EngineLibav:
		return libavengine.New(libavengine.Options{Logger: log})
	default:
		return nativeengine.New(nativeengine.Options{FFmpegPath: cfg.FFmpegPath, Logger: log}), nil
	}
}

// newSink builds the configured frame sink. The returned func releases it.
func newSink(cfg config.Config, fs ports.FileSystem) (ports.FrameSink, func(), error) {
	switch cfg.Sink.Kind {
	case config.SinkRaw:
		s, err := rawsink.Open(fs, cfg.Sink.Output)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.SinkSnapshot:
		if err := fs.MkdirAll(cfg.Sink.Output); err != nil {
			return nil, nil, fmt.Errorf("create snapshot directory: %w", err)
		}
		s := snapshotsink.New(snapshotsink.Options{
			Dir:      cfg.Sink.Output,
			Every:    cfg.Sink.Every,
			Format:   cfg.ImageFormat(),
			Width:    cfg.Sink.Width,
			Annotate: cfg.Sink.Overlay,
			FontPath: cfg.Sink.FontPath,
		}, fs, ggrenderer.New())
		return s, func() {}, nil
	default:
		return nullsink.New(), func() {}, nil
	}
}

func printInfo(w io.Writer, info player.Info) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%-14s %s\n", l10n.T(label)+":", value)
	}
	row("Source", fmt.Sprintf("%s %s", info.Source.Type, info.Source.Src))
	row("Input", info.Input)
	row("Format", info.Format)
	row("Video stream", fmt.Sprintf("#%d %s %dx%d %s", info.VideoStream, info.Codec, info.SrcWidth, info.SrcHeight, info.SrcFormat))
	decoder := info.Decoder
	if info.Hardware {
		decoder += " (" + l10n.T("hardware") + ")"
	}
	row("Decoder", decoder)
	fps := fmt.Sprintf("%d fps", info.FPS)
	if info.FallbackFPS {
		fps += " (" + l10n.T("fallback") + ")"
	}
	row("Frame rate", fps)
	row("Time base", info.TimeBase.String())
	if info.DurationMs > 0 {
		row("Duration", summarizer.FormatMs(info.DurationMs))
	}
	if info.AudioStream >= 0 {
		row("Audio stream", fmt.Sprintf("#%d", info.AudioStream))
	}
	if info.SubtitleStream >= 0 {
		row("Subtitles", fmt.Sprintf("#%d", info.SubtitleStream))
	}
	row("Output", fmt.Sprintf("%dx%d %s", info.DstWidth, info.DstHeight, info.DstFormat))
}
