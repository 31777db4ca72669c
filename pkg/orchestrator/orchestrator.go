// Package orchestrator drives one playback run: start, optional seek, wait
// for the end or a limit, stop, and collect the result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/mediaplay/pkg/adapters/logger"
	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/player"
	"github.com/user/mediaplay/pkg/ports"
)

// Config contains all configuration for a run.
type Config struct {
	Source media.Source

	// StartAtMs seeks there before the first frame is decoded.
	StartAtMs int64
	// MaxFrames stops the run after that many frames. Zero means no limit.
	MaxFrames int64
	// ProgressInterval between progress logs. Zero disables them.
	ProgressInterval time.Duration
	// PollInterval is how often the run checks the playback signal.
	PollInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ProgressInterval: time.Second,
		PollInterval:     20 * time.Millisecond,
	}
}

// Player is the part of *player.Player a run drives.
type Player interface {
	StartAt(src media.Source, ms int64) error
	Stop()
	Signal() media.Signal
	Frames() int64
	Err() error
	Info() player.Info
}

var _ Player = (*player.Player)(nil)

// Orchestrator coordinates a player run.
type Orchestrator struct {
	player Player
	logger ports.Logger
	now    func() time.Time
}

// New creates a new Orchestrator.
func New(p Player, log ports.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Orchestrator{
		player: p,
		logger: log.WithComponent("run"),
		now:    time.Now,
	}
}

// Run plays config.Source until it ends, fails, reaches MaxFrames or ctx is
// cancelled. The player is always stopped on return.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}

	started := o.now()
	if config.StartAtMs > 0 {
		o.logger.Info("Seeking to %s", formatMs(config.StartAtMs))
	}
	if err := o.player.StartAt(config.Source, config.StartAtMs); err != nil {
		failed := RunResult{Info: o.player.Info(), Signal: o.player.Signal()}
		if errors.Is(err, player.ErrSeekFailed) {
			o.logger.Error("Failed to seek: %v", err)
			return failed, fmt.Errorf("seek: %w", err)
		}
		return failed, fmt.Errorf("start: %w", err)
	}
	defer o.player.Stop()

	var reason stopReason
	g, gctx := errgroup.WithContext(ctx)
	finished := make(chan struct{})

	g.Go(func() error {
		defer close(finished)
		reason = o.watch(gctx, config)
		return nil
	})

	if config.ProgressInterval > 0 {
		g.Go(func() error {
			o.progress(gctx, finished, config.ProgressInterval)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return o.result(started, false), err
	}

	o.player.Stop()
	result := o.result(started, reason == stopInterrupted)
	switch reason {
	case stopInterrupted:
		o.logger.Info("Interrupted after %d frames", result.Frames)
	case stopLimit:
		o.logger.Info("Frame limit %d reached", config.MaxFrames)
	}

	if result.Signal == media.SignalError {
		return result, fmt.Errorf("decode: %w", o.player.Err())
	}
	o.logger.Info("Played %d frames in %.1fs (%.1f fps)", result.Frames, result.Elapsed.Seconds(), result.MeasuredFPS)
	return result, nil
}

type stopReason int

const (
	stopSignal stopReason = iota
	stopLimit
	stopInterrupted
)

// watch polls the player until a terminal signal, the frame limit or
// cancellation.
func (o *Orchestrator) watch(ctx context.Context, config Config) stopReason {
	t := time.NewTicker(config.PollInterval)
	defer t.Stop()
	for {
		if o.player.Signal().Terminal() {
			return stopSignal
		}
		if config.MaxFrames > 0 && o.player.Frames() >= config.MaxFrames {
			return stopLimit
		}
		select {
		case <-ctx.Done():
			return stopInterrupted
		case <-t.C:
		}
	}
}

func (o *Orchestrator) progress(ctx context.Context, finished <-chan struct{}, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-finished:
			return
		case <-t.C:
		}
		frames := o.player.Frames()
		fps := float64(frames-last) / every.Seconds()
		last = frames
		o.logger.Info("Decoded %d frames (%.1f fps)", frames, fps)
	}
}

func (o *Orchestrator) result(started time.Time, interrupted bool) RunResult {
	info := o.player.Info()
	elapsed := o.now().Sub(started)
	r := RunResult{
		Info:        info,
		Frames:      info.Frames,
		Signal:      info.Signal,
		Elapsed:     elapsed,
		Interrupted: interrupted,
	}
	if elapsed > 0 {
		r.MeasuredFPS = float64(info.Frames) / elapsed.Seconds()
	}
	return r
}

func formatMs(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

// RunResult contains the results of a run for summary generation.
type RunResult struct {
	Info   player.Info
	Frames int64
	Signal media.Signal

	// Elapsed is wall-clock time from start to stop.
	Elapsed     time.Duration
	MeasuredFPS float64
	Interrupted bool
}
