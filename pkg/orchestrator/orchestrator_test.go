package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/mocks"
	"github.com/user/mediaplay/pkg/player"
	"github.com/user/mediaplay/pkg/ports"
)

// fakePlayer ends once endAfter frames were delivered. Zero never ends.
type fakePlayer struct {
	mu       sync.Mutex
	startErr error
	seekErr  error
	decodErr error
	endAfter int64

	frames  int64
	signal  media.Signal
	started []media.Source
	seeks   []int64
	stops   int
}

// StartAt fails like *player.Player: a failed seek leaves no session.
func (f *fakePlayer) StartAt(src media.Source, ms int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	if ms > 0 {
		f.seeks = append(f.seeks, ms)
		if f.seekErr != nil {
			return &player.Error{Kind: player.ErrSeekFailed, Err: f.seekErr}
		}
	}
	f.started = append(f.started, src)
	f.signal = media.SignalRunning
	return nil
}

func (f *fakePlayer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

// Signal delivers one frame per call while running.
func (f *fakePlayer) Signal() media.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signal != media.SignalRunning {
		return f.signal
	}
	f.frames++
	if f.endAfter > 0 && f.frames >= f.endAfter {
		if f.decodErr != nil {
			f.signal = media.SignalError
		} else {
			f.signal = media.SignalEndOfStream
		}
	}
	return f.signal
}

func (f *fakePlayer) Frames() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func (f *fakePlayer) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signal == media.SignalError {
		return f.decodErr
	}
	return nil
}

func (f *fakePlayer) Info() player.Info {
	f.mu.Lock()
	defer f.mu.Unlock()
	return player.Info{FPS: 25, Frames: f.frames, Signal: f.signal}
}

func testConfig() Config {
	config := DefaultConfig()
	config.Source = media.Source{Type: media.SourceFile, Src: "clip.y4m"}
	config.PollInterval = time.Millisecond
	config.ProgressInterval = 0
	return config
}

func TestOrchestrator_RunToEnd(t *testing.T) {
	p := &fakePlayer{endAfter: 10}
	orch := New(p, nil)

	result, err := orch.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Signal != media.SignalEndOfStream {
		t.Errorf("expected end of stream, got %s", result.Signal)
	}
	if result.Frames != 10 {
		t.Errorf("expected 10 frames, got %d", result.Frames)
	}
	if result.Interrupted {
		t.Error("expected a normal end")
	}
	if p.stops == 0 {
		t.Error("expected the player to be stopped")
	}
	if len(p.seeks) != 0 {
		t.Errorf("expected no seek, got %v", p.seeks)
	}
}

func TestOrchestrator_StartFailure(t *testing.T) {
	startErr := errors.New("no such file")
	p := &fakePlayer{startErr: startErr}

	_, err := New(p, nil).Run(context.Background(), testConfig())
	if !errors.Is(err, startErr) {
		t.Fatalf("expected start error, got %v", err)
	}
	if p.stops != 0 {
		t.Errorf("expected no stop after a failed start, got %d", p.stops)
	}
}

func TestOrchestrator_SeekAtStart(t *testing.T) {
	p := &fakePlayer{endAfter: 3}
	config := testConfig()
	config.StartAtMs = 1500

	if _, err := New(p, nil).Run(context.Background(), config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.seeks) != 1 || p.seeks[0] != 1500 {
		t.Errorf("expected one seek to 1500, got %v", p.seeks)
	}
}

func TestOrchestrator_SeekFailure(t *testing.T) {
	seekErr := errors.New("not seekable")
	p := &fakePlayer{endAfter: 3, seekErr: seekErr}
	config := testConfig()
	config.StartAtMs = 1500

	_, err := New(p, nil).Run(context.Background(), config)
	if !errors.Is(err, seekErr) || !errors.Is(err, player.ErrSeekFailed) {
		t.Fatalf("expected seek error, got %v", err)
	}
	if len(p.started) != 0 || p.frames != 0 {
		t.Errorf("expected no playback after a failed seek, got %d starts and %d frames", len(p.started), p.frames)
	}
	if p.stops != 0 {
		t.Errorf("expected no stop after a failed start, got %d", p.stops)
	}
}

func TestOrchestrator_MaxFrames(t *testing.T) {
	p := &fakePlayer{}
	config := testConfig()
	config.MaxFrames = 5

	result, err := New(p, nil).Run(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Frames != 5 {
		t.Errorf("expected 5 frames, got %d", result.Frames)
	}
	if result.Signal != media.SignalRunning {
		t.Errorf("expected the session to be cut short, got %s", result.Signal)
	}
}

func TestOrchestrator_Cancelled(t *testing.T) {
	p := &fakePlayer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(p, nil).Run(ctx, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Interrupted {
		t.Error("expected an interrupted run")
	}
	if p.stops == 0 {
		t.Error("expected the player to be stopped")
	}
}

func TestOrchestrator_DecodeError(t *testing.T) {
	decodErr := errors.New("corrupt slice")
	p := &fakePlayer{endAfter: 2, decodErr: decodErr}

	result, err := New(p, nil).Run(context.Background(), testConfig())
	if !errors.Is(err, decodErr) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if result.Signal != media.SignalError {
		t.Errorf("expected error signal, got %s", result.Signal)
	}
}

func TestOrchestrator_Progress(t *testing.T) {
	p := &slowPlayer{fakePlayer: fakePlayer{}, until: time.Now().Add(60 * time.Millisecond)}
	log := mocks.NewLogger()
	config := testConfig()
	config.ProgressInterval = 10 * time.Millisecond

	if _, err := New(p, log).Run(context.Background(), config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !log.Contains(ports.LevelInfo, "Decoded") {
		t.Error("expected progress to be logged")
	}
}

// slowPlayer runs until a deadline.
type slowPlayer struct {
	fakePlayer
	until time.Time
}

func (s *slowPlayer) Signal() media.Signal {
	if time.Now().After(s.until) {
		return media.SignalEndOfStream
	}
	return s.fakePlayer.Signal()
}
