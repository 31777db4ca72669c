package summarizer

import (
	"errors"
	"testing"
	"time"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/player"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithPlayerInfo(t *testing.T) {
	info := player.Info{
		Source:           media.Source{Type: media.SourceCapture, Src: "video0"},
		Input:            "/dev/video0",
		Format:           "v4l2",
		FPS:              30,
		DurationMs:       12000,
		TimeBase:         media.Rational{Num: 1, Den: 90000},
		Codec:            "h264",
		Decoder:          "h264",
		HardwareFallback: true,
		SrcWidth:         1282,
		SrcHeight:        720,
		SrcFormat:        media.PixelFormatYUV420P,
		DstWidth:         1280,
		DstHeight:        720,
		Frames:           42,
		Signal:           media.SignalEndOfStream,
	}

	summary := NewBuilder().WithPlayerInfo(info).Build()

	if summary.Source.Type != "capture" {
		t.Errorf("expected source type 'capture', got '%s'", summary.Source.Type)
	}
	if summary.Source.Input != "/dev/video0" || summary.Source.Format != "v4l2" {
		t.Errorf("unexpected input %q format %q", summary.Source.Input, summary.Source.Format)
	}
	if summary.Stream.OutWidth != 1280 || summary.Stream.Width != 1282 {
		t.Errorf("unexpected geometry %+v", summary.Stream)
	}
	if !summary.Stream.HardwareFallback {
		t.Error("expected HardwareFallback to be true")
	}
	if summary.Stream.TimeBase != "1/90000" {
		t.Errorf("expected time base 1/90000, got %s", summary.Stream.TimeBase)
	}
	if summary.Playback.Frames != 42 {
		t.Errorf("expected 42 frames, got %d", summary.Playback.Frames)
	}
	if summary.Playback.Signal != media.SignalEndOfStream.String() {
		t.Errorf("unexpected signal %s", summary.Playback.Signal)
	}
}

func TestBuilder_WithPlayback(t *testing.T) {
	summary := NewBuilder().
		WithPlayback(2500*time.Millisecond, 24.5, true, errors.New("boom")).
		Build()

	if summary.Playback.ElapsedMs != 2500 {
		t.Errorf("expected ElapsedMs 2500, got %d", summary.Playback.ElapsedMs)
	}
	if summary.Playback.MeasuredFPS != 24.5 {
		t.Errorf("expected MeasuredFPS 24.5, got %f", summary.Playback.MeasuredFPS)
	}
	if !summary.Playback.Interrupted {
		t.Error("expected Interrupted to be true")
	}
	if summary.Playback.Error != "boom" {
		t.Errorf("expected error 'boom', got '%s'", summary.Playback.Error)
	}

	clean := NewBuilder().WithPlayback(time.Second, 25, false, nil).Build()
	if clean.Playback.Error != "" {
		t.Errorf("expected no error, got '%s'", clean.Playback.Error)
	}
}

func TestBuilder_Chaining(t *testing.T) {
	settings := Settings{Engine: "native", DecodeMode: "software", Sink: "null"}
	summary := NewBuilder().
		WithPlayerInfo(player.Info{FPS: 25}).
		WithSettings(settings).
		Build()

	if summary.Settings != settings {
		t.Errorf("expected settings %+v, got %+v", settings, summary.Settings)
	}
	if summary.Stream.FPS != 25 {
		t.Errorf("expected FPS 25, got %d", summary.Stream.FPS)
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00.000"},
		{1500, "00:01.500"},
		{61_001, "01:01.001"},
		{3_723_080, "1:02:03.080"},
		{-40, "-00:00.040"},
	}
	for _, tt := range tests {
		if got := FormatMs(tt.ms); got != tt.want {
			t.Errorf("FormatMs(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
