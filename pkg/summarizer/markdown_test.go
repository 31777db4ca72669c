package summarizer

import (
	"strings"
	"testing"
	"time"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Source: SourceInfo{
			Type: "file",
			Src:  "clip.mp4",
		},
		Stream: StreamInfo{
			Codec:       "h264",
			Decoder:     "h264_cuvid",
			Hardware:    true,
			Width:       1920,
			Height:      1080,
			PixelFormat: "yuv420p",
			OutWidth:    1920,
			OutHeight:   1080,
			FPS:         30,
			DurationMs:  65_000,
			TimeBase:    "1/15360",
		},
		Playback: PlaybackInfo{
			Frames:      1950,
			Signal:      "end-of-stream",
			ElapsedMs:   65_100,
			MeasuredFPS: 29.96,
		},
		Settings: Settings{
			Engine:     "native",
			DecodeMode: "hardware",
			DrainAtEnd: true,
			Sink:       "snapshot",
			MaxFrames:  5000,
		},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(sampleSummary())

	checks := []string{
		"# Playback Summary",
		"2024-01-15T10:30:00Z",
		"| Source | clip.mp4 |",
		"| Decoder | h264_cuvid (hardware) |",
		"1920x1080 yuv420p",
		"| Frame Rate | 30 fps |",
		"| Duration | 01:05.000 |",
		"| Frames | 1950 |",
		"| Measured Rate | 30.0 fps |",
		"| Max Frames | 5000 |",
		"## Settings",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
	if strings.Contains(result, "| Error |") {
		t.Error("expected no error row")
	}
}

func TestMarkdownFormatter_Format_Fallbacks(t *testing.T) {
	summary := &Summary{
		GeneratedAt: time.Now(),
		Source:      SourceInfo{Type: "network", Src: "udp://239.0.0.1:1234"},
		Stream: StreamInfo{
			Codec:            "hevc",
			Decoder:          "hevc",
			HardwareFallback: true,
			FPS:              25,
			FallbackFPS:      true,
		},
		Playback: PlaybackInfo{
			Signal:      "error",
			Interrupted: true,
			Error:       "decode: a|b",
		},
	}

	result := NewMarkdownFormatter().Format(summary)

	checks := []string{
		"hevc (software fallback)",
		"25 fps (assumed)",
		"| Duration | N/A |",
		"error (interrupted)",
		`decode: a\|b`,
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
	if strings.Contains(result, "## Settings") {
		t.Error("expected settings section to be omitted")
	}
}

func TestTextFormatter_Format(t *testing.T) {
	result := NewTextFormatter().Format(sampleSummary())

	checks := []string{
		"clip.mp4 (file)",
		"Decoder:",
		"h264_cuvid (hardware)",
		"1920x1080 yuv420p -> 1920x1080 bgr24",
		"01:05.100 (30.0 fps)",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}
