package summarizer

import (
	"fmt"
	"strings"
)

// TextFormatter renders a Summary as aligned plain text for terminals.
type TextFormatter struct{}

// NewTextFormatter creates a new TextFormatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format implements the Formatter interface.
func (f *TextFormatter) Format(s *Summary) string {
	var b strings.Builder
	line := func(name, value string) {
		fmt.Fprintf(&b, "  %-14s %s\n", name+":", value)
	}

	fmt.Fprintf(&b, "%s (%s)\n", s.Source.Src, s.Source.Type)
	line("Codec", orNA(s.Stream.Codec))
	line("Decoder", decoderLabel(s.Stream))
	line("Geometry", fmt.Sprintf("%dx%d %s -> %dx%d bgr24",
		s.Stream.Width, s.Stream.Height, s.Stream.PixelFormat, s.Stream.OutWidth, s.Stream.OutHeight))
	line("Frame rate", fpsLabel(s.Stream))
	line("Duration", durationLabel(s.Stream.DurationMs))
	line("Frames", fmt.Sprintf("%d", s.Playback.Frames))
	line("Status", statusLabel(s.Playback))
	if s.Playback.ElapsedMs > 0 {
		line("Elapsed", fmt.Sprintf("%s (%.1f fps)", FormatMs(s.Playback.ElapsedMs), s.Playback.MeasuredFPS))
	}
	if s.Playback.Error != "" {
		line("Error", s.Playback.Error)
	}
	return b.String()
}

var _ Formatter = (*TextFormatter)(nil)

// FormatMs renders milliseconds as H:MM:SS.mmm, dropping the hour when zero.
func FormatMs(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	sec := ms / 1000 % 60
	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, h, m, sec, ms%1000)
	}
	return fmt.Sprintf("%s%02d:%02d.%03d", sign, m, sec, ms%1000)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func decoderLabel(s StreamInfo) string {
	switch {
	case s.Decoder == "":
		return "N/A"
	case s.Hardware:
		return s.Decoder + " (hardware)"
	case s.HardwareFallback:
		return s.Decoder + " (software fallback)"
	}
	return s.Decoder
}

func fpsLabel(s StreamInfo) string {
	if s.FallbackFPS {
		return fmt.Sprintf("%d fps (assumed)", s.FPS)
	}
	return fmt.Sprintf("%d fps", s.FPS)
}

func durationLabel(ms int64) string {
	if ms <= 0 {
		return "N/A"
	}
	return FormatMs(ms)
}

func statusLabel(p PlaybackInfo) string {
	if p.Interrupted {
		return p.Signal + " (interrupted)"
	}
	return orNA(p.Signal)
}
