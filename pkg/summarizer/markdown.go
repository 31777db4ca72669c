package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Playback Summary\n\n")
	fmt.Fprintf(&b, "Generated at %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Source\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Type", s.Source.Type)
	row(&b, "Source", s.Source.Src)
	if s.Source.Input != "" && s.Source.Input != s.Source.Src {
		row(&b, "Input", s.Source.Input)
	}
	if s.Source.Format != "" {
		row(&b, "Format", s.Source.Format)
	}
	b.WriteString("\n")

	b.WriteString("## Stream\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Codec", orNA(s.Stream.Codec))
	row(&b, "Decoder", decoderLabel(s.Stream))
	row(&b, "Geometry", fmt.Sprintf("%dx%d %s", s.Stream.Width, s.Stream.Height, s.Stream.PixelFormat))
	row(&b, "Output", fmt.Sprintf("%dx%d bgr24", s.Stream.OutWidth, s.Stream.OutHeight))
	row(&b, "Frame Rate", fpsLabel(s.Stream))
	row(&b, "Duration", durationLabel(s.Stream.DurationMs))
	if s.Stream.StartTimeMs != 0 {
		row(&b, "Start Time", FormatMs(s.Stream.StartTimeMs))
	}
	if s.Stream.TimeBase != "" {
		row(&b, "Time Base", s.Stream.TimeBase)
	}
	b.WriteString("\n")

	b.WriteString("## Playback\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Frames", fmt.Sprintf("%d", s.Playback.Frames))
	row(&b, "Status", statusLabel(s.Playback))
	row(&b, "Elapsed", FormatMs(s.Playback.ElapsedMs))
	row(&b, "Measured Rate", fmt.Sprintf("%.1f fps", s.Playback.MeasuredFPS))
	if s.Playback.Error != "" {
		row(&b, "Error", s.Playback.Error)
	}
	b.WriteString("\n")

	if s.Settings != (Settings{}) {
		b.WriteString("## Settings\n\n")
		b.WriteString("| Item | Value |\n|------|-------|\n")
		row(&b, "Engine", orNA(s.Settings.Engine))
		row(&b, "Decode Mode", orNA(s.Settings.DecodeMode))
		row(&b, "Drain At End", fmt.Sprintf("%t", s.Settings.DrainAtEnd))
		row(&b, "Sink", orNA(s.Settings.Sink))
		if s.Settings.StartAtMs > 0 {
			row(&b, "Start At", FormatMs(s.Settings.StartAtMs))
		}
		if s.Settings.MaxFrames > 0 {
			row(&b, "Max Frames", fmt.Sprintf("%d", s.Settings.MaxFrames))
		}
	}

	return b.String()
}

func row(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", name, strings.ReplaceAll(value, "|", `\|`))
}

var _ Formatter = (*MarkdownFormatter)(nil)
