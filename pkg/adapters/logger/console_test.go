package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/mediaplay/pkg/ports"
)

func TestConsoleLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriter(ports.LevelInfo, &out, &errOut)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.Warn("warned")
	l.Error("failed: %s", "boom")

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out.String(), "shown 2") {
		t.Errorf("stdout = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "warned") || !strings.Contains(errOut.String(), "failed: boom") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestConsoleLoggerComponent(t *testing.T) {
	var out bytes.Buffer
	l := NewWriter(ports.LevelDebug, &out, &out)
	l.WithComponent("player").WithComponent("cycle").Debug("tick")

	if got := strings.TrimSpace(out.String()); got != "[player/cycle] tick" {
		t.Errorf("output = %q", got)
	}
}

func TestNewQuiet(t *testing.T) {
	if _, ok := New(ports.LevelQuiet, true).(*NoopLogger); !ok {
		t.Error("quiet level should produce a NoopLogger")
	}
}

func TestConsoleLoggerTimestamps(t *testing.T) {
	var out bytes.Buffer
	NewWriter(ports.LevelInfo, &out, &out).WithTimestamps(true).Info("tick")

	// 15:04:05.000 tick
	line := strings.TrimSpace(out.String())
	if len(line) != len("15:04:05.000 tick") || !strings.HasSuffix(line, " tick") || line[2] != ':' {
		t.Errorf("output = %q", line)
	}
}
