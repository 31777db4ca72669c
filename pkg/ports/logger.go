package ports

import "strings"

// LogLevel orders log messages by severity. A logger prints messages at or
// above its own level.
type LogLevel int

const (
	// LevelDebug covers per-stream and per-seek details from the player and
	// the engines.
	LevelDebug LogLevel = iota
	// LevelInfo covers run progress: what is playing and how it ended.
	LevelInfo
	// LevelWarn covers fallbacks the run survives, such as a missing frame
	// rate or an unavailable hardware decoder.
	LevelWarn
	LevelError
	// LevelQuiet disables output.
	LevelQuiet
)

var levelNames = [...]string{"debug", "info", "warn", "error", "quiet"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel maps a level name to a LogLevel, ignoring case. An empty
// name means LevelInfo. Unknown names also yield LevelInfo with ok false.
func ParseLogLevel(s string) (level LogLevel, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return LevelInfo, true
	case "warning":
		return LevelWarn, true
	}
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i), true
		}
	}
	return LevelInfo, false
}

// Logger is the logging port. Messages are format templates that
// implementations may translate before substituting args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that tags each message with component,
	// e.g. "player" or "ffmpeg".
	WithComponent(component string) Logger
}
