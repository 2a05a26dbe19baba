package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. format "json" writes plain JSON lines,
// anything else a console writer with info/warn on stdout and errors on stderr.
func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer
	if strings.EqualFold(format, "json") {
		w = os.Stdout
	} else {
		w = zerolog.MultiLevelWriter(
			LevelWriter{
				Writer: zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339},
				Levels: []zerolog.Level{zerolog.TraceLevel, zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel},
			},
			LevelWriter{
				Writer: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
				Levels: []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
			},
		)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// LevelWriter forwards only the listed levels.
type LevelWriter struct {
	io.Writer
	Levels []zerolog.Level
}

func (w LevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.Levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}
