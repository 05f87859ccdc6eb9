package logx

import (
	"github.com/rs/zerolog"
)

// LineWriter turns child process output into per-line zerolog events at a
// given level.
type LineWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLineWriter returns a LineWriter that tags every line with fields.
func NewLineWriter(logger zerolog.Logger, fields map[string]string, level zerolog.Level) *LineWriter {
	w := logger.With()
	for k, v := range fields {
		w = w.Str(k, v)
	}
	return &LineWriter{logger: w.Logger(), level: level}
}

// Line logs a single line of output.
func (lw *LineWriter) Line(line string) {
	lw.logger.WithLevel(lw.level).Msg(line)
}
