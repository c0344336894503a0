package logger

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats understood by NewZerologLogger.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ZerologLogger writes leveled, structured records through zerolog.
type ZerologLogger struct {
	zl zerolog.Logger
	c  io.Closer
}

// NewZerologLogger builds a zerolog-backed logger writing to w. format is
// FormatConsole for human readable output or FormatJSON; level is a zerolog
// level name and defaults to info when empty or unknown. If w is an
// io.Closer it is closed by Close.
func NewZerologLogger(w io.Writer, format, level string) *ZerologLogger {
	out := w
	if strings.EqualFold(format, FormatConsole) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	z := &ZerologLogger{zl: zl}
	if c, ok := w.(io.Closer); ok {
		z.c = c
	}
	return z
}

// With returns a derived logger that adds key=value to every record.
func (z *ZerologLogger) With(key, value string) *ZerologLogger {
	return &ZerologLogger{zl: z.zl.With().Str(key, value).Logger()}
}

// Zerolog exposes the underlying zerolog.Logger.
func (z *ZerologLogger) Zerolog() zerolog.Logger {
	return z.zl
}

func (z *ZerologLogger) Debug(format string, args ...interface{}) {
	z.zl.Debug().Msgf(format, args...)
}

func (z *ZerologLogger) Info(format string, args ...interface{}) {
	z.zl.Info().Msgf(format, args...)
}

func (z *ZerologLogger) Warning(format string, args ...interface{}) {
	z.zl.Warn().Msgf(format, args...)
}

func (z *ZerologLogger) Error(format string, args ...interface{}) {
	z.zl.Error().Msgf(format, args...)
}

// Close closes the destination writer when it owns one.
func (z *ZerologLogger) Close() error {
	if z.c == nil {
		return nil
	}
	c := z.c
	z.c = nil
	return c.Close()
}

var _ Logger = (*ZerologLogger)(nil)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
