package logger

import "errors"

// MultiLogger fans every message out to several backends, such as the
// console and a JSON log file.
type MultiLogger []Logger

func NewMultiLogger(loggers ...Logger) MultiLogger {
	return MultiLogger(loggers)
}

func (m MultiLogger) each(fn func(Logger)) {
	for _, l := range m {
		fn(l)
	}
}

func (m MultiLogger) Debug(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Debug(format, args...) })
}

func (m MultiLogger) Info(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Info(format, args...) })
}

func (m MultiLogger) Warning(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Warning(format, args...) })
}

func (m MultiLogger) Error(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Error(format, args...) })
}

// Close closes every backend and joins their errors.
func (m MultiLogger) Close() error {
	var errs []error
	m.each(func(l Logger) { errs = append(errs, l.Close()) })
	return errors.Join(errs...)
}

var _ Logger = MultiLogger(nil)
