// Package logger provides the logging interface shared by every widgetsched
// component, with console, structured (zerolog), discard and recording
// backends.
package logger

import (
	"fmt"
	"log"
	"sync"
)

// Logger is the printf-style logging surface used across widgetsched.
// Debug output is dropped unless the backend was built for it.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	// Warning logs a recoverable problem (e.g., "watch: event overflow").
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	// Close releases resources held by the logger. Safe to call more
	// than once.
	Close() error
}

// StandardLogger writes "[LEVEL] message" lines through a stdlib
// *log.Logger.
type StandardLogger struct {
	logger *log.Logger
	debug  bool
}

func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// WithDebug returns a copy that also prints Debug messages.
func (s *StandardLogger) WithDebug() *StandardLogger {
	return &StandardLogger{logger: s.logger, debug: true}
}

func (s *StandardLogger) printf(level, format string, args ...interface{}) {
	s.logger.Printf("["+level+"] "+format, args...)
}

func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if s.debug {
		s.printf("DEBUG", format, args...)
	}
}

func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.printf("INFO", format, args...)
}

func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.printf("WARNING", format, args...)
}

func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.printf("ERROR", format, args...)
}

func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger discards all messages.
type NopLogger struct{}

func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (NopLogger) Debug(string, ...interface{})   {}
func (NopLogger) Info(string, ...interface{})    {}
func (NopLogger) Warning(string, ...interface{}) {}
func (NopLogger) Error(string, ...interface{})   {}
func (NopLogger) Close() error                   { return nil }

// MockLogger records formatted messages per level. It is safe for use
// from the daemon's goroutines; read the slices only after they stop.
type MockLogger struct {
	mu           sync.Mutex
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(dst *[]string, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*dst = append(*dst, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.record(&m.DebugCalls, format, args...)
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(&m.InfoCalls, format, args...)
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(&m.WarningCalls, format, args...)
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(&m.ErrorCalls, format, args...)
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*MockLogger)(nil)
)
