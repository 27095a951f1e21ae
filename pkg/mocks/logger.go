package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/user/vadecode/pkg/ports"
)

// Logger is a mock implementation of ports.Logger that records every message.
// Loggers derived with WithComponent share the record.
type Logger struct {
	component string
	log       *logRecord
}

type logRecord struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one recorded message.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string
}

// NewLogger creates a new mock Logger.
func NewLogger() *Logger {
	return &Logger{log: &logRecord{}}
}

func (m *Logger) add(level ports.LogLevel, msg string, args ...interface{}) {
	m.log.mu.Lock()
	defer m.log.mu.Unlock()
	m.log.entries = append(m.log.entries, LogEntry{
		Level:     level,
		Component: m.component,
		Message:   fmt.Sprintf(msg, args...),
	})
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.add(ports.LevelDebug, msg, args...) }
func (m *Logger) Info(msg string, args ...interface{})  { m.add(ports.LevelInfo, msg, args...) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.add(ports.LevelWarn, msg, args...) }
func (m *Logger) Error(msg string, args ...interface{}) { m.add(ports.LevelError, msg, args...) }

func (m *Logger) WithComponent(component string) ports.Logger {
	return &Logger{component: component, log: m.log}
}

// Entries returns the recorded messages at or above level.
func (m *Logger) Entries(level ports.LogLevel) []LogEntry {
	m.log.mu.Lock()
	defer m.log.mu.Unlock()
	var out []LogEntry
	for _, e := range m.log.entries {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether a message at level contains substr.
func (m *Logger) Contains(level ports.LogLevel, substr string) bool {
	for _, e := range m.Entries(level) {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

var _ ports.Logger = (*Logger)(nil)
