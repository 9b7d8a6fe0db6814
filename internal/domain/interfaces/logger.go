// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import "sync"

// Logger defines the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// LogEntry is one message captured by MemoryLogger
type LogEntry struct {
	Level  string
	Msg    string
	Fields []Field
}

// MemoryLogger keeps every entry in memory so tests can assert on them
type MemoryLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// Debug records a debug entry
func (m *MemoryLogger) Debug(msg string, fields ...Field) { m.add("DEBUG", msg, fields) }

// Info records an info entry
func (m *MemoryLogger) Info(msg string, fields ...Field) { m.add("INFO", msg, fields) }

// Warn records a warning entry
func (m *MemoryLogger) Warn(msg string, fields ...Field) { m.add("WARN", msg, fields) }

// Error records an error entry
func (m *MemoryLogger) Error(msg string, fields ...Field) { m.add("ERROR", msg, fields) }

// Entries returns a copy of the captured entries
func (m *MemoryLogger) Entries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), m.entries...)
}

// Count returns how many entries were logged at level
func (m *MemoryLogger) Count(level string) int {
	n := 0
	for _, e := range m.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (m *MemoryLogger) add(level, msg string, fields []Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}
