package activity

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level is the severity of an activity entry
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// Entry is one line of the relayer activity log
type Entry struct {
	Timestamp time.Time
	Message   string
	Level     Level
}

// Log is an append-only, session-scoped activity stream. Appends from any
// goroutine are kept in the order they acquired the lock.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
	logger  *zap.Logger
}

// NewLog creates an empty log mirrored to logger
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{now: time.Now, logger: logger.Named("activity")}
}

// WithClock replaces the timestamp source
func (l *Log) WithClock(now func() time.Time) *Log {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
	return l
}

// Append records message at level and returns the stored entry
func (l *Log) Append(message string, level Level) Entry {
	l.mu.Lock()
	e := Entry{Timestamp: l.now(), Message: message, Level: level}
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	switch level {
	case LevelWarning:
		l.logger.Warn(message)
	default:
		l.logger.Info(message, zap.String("level", string(level)))
	}
	return e
}

func (l *Log) Info(message string) Entry    { return l.Append(message, LevelInfo) }
func (l *Log) Success(message string) Entry { return l.Append(message, LevelSuccess) }
func (l *Log) Warning(message string) Entry { return l.Append(message, LevelWarning) }

// Entries returns a copy of every entry in insertion order
func (l *Log) Entries() []Entry {
	return l.Since(0)
}

// Since returns a copy of the entries after the first n. Renderers call it
// with the count they have already printed.
func (l *Log) Since(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n >= len(l.entries) {
		return nil
	}
	out := make([]Entry, len(l.entries)-n)
	copy(out, l.entries[n:])
	return out
}

// Len returns the number of entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear discards every entry
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
