package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventLoad    EventType = "load"
	EventImport  EventType = "import"
	EventJoin    EventType = "join"
	EventAnalyze EventType = "analyze"
	EventReport  EventType = "report"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in a run
type Event struct {
	Timestamp time.Time         `json:"ts"`
	RunID     string            `json:"run_id"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Table     string            `json:"table,omitempty"`
	Source    string            `json:"source,omitempty"`
	Operation string            `json:"operation,omitempty"`
	Rows      int               `json:"rows,omitempty"`
	Dropped   map[string]int    `json:"dropped,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil *EventLogger is valid and
// discards everything.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event carries the same freshly generated run id.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	runID := uuid.NewString()
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s-%s.jsonl", timestamp, runID[:8])
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    runID,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogLoad logs one table read from a source
func (l *EventLogger) LogLoad(source, table string, rows int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventLoad,
		Source:   source,
		Table:    table,
		Rows:     rows,
		Duration: duration.Milliseconds(),
	})
}

// LogImport logs one table written to the SQLite store
func (l *EventLogger) LogImport(table string, rows int, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventImport,
		Table: table,
		Rows:  rows,
		Error: errMsg,
	})
}

// LogJoin logs the outcome of building a derived table. Dropped rows raise
// the level to warning.
func (l *EventLogger) LogJoin(table string, input, output int, dropped map[string]int) error {
	level := LevelInfo
	if len(dropped) > 0 {
		level = LevelWarning
	}

	return l.Log(&Event{
		Level:   level,
		Event:   EventJoin,
		Table:   table,
		Rows:    output,
		Dropped: dropped,
		Extra: map[string]string{
			"input": fmt.Sprintf("%d", input),
		},
	})
}

// LogAnalyze logs one analysis and the number of result rows
func (l *EventLogger) LogAnalyze(operation string, rows int, duration time.Duration) error {
	return l.Log(&Event{
		Level:     LevelDebug,
		Event:     EventAnalyze,
		Operation: operation,
		Rows:      rows,
		Duration:  duration.Milliseconds(),
	})
}

// LogReport logs a written report file
func (l *EventLogger) LogReport(path string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventReport,
		Source: path,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, source string, err error) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  event,
		Source: source,
		Error:  err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the id stamped on every event of this logger
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
