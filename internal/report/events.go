package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// EventType represents the type of journal change
type EventType string

const (
	EventLiveCreate     EventType = "live_create"
	EventLiveUpdate     EventType = "live_update"
	EventLiveDelete     EventType = "live_delete"
	EventLiveDuplicate  EventType = "live_duplicate"
	EventSetlistReplace EventType = "setlist_replace"
	EventSetlistAppend  EventType = "setlist_append"
	EventImport         EventType = "import"
	EventExport         EventType = "export"
	EventError          EventType = "error"
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

// ParseLevel maps a config string to an EventLevel, defaulting to info
func ParseLevel(s string) EventLevel {
	level := EventLevel(s)
	if _, ok := levelPriority[level]; ok {
		return level
	}
	return LevelInfo
}

// Event is one line of the audit log
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	LiveID    int64             `json:"live_id,omitempty"`
	LiveName  string            `json:"live_name,omitempty"`
	SourceID  int64             `json:"source_id,omitempty"`
	Items     int               `json:"items,omitempty"`
	Path      string            `json:"path,omitempty"`
	Source    string            `json:"source,omitempty"` // cli or api
	Duration  int64             `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger appends journal changes to a JSONL file.
// A nil *EventLogger is valid and discards everything.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
	source   string
}

// NewEventLogger creates a new audit log in outputDir.
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("audit-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	// Several processes may write the same second; append rather than truncate
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// WithSource tags every following event with its origin ("cli", "api")
func (l *EventLogger) WithSource(source string) *EventLogger {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	l.source = source
	l.mu.Unlock()
	return l
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
	if event.Source == "" {
		event.Source = l.source
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogLiveCreate records a new live
func (l *EventLogger) LogLiveCreate(id int64, name string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventLiveCreate,
		LiveID:   id,
		LiveName: name,
	})
}

// LogLiveUpdate records an edit of an existing live
func (l *EventLogger) LogLiveUpdate(id int64, name string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventLiveUpdate,
		LiveID:   id,
		LiveName: name,
	})
}

// LogLiveDelete records a deletion; removed setlist items are counted in Items
func (l *EventLogger) LogLiveDelete(id int64, name string, items int) error {
	return l.Log(&Event{
		Level:    LevelWarning,
		Event:    EventLiveDelete,
		LiveID:   id,
		LiveName: name,
		Items:    items,
	})
}

// LogDuplicate records a live copied from sourceID into newID
func (l *EventLogger) LogDuplicate(sourceID, newID int64, name string, items int) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventLiveDuplicate,
		LiveID:   newID,
		SourceID: sourceID,
		LiveName: name,
		Items:    items,
	})
}

// LogSetlistReplace records a full setlist save
func (l *EventLogger) LogSetlistReplace(liveID int64, items int) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventSetlistReplace,
		LiveID: liveID,
		Items:  items,
	})
}

// LogSetlistAppend records a single appended setlist line
func (l *EventLogger) LogSetlistAppend(liveID int64, track int, song string) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventSetlistAppend,
		LiveID: liveID,
		Items:  1,
		Extra: map[string]string{
			"track": strconv.Itoa(track),
			"song":  song,
		},
	})
}

// LogImport records a snapshot import
func (l *EventLogger) LogImport(path string, lives, items, skipped int, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	} else if skipped > 0 {
		level = LevelWarning
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventImport,
		Path:     path,
		Items:    items,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
		Extra: map[string]string{
			"lives":   strconv.Itoa(lives),
			"skipped": strconv.Itoa(skipped),
		},
	})
}

// LogExport records a snapshot export
func (l *EventLogger) LogExport(path, snapshotID string, lives, items int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventExport,
		Path:  path,
		Items: items,
		Extra: map[string]string{
			"lives":       strconv.Itoa(lives),
			"snapshot_id": snapshotID,
		},
	})
}

// LogError records a failed write against a live (liveID may be 0)
func (l *EventLogger) LogError(event EventType, liveID int64, err error) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  event,
		LiveID: liveID,
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

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
