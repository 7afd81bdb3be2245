package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"
)

// Event types written by the board. They mirror the bus topics.
const (
	EventTaskCompleted    = "task.completed"
	EventTaskReopened     = "task.reopened"
	EventTaskReordered    = "task.reordered"
	EventProjectSelected  = "project.selected"
	EventProjectReplaced  = "project.replaced"
	EventCelebrationFired = "celebration.fired"
	EventQuoteRefreshed   = "quote.refreshed"
)

// Event is one line of the board event log.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`
	Project string         `json:"project,omitempty"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter selects events when reading the log. Zero fields match
// everything. Limit keeps only the most recent matches.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	// Types matches any of the listed event types.
	Types   []string
	Level   string
	Project string
	// TaskKey matches events about one task by its stable key, so a task's
	// history survives reorders.
	TaskKey string
	Limit   int
}

// TaskKey returns the stable task key recorded on a task event, or "" for
// events that are not about a single task.
func (e Event) TaskKey() string {
	key, _ := e.Data["task_key"].(string)
	return key
}

// EventLog appends board events and reads them back.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog opens (creating if needed) the JSONL log at path for
// appending.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f}, nil
}

// Write appends event as one JSON line. A zero Time is stamped with now and
// an empty Level defaults to INFO.
func (l *jsonlEventLog) Write(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = "INFO"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read scans the whole log and returns the events matching filter in write
// order. Malformed lines are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if filter.matches(event) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[len(events)-filter.Limit:]
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func (f EventFilter) matches(event Event) bool {
	switch {
	case f.Since != nil && event.Time.Before(*f.Since):
		return false
	case f.Until != nil && event.Time.After(*f.Until):
		return false
	case len(f.Types) > 0 && !slices.Contains(f.Types, event.Type):
		return false
	case f.Level != "" && event.Level != f.Level:
		return false
	case f.Project != "" && event.Project != f.Project:
		return false
	case f.TaskKey != "" && event.TaskKey() != f.TaskKey:
		return false
	}
	return true
}
