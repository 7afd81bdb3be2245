package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func writeAll(t *testing.T, log EventLog, events []Event) {
	t.Helper()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log, _ := newTestLog(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	writeAll(t, log, []Event{
		{Time: now, Type: EventTaskCompleted, Project: "astrology", Message: "completed", Data: map[string]any{"task_id": 1}},
		{Time: now.Add(time.Second), Level: "WARN", Type: EventTaskReopened, Project: "astrology", Message: "reopened"},
	})

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Level != "INFO" {
		t.Errorf("empty level should default to INFO, got %q", result[0].Level)
	}
	if result[0].Project != "astrology" {
		t.Errorf("project = %q", result[0].Project)
	}
	if id, ok := result[0].Data["task_id"].(float64); !ok || id != 1 {
		t.Errorf("data task_id = %v", result[0].Data["task_id"])
	}
	if result[1].Level != "WARN" {
		t.Errorf("expected WARN, got %s", result[1].Level)
	}
}

func TestEventLog_StampsZeroTime(t *testing.T) {
	log, _ := newTestLog(t)
	writeAll(t, log, []Event{{Type: EventQuoteRefreshed}})
	result, _ := log.Read(EventFilter{})
	if len(result) != 1 || result[0].Time.IsZero() {
		t.Fatalf("expected stamped event, got %+v", result)
	}
}

func TestEventLog_Filters(t *testing.T) {
	log, _ := newTestLog(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	writeAll(t, log, []Event{
		{Time: base, Type: EventTaskCompleted, Project: "astrology", Message: "a", Data: map[string]any{"task_key": "k1"}},
		{Time: base.Add(time.Hour), Type: EventTaskReordered, Project: "astrology", Message: "b", Data: map[string]any{"task_key": "k2"}},
		{Time: base.Add(2 * time.Hour), Type: EventTaskCompleted, Project: "atema-bio", Message: "c"},
		{Time: base.Add(3 * time.Hour), Level: "ERROR", Type: EventCelebrationFired, Project: "astrology", Message: "d", Data: map[string]any{"task_key": "k1"}},
	})

	since := base.Add(30 * time.Minute)
	until := base.Add(150 * time.Minute)
	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{"type", EventFilter{Types: []string{EventTaskCompleted}}, []string{"a", "c"}},
		{"any of types", EventFilter{Types: []string{EventTaskReordered, EventCelebrationFired}}, []string{"b", "d"}},
		{"project", EventFilter{Project: "atema-bio"}, []string{"c"}},
		{"level", EventFilter{Level: "ERROR"}, []string{"d"}},
		{"range", EventFilter{Since: &since, Until: &until}, []string{"b", "c"}},
		{"task key", EventFilter{TaskKey: "k1"}, []string{"a", "d"}},
		{"task key and type", EventFilter{TaskKey: "k1", Types: []string{EventTaskCompleted}}, []string{"a"}},
		{"unknown task key", EventFilter{TaskKey: "k9"}, nil},
		{"limit keeps newest", EventFilter{Limit: 2}, []string{"c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := log.Read(tt.filter)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.Message != tt.want[i] {
					t.Errorf("event %d = %q, want %q", i, e.Message, tt.want[i])
				}
			}
		})
	}
}

func TestEvent_TaskKey(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"task event", map[string]any{"task_key": "k1", "task_id": 1}, "k1"},
		{"no data", nil, ""},
		{"not a string", map[string]any{"task_key": 7}, ""},
	}
	for _, tt := range tests {
		if got := (Event{Data: tt.data}).TaskKey(); got != tt.want {
			t.Errorf("%s: TaskKey() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEventLog_TaskKeySurvivesRoundTrip(t *testing.T) {
	log, _ := newTestLog(t)
	writeAll(t, log, []Event{
		{Type: EventTaskCompleted, Message: "mine", Data: map[string]any{"task_key": "abc", "task_id": 1}},
		{Type: EventTaskCompleted, Message: "other", Data: map[string]any{"task_key": "def", "task_id": 1}},
	})
	got, err := log.Read(EventFilter{TaskKey: "abc"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 1 || got[0].Message != "mine" {
		t.Errorf("events = %+v, want only the matching task", got)
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := newTestLog(t)
	writeAll(t, log, []Event{{Type: EventTaskCompleted, Message: "ok"}})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString("{not json\n\n")
	_ = f.Close()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 valid event, got %d", len(got))
	}
}

func TestEventLog_EmptyLog(t *testing.T) {
	log, _ := newTestLog(t)
	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading empty log: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected 0 events, got %d", len(result))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log, _ := newTestLog(t)
	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = log.Write(Event{Type: EventTaskReordered, Data: map[string]any{"i": i}})
		}(i)
	}
	wg.Wait()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != n {
		t.Errorf("expected %d events, got %d", n, len(got))
	}
}
