package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/goal-board/internal/core"
	"github.com/valter-silva-au/goal-board/internal/observability"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

// --- Fake implementations ---

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, nil
}

// --- Test helpers ---

func newTestStore(t *testing.T, bus *core.Bus) core.TaskStore {
	t.Helper()
	store, err := core.NewTaskStore(core.DefaultProjects(), core.DefaultProjectKey, bus)
	if err != nil {
		t.Fatalf("creating task store: %v", err)
	}
	return store
}

func newTestServer(t *testing.T) (*Server, core.TaskStore) {
	t.Helper()
	store := newTestStore(t, nil)
	return NewServer(store, nil, core.NewQuoteRotator(nil, nil), "test"), store
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decodeResult unmarshals the tool output from the text content, falling
// back to the structured content.
func decodeResult(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return
	} else if result.StructuredContent == nil {
		t.Fatalf("unmarshalling output: %v (text was: %s)", err, text)
	}
	data, _ := json.Marshal(result.StructuredContent)
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshalling structured output: %v (text was: %s)", err, text)
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- Tests ---

func TestListProjects(t *testing.T) {
	srv, store := newTestServer(t)
	store.ToggleCompletion(1)

	var out listProjectsOutput
	decodeResult(t, callTool(t, srv, "list_projects", map[string]any{}), &out)

	if out.Current != string(models.ProjectAstrology) {
		t.Errorf("current = %q, want astrology", out.Current)
	}
	if len(out.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(out.Projects))
	}
	// ProjectKeys is sorted.
	if out.Projects[0].Key != "astrology" || out.Projects[1].Key != "atema-bio" {
		t.Errorf("unexpected project order: %+v", out.Projects)
	}
	if !out.Projects[0].Current || out.Projects[1].Current {
		t.Error("only astrology should be marked current")
	}
	if out.Projects[0].Completed != 1 || out.Projects[0].Total != 5 {
		t.Errorf("astrology counts = %d/%d, want 1/5", out.Projects[0].Completed, out.Projects[0].Total)
	}
	if out.Projects[0].Percent != 20 {
		t.Errorf("astrology percent = %v, want 20", out.Projects[0].Percent)
	}
}

func TestSelectProject(t *testing.T) {
	srv, store := newTestServer(t)

	var out selectProjectOutput
	decodeResult(t, callTool(t, srv, "select_project", map[string]any{"project": "atema-bio"}), &out)

	if store.CurrentKey() != models.ProjectAtemaBio {
		t.Errorf("store current = %q, want atema-bio", store.CurrentKey())
	}
	if out.Project.Key != "atema-bio" || !out.Project.Current {
		t.Errorf("unexpected project summary: %+v", out.Project)
	}
	if out.Project.Total != 6 {
		t.Errorf("total = %d, want 6", out.Project.Total)
	}
}

func TestSelectProjectUnknown(t *testing.T) {
	srv, store := newTestServer(t)

	result := callTool(t, srv, "select_project", map[string]any{"project": "financials"})
	if !result.IsError {
		t.Fatal("expected error result for unknown project")
	}
	if store.CurrentKey() != models.ProjectAstrology {
		t.Errorf("current project changed to %q", store.CurrentKey())
	}
}

func TestListTasks(t *testing.T) {
	srv, _ := newTestServer(t)

	var out listTasksOutput
	decodeResult(t, callTool(t, srv, "list_tasks", map[string]any{}), &out)

	if out.Project != "astrology" || out.Count != 5 {
		t.Fatalf("got project %q with %d tasks", out.Project, out.Count)
	}
	for i, task := range out.Tasks {
		if task.ID != i+1 {
			t.Errorf("task %d has id %d", i, task.ID)
		}
		if task.Key == "" {
			t.Errorf("task %d has no stable key", task.ID)
		}
	}
	if !out.Tasks[4].Milestone {
		t.Error("expected last astrology task to be a milestone")
	}
}

func TestListTasksOtherProject(t *testing.T) {
	srv, store := newTestServer(t)

	var out listTasksOutput
	decodeResult(t, callTool(t, srv, "list_tasks", map[string]any{"project": "atema-bio"}), &out)

	if out.Project != "atema-bio" || out.Count != 6 {
		t.Fatalf("got project %q with %d tasks", out.Project, out.Count)
	}
	if store.CurrentKey() != models.ProjectAstrology {
		t.Error("listing another project must not select it")
	}
}

func TestListTasksUnknownProject(t *testing.T) {
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "list_tasks", map[string]any{"project": "nope"})
	if !result.IsError {
		t.Fatal("expected error result for unknown project")
	}
}

func TestToggleTask(t *testing.T) {
	srv, store := newTestServer(t)

	var out toggleTaskOutput
	decodeResult(t, callTool(t, srv, "toggle_task", map[string]any{"task_id": 2}), &out)

	if !out.Task.Completed || out.Previous {
		t.Errorf("expected false->true transition, got previous=%v completed=%v", out.Previous, out.Task.Completed)
	}
	if !out.Celebrated {
		t.Error("completing a task should celebrate")
	}
	if out.Percent != 20 {
		t.Errorf("percent = %v, want 20", out.Percent)
	}
	if !store.Tasks()[1].Completed {
		t.Error("store was not updated")
	}

	var again toggleTaskOutput
	decodeResult(t, callTool(t, srv, "toggle_task", map[string]any{"task_id": 2}), &again)
	if again.Task.Completed || again.Celebrated {
		t.Errorf("reopening must not celebrate: %+v", again)
	}
}

func TestToggleTaskUnknownID(t *testing.T) {
	srv, store := newTestServer(t)
	before := store.Tasks()

	result := callTool(t, srv, "toggle_task", map[string]any{"task_id": 99})
	if !result.IsError {
		t.Fatal("expected error result for unknown task id")
	}
	for i, task := range store.Tasks() {
		if task.Completed != before[i].Completed {
			t.Errorf("task %d changed state", task.ID)
		}
	}
}

func TestToggleTaskPublishesEvent(t *testing.T) {
	bus := core.NewBus()
	defer bus.Close()
	sub := bus.Subscribe(4)
	store := newTestStore(t, bus)
	srv := NewServer(store, nil, nil, "test")

	callTool(t, srv, "toggle_task", map[string]any{"task_id": 5})

	select {
	case e := <-sub.C:
		if e.Topic != core.TopicTaskCompleted {
			t.Errorf("topic = %q, want %q", e.Topic, core.TopicTaskCompleted)
		}
		if !e.Task.IsMilestone() {
			t.Error("expected the milestone task in the event")
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestReorderTask(t *testing.T) {
	srv, store := newTestServer(t)
	titles := func(tasks []models.Task) []string {
		out := make([]string, len(tasks))
		for i, t := range tasks {
			out[i] = t.Title
		}
		return out
	}
	before := titles(store.Tasks())

	var out reorderTaskOutput
	decodeResult(t, callTool(t, srv, "reorder_task", map[string]any{"source_id": 4, "target_id": 1}), &out)

	if !out.Moved {
		t.Fatal("expected the task to move")
	}
	want := []string{before[3], before[0], before[1], before[2], before[4]}
	for i, task := range out.Tasks {
		if task.Title != want[i] {
			t.Errorf("position %d = %q, want %q", i, task.Title, want[i])
		}
		if task.ID != i+1 {
			t.Errorf("position %d has id %d", i, task.ID)
		}
	}
}

func TestReorderTaskNoOp(t *testing.T) {
	srv, _ := newTestServer(t)

	var out reorderTaskOutput
	decodeResult(t, callTool(t, srv, "reorder_task", map[string]any{"source_id": 2, "target_id": 2}), &out)
	if out.Moved {
		t.Error("same source and target must not move")
	}

	decodeResult(t, callTool(t, srv, "reorder_task", map[string]any{"source_id": 2, "target_id": 42}), &out)
	if out.Moved {
		t.Error("missing target must not move")
	}
}

func TestGetProgress(t *testing.T) {
	srv, store := newTestServer(t)
	store.ToggleCompletion(1)
	store.ToggleCompletion(2)

	var out progressOutput
	decodeResult(t, callTool(t, srv, "get_progress", map[string]any{}), &out)

	if out.Completed != 2 || out.Total != 5 || out.Percent != 40 {
		t.Errorf("progress = %d/%d (%v%%), want 2/5 (40%%)", out.Completed, out.Total, out.Percent)
	}
	if out.Focus == nil || out.Focus.ID != 3 {
		t.Errorf("focus = %+v, want task 3", out.Focus)
	}
	if out.Quote == "" {
		t.Error("expected a quote")
	}
}

func TestGetProgressAllDone(t *testing.T) {
	srv, store := newTestServer(t)
	for _, task := range store.Tasks() {
		store.ToggleCompletion(task.ID)
	}

	var out progressOutput
	decodeResult(t, callTool(t, srv, "get_progress", map[string]any{}), &out)

	if out.Percent != 100 {
		t.Errorf("percent = %v, want 100", out.Percent)
	}
	if out.Focus != nil {
		t.Errorf("expected no focus task, got %+v", out.Focus)
	}
}

func TestGetMetrics(t *testing.T) {
	store := newTestStore(t, nil)
	mc := &fakeMetricsCalculator{metrics: &observability.Metrics{
		Completions:  4,
		Reopens:      1,
		Reorders:     2,
		Celebrations: 4,
		Milestones:   1,
		EventCount:   11,
	}}
	srv := NewServer(store, mc, nil, "test")

	var out metricsOutput
	decodeResult(t, callTool(t, srv, "get_metrics", map[string]any{"since": "30d"}), &out)

	if out.Completions != 4 || out.Reopens != 1 || out.Reorders != 2 {
		t.Errorf("unexpected metrics: %+v", out)
	}
	if out.Milestones != 1 || out.EventCount != 11 {
		t.Errorf("unexpected metrics: %+v", out)
	}
}

func TestGetMetricsUnavailable(t *testing.T) {
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "get_metrics", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result without a metrics calculator")
	}
}

func TestGetMetricsBadSince(t *testing.T) {
	store := newTestStore(t, nil)
	srv := NewServer(store, &fakeMetricsCalculator{metrics: &observability.Metrics{}}, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{"since": "7w"})
	if !result.IsError {
		t.Fatal("expected error result for unsupported duration")
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"7d", false},
		{"30d", false},
		{"24h", false},
		{"1h", false},
		{"", true},
		{"x", true},
		{"7x", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseSince(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSince(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
