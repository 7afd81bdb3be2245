// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the goal board as tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/goal-board/internal/core"
	"github.com/valter-silva-au/goal-board/internal/observability"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

// Server wraps the board services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	store       core.TaskStore
	metricsCalc observability.MetricsCalculator
	quotes      *core.QuoteRotator
}

// NewServer creates an MCP server over store. metricsCalc and quotes may be
// nil.
func NewServer(store core.TaskStore, metricsCalc observability.MetricsCalculator, quotes *core.QuoteRotator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:       store,
		metricsCalc: metricsCalc,
		quotes:      quotes,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "goals", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves on transport until the client disconnects or ctx is cancelled.
// The command line passes a stdio transport.
func (s *Server) Run(ctx context.Context, transport gomcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listProjectsInput struct{}

type projectSummary struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Goal      string  `json:"goal"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	Current   bool    `json:"current"`
}

type listProjectsOutput struct {
	Projects []projectSummary `json:"projects"`
	Current  string           `json:"current"`
}

type selectProjectInput struct {
	Project string `json:"project" jsonschema:"project key, e.g. astrology or atema-bio"`
}

type selectProjectOutput struct {
	Message string         `json:"message"`
	Project projectSummary `json:"project"`
}

type listTasksInput struct {
	Project string `json:"project,omitempty" jsonschema:"project key; defaults to the active project"`
}

type taskOutput struct {
	ID           int    `json:"id"`
	Key          string `json:"key"`
	Title        string `json:"title"`
	Phase        string `json:"phase"`
	TimeEstimate string `json:"time_estimate"`
	Completed    bool   `json:"completed"`
	Milestone    bool   `json:"milestone"`
	Reasoning    string `json:"reasoning,omitempty"`
	Details      string `json:"details,omitempty"`
	BlockedBy    string `json:"blocked_by,omitempty"`
	Unlocks      string `json:"unlocks,omitempty"`
}

type listTasksOutput struct {
	Project string       `json:"project"`
	Tasks   []taskOutput `json:"tasks"`
	Count   int          `json:"count"`
}

type toggleTaskInput struct {
	TaskID int `json:"task_id" jsonschema:"positional task id in the active project (1..N)"`
}

type toggleTaskOutput struct {
	Task       taskOutput `json:"task"`
	Previous   bool       `json:"previous"`
	Celebrated bool       `json:"celebrated"`
	Percent    float64    `json:"percent"`
}

type reorderTaskInput struct {
	SourceID int `json:"source_id" jsonschema:"id of the task to move"`
	TargetID int `json:"target_id" jsonschema:"id of the task it is placed in front of"`
}

type reorderTaskOutput struct {
	Moved bool         `json:"moved"`
	Tasks []taskOutput `json:"tasks"`
}

type getProgressInput struct {
	Project string `json:"project,omitempty" jsonschema:"project key; defaults to the active project"`
}

type progressOutput struct {
	Project   string      `json:"project"`
	Completed int         `json:"completed"`
	Total     int         `json:"total"`
	Percent   float64     `json:"percent"`
	Focus     *taskOutput `json:"focus,omitempty"`
	Quote     string      `json:"quote,omitempty"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	Completions     int    `json:"completions"`
	Reopens         int    `json:"reopens"`
	Reorders        int    `json:"reorders"`
	Celebrations    int    `json:"celebrations"`
	Milestones      int    `json:"milestones"`
	ProjectSwitches int    `json:"project_switches"`
	ActiveDays      int    `json:"active_days"`
	EventCount      int    `json:"event_count"`
	OldestEvent     string `json:"oldest_event,omitempty"`
	NewestEvent     string `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_projects",
		Description: "List every project with its goal and completion percentage, marking the active one.",
	}, s.handleListProjects)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "select_project",
		Description: "Make a project the active one. Task tools act on the active project.",
	}, s.handleSelectProject)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List a project's tasks in order. Ids are positional and change after a reorder.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_task",
		Description: "Flip a task in the active project between done and not done. Completing a task triggers a celebration.",
	}, s.handleToggleTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reorder_task",
		Description: "Move a task so it sits immediately before another task in the active project. Tasks in between shift by one.",
	}, s.handleReorderTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_progress",
		Description: "Get completion counts, percentage and the current focus task for a project.",
	}, s.handleGetProgress)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get board activity metrics from the event log: completions, reopens, reorders, celebrations.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleListProjects(_ context.Context, _ *gomcp.CallToolRequest, _ listProjectsInput) (*gomcp.CallToolResult, listProjectsOutput, error) {
	current := s.store.CurrentKey()
	out := listProjectsOutput{Current: string(current)}
	for _, key := range s.store.ProjectKeys() {
		p, err := s.store.Project(key)
		if err != nil {
			continue
		}
		out.Projects = append(out.Projects, summarize(key, p, key == current))
	}
	return nil, out, nil
}

func (s *Server) handleSelectProject(_ context.Context, _ *gomcp.CallToolRequest, input selectProjectInput) (*gomcp.CallToolResult, selectProjectOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), selectProjectOutput{}, nil
	}
	key := models.ProjectKey(input.Project)
	if err := s.store.SelectProject(key); err != nil {
		if errors.Is(err, core.ErrUnknownProject) {
			return errorResult(fmt.Sprintf("unknown project %q", input.Project)), selectProjectOutput{}, nil
		}
		return errorResult(fmt.Sprintf("selecting project: %s", err)), selectProjectOutput{}, nil
	}
	p := s.store.CurrentProject()
	return nil, selectProjectOutput{
		Message: fmt.Sprintf("now working on %s", p.Name),
		Project: summarize(key, p, true),
	}, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	key, p, errRes := s.resolveProject(input.Project)
	if errRes != nil {
		return errRes, listTasksOutput{}, nil
	}
	out := listTasksOutput{
		Project: string(key),
		Tasks:   tasksToOutput(p.Tasks),
		Count:   len(p.Tasks),
	}
	return nil, out, nil
}

func (s *Server) handleToggleTask(_ context.Context, _ *gomcp.CallToolRequest, input toggleTaskInput) (*gomcp.CallToolResult, toggleTaskOutput, error) {
	res, ok := s.store.ToggleCompletion(input.TaskID)
	if !ok {
		return errorResult(fmt.Sprintf("no task with id %d in %s", input.TaskID, s.store.CurrentKey())), toggleTaskOutput{}, nil
	}
	return nil, toggleTaskOutput{
		Task:       taskToOutput(res.Task),
		Previous:   res.Previous,
		Celebrated: core.ShouldCelebrate(res.Previous, res.Completed),
		Percent:    s.store.PercentComplete(),
	}, nil
}

func (s *Server) handleReorderTask(_ context.Context, _ *gomcp.CallToolRequest, input reorderTaskInput) (*gomcp.CallToolResult, reorderTaskOutput, error) {
	moved := s.store.Reorder(input.SourceID, input.TargetID)
	return nil, reorderTaskOutput{
		Moved: moved,
		Tasks: tasksToOutput(s.store.Tasks()),
	}, nil
}

func (s *Server) handleGetProgress(_ context.Context, _ *gomcp.CallToolRequest, input getProgressInput) (*gomcp.CallToolResult, progressOutput, error) {
	key, p, errRes := s.resolveProject(input.Project)
	if errRes != nil {
		return errRes, progressOutput{}, nil
	}
	completed, total := core.CountCompleted(p.Tasks)
	out := progressOutput{
		Project:   string(key),
		Completed: completed,
		Total:     total,
		Percent:   core.Percent(completed, total),
	}
	if focus, ok := core.FirstIncomplete(p.Tasks); ok {
		t := taskToOutput(focus)
		out.Focus = &t
	}
	if s.quotes != nil {
		out.Quote = s.quotes.Current()
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), metricsOutput{}, nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}
	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), metricsOutput{}, nil
	}

	m, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), metricsOutput{}, nil
	}

	out := metricsOutput{
		Completions:     m.Completions,
		Reopens:         m.Reopens,
		Reorders:        m.Reorders,
		Celebrations:    m.Celebrations,
		Milestones:      m.Milestones,
		ProjectSwitches: m.ProjectSwitches,
		ActiveDays:      m.ActiveDays,
		EventCount:      m.EventCount,
	}
	if m.OldestEvent != nil {
		out.OldestEvent = m.OldestEvent.Format(time.RFC3339)
	}
	if m.NewestEvent != nil {
		out.NewestEvent = m.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

// --- Helpers ---

func (s *Server) resolveProject(raw string) (models.ProjectKey, models.Project, *gomcp.CallToolResult) {
	key := s.store.CurrentKey()
	if raw != "" {
		key = models.ProjectKey(raw)
	}
	p, err := s.store.Project(key)
	if err != nil {
		return key, models.Project{}, errorResult(fmt.Sprintf("unknown project %q", key))
	}
	return key, p, nil
}

func summarize(key models.ProjectKey, p models.Project, current bool) projectSummary {
	completed, total := core.CountCompleted(p.Tasks)
	return projectSummary{
		Key:       string(key),
		Name:      p.Name,
		Goal:      p.Goal,
		Completed: completed,
		Total:     total,
		Percent:   core.Percent(completed, total),
		Current:   current,
	}
}

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:           t.ID,
		Key:          t.Key,
		Title:        t.Title,
		Phase:        t.Phase,
		TimeEstimate: t.TimeEstimate,
		Completed:    t.Completed,
		Milestone:    t.IsMilestone(),
		Reasoning:    t.Reasoning,
		Details:      t.Details,
		BlockedBy:    t.BlockedBy,
		Unlocks:      t.Unlocks,
	}
}

func tasksToOutput(tasks []models.Task) []taskOutput {
	out := make([]taskOutput, len(tasks))
	for i, t := range tasks {
		out[i] = taskToOutput(t)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
