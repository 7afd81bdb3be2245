package observability

import (
	"fmt"
	"time"
)

// ProjectActivity counts task activity for a single project.
type ProjectActivity struct {
	Completions int `json:"completions"`
	Reopens     int `json:"reopens"`
	Reorders    int `json:"reorders"`
}

// Metrics summarises board activity derived from the event log.
type Metrics struct {
	Completions     int                        `json:"completions"`
	Reopens         int                        `json:"reopens"`
	Reorders        int                        `json:"reorders"`
	Celebrations    int                        `json:"celebrations"`
	Milestones      int                        `json:"milestones"`
	ProjectSwitches int                        `json:"project_switches"`
	Edits           int                        `json:"edits"`
	ByProject       map[string]ProjectActivity `json:"by_project"`
	ActiveDays      int                        `json:"active_days"`
	EventCount      int                        `json:"event_count"`
	OldestEvent     *time.Time                 `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time                 `json:"newest_event,omitempty"`
}

// NetCompletions is completions minus reopens.
func (m *Metrics) NetCompletions() int {
	return m.Completions - m.Reopens
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{ByProject: make(map[string]ProjectActivity)}
	m.EventCount = len(events)
	days := make(map[string]struct{})

	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		activity := m.ByProject[event.Project]
		switch event.Type {
		case EventTaskCompleted:
			m.Completions++
			activity.Completions++
			days[t.UTC().Format(time.DateOnly)] = struct{}{}
		case EventTaskReopened:
			m.Reopens++
			activity.Reopens++
		case EventTaskReordered:
			m.Reorders++
			activity.Reorders++
		case EventCelebrationFired:
			m.Celebrations++
			if milestone, ok := event.Data["milestone"].(bool); ok && milestone {
				m.Milestones++
			}
		case EventProjectSelected:
			m.ProjectSwitches++
		case EventProjectReplaced:
			m.Edits++
		default:
			continue
		}
		if event.Project != "" && activity != (ProjectActivity{}) {
			m.ByProject[event.Project] = activity
		}
	}
	m.ActiveDays = len(days)

	return m, nil
}
