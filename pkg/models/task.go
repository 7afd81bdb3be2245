package models

// ProjectKey identifies a project on the board (e.g. "astrology").
type ProjectKey string

const (
	ProjectAstrology ProjectKey = "astrology"
	ProjectAtemaBio  ProjectKey = "atema-bio"
)

// MilestoneEstimate is the TimeEstimate value that marks a milestone task.
const MilestoneEstimate = "Milestone"

// Task is a unit of work within a project.
//
// ID is positional: it is renumbered 1..N after every reorder and must not be
// cached across one. Key is the stable identity of the task and survives
// reorders and restarts.
type Task struct {
	ID           int    `json:"id" yaml:"id"`
	Key          string `json:"key,omitempty" yaml:"key,omitempty"`
	Title        string `json:"title" yaml:"title"`
	Phase        string `json:"phase" yaml:"phase"`
	TimeEstimate string `json:"timeEstimate" yaml:"time_estimate"`
	Completed    bool   `json:"completed" yaml:"completed"`
	Reasoning    string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Details      string `json:"details,omitempty" yaml:"details,omitempty"`
	BlockedBy    string `json:"blockedBy,omitempty" yaml:"blocked_by,omitempty"`
	Unlocks      string `json:"unlocks,omitempty" yaml:"unlocks,omitempty"`
}

// IsMilestone reports whether completing the task earns the milestone
// celebration.
func (t Task) IsMilestone() bool {
	return t.TimeEstimate == MilestoneEstimate
}

// Project is a named, ordered collection of tasks working toward a goal.
type Project struct {
	Name  string `json:"name" yaml:"name"`
	Goal  string `json:"goal" yaml:"goal"`
	Tasks []Task `json:"tasks" yaml:"tasks"`
	// CurrentTaskIndex is persisted for snapshot compatibility only. The
	// focus task is always derived from the first incomplete task.
	CurrentTaskIndex int `json:"currentTaskIndex" yaml:"current_task_index"`
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	if p.Tasks != nil {
		out.Tasks = make([]Task, len(p.Tasks))
		copy(out.Tasks, p.Tasks)
	}
	return out
}

// Snapshot is the full persisted state of the board: every project plus the
// active project key.
type Snapshot struct {
	Projects       map[ProjectKey]Project `json:"projects"`
	CurrentProject ProjectKey             `json:"currentProject"`
}
