// Package core contains the business logic of the goal board: the task
// store, the reorder engine, the persistence mirror, celebrations, and
// configuration loading.
package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

// ErrUnknownProject is returned when a project key is not on the board.
var ErrUnknownProject = errors.New("unknown project")

// ToggleResult describes a completion toggle so callers can detect the
// false->true transition.
type ToggleResult struct {
	ProjectKey models.ProjectKey
	Task       models.Task // state after the toggle
	Previous   bool
	Completed  bool
}

// TaskStore owns the ordered task lists of every project and the currently
// selected project. Task operations act on the selected project.
type TaskStore interface {
	SelectProject(key models.ProjectKey) error
	CurrentKey() models.ProjectKey
	ProjectKeys() []models.ProjectKey
	Project(key models.ProjectKey) (models.Project, error)
	CurrentProject() models.Project
	Tasks() []models.Task

	ToggleCompletion(taskID int) (ToggleResult, bool)
	Reorder(sourceID, targetID int) bool
	ReplaceProject(key models.ProjectKey, project models.Project) error

	PercentComplete() float64
	Counts() (completed, total int)
	FirstIncomplete() (models.Task, bool)

	Snapshot() models.Snapshot
	Restore(snap models.Snapshot)
}

type memoryTaskStore struct {
	mu       sync.RWMutex
	projects map[models.ProjectKey]models.Project
	current  models.ProjectKey
	bus      *Bus
}

// NewTaskStore creates a TaskStore seeded with projects. The map is copied.
// current must name one of the projects. bus may be nil, in which case no
// events are published.
func NewTaskStore(projects map[models.ProjectKey]models.Project, current models.ProjectKey, bus *Bus) (TaskStore, error) {
	if _, ok := projects[current]; !ok {
		return nil, fmt.Errorf("creating task store: %w: %q", ErrUnknownProject, current)
	}
	s := &memoryTaskStore{
		projects: cloneProjects(projects),
		current:  current,
		bus:      bus,
	}
	for key, p := range s.projects {
		s.projects[key] = withTaskKeys(p)
	}
	return s, nil
}

// NewTaskKey returns a fresh stable task identity.
func NewTaskKey() string {
	return uuid.NewString()
}

func (s *memoryTaskStore) SelectProject(key models.ProjectKey) error {
	s.mu.Lock()
	if _, ok := s.projects[key]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("selecting project: %w: %q", ErrUnknownProject, key)
	}
	changed := s.current != key
	s.current = key
	s.mu.Unlock()

	if changed {
		s.bus.Publish(Event{Topic: TopicProjectSelected, ProjectKey: key})
	}
	return nil
}

func (s *memoryTaskStore) CurrentKey() models.ProjectKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *memoryTaskStore) ProjectKeys() []models.ProjectKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]models.ProjectKey, 0, len(s.projects))
	for k := range s.projects {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (s *memoryTaskStore) Project(key models.ProjectKey) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[key]
	if !ok {
		return models.Project{}, fmt.Errorf("%w: %q", ErrUnknownProject, key)
	}
	return p.Clone(), nil
}

func (s *memoryTaskStore) CurrentProject() models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[s.current].Clone()
}

func (s *memoryTaskStore) Tasks() []models.Task {
	return s.CurrentProject().Tasks
}

// ToggleCompletion flips the completed flag of the task with the given
// positional id in the current project. An unknown id is a silent no-op.
func (s *memoryTaskStore) ToggleCompletion(taskID int) (ToggleResult, bool) {
	s.mu.Lock()
	p := s.projects[s.current]
	idx := -1
	for i, t := range p.Tasks {
		if t.ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ToggleResult{}, false
	}

	p = p.Clone()
	prev := p.Tasks[idx].Completed
	p.Tasks[idx].Completed = !prev
	s.projects[s.current] = p
	res := ToggleResult{
		ProjectKey: s.current,
		Task:       p.Tasks[idx],
		Previous:   prev,
		Completed:  !prev,
	}
	s.mu.Unlock()

	topic := TopicTaskCompleted
	if !res.Completed {
		topic = TopicTaskReopened
	}
	s.bus.Publish(Event{
		Topic:      topic,
		ProjectKey: res.ProjectKey,
		Task:       res.Task,
		Previous:   res.Previous,
		Completed:  res.Completed,
	})
	return res, true
}

// Reorder moves sourceID onto targetID's position in the current project.
// It reports whether the list changed.
func (s *memoryTaskStore) Reorder(sourceID, targetID int) bool {
	s.mu.Lock()
	p := s.projects[s.current]
	tasks, moved := ReorderTasks(p.Tasks, sourceID, targetID)
	if !moved {
		s.mu.Unlock()
		return false
	}
	var movedTask models.Task
	for _, t := range p.Tasks {
		if t.ID == sourceID {
			movedTask = t
			break
		}
	}
	for _, t := range tasks {
		if t.Key == movedTask.Key {
			movedTask = t
			break
		}
	}
	p.Tasks = tasks
	s.projects[s.current] = p
	key := s.current
	s.mu.Unlock()

	s.bus.Publish(Event{
		Topic:      TopicTaskReordered,
		ProjectKey: key,
		Task:       movedTask,
		SourceID:   sourceID,
		TargetID:   targetID,
	})
	return true
}

// ReplaceProject overwrites a project wholesale with the result of an
// external edit. The shape is trusted; tasks without a stable key get one.
// Unknown keys add a new project.
func (s *memoryTaskStore) ReplaceProject(key models.ProjectKey, project models.Project) error {
	if key == "" {
		return fmt.Errorf("replacing project: key must not be empty")
	}
	project = withTaskKeys(project.Clone())

	s.mu.Lock()
	s.projects[key] = project
	s.mu.Unlock()

	s.bus.Publish(Event{Topic: TopicProjectReplaced, ProjectKey: key})
	return nil
}

// PercentComplete returns the share of completed tasks in the current
// project as a percentage, or 0 for a project without tasks.
func (s *memoryTaskStore) PercentComplete() float64 {
	completed, total := s.Counts()
	return Percent(completed, total)
}

func (s *memoryTaskStore) Counts() (completed, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CountCompleted(s.projects[s.current].Tasks)
}

// FirstIncomplete returns the current focus task: the first task in list
// order that is not completed.
func (s *memoryTaskStore) FirstIncomplete() (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FirstIncomplete(s.projects[s.current].Tasks)
}

func (s *memoryTaskStore) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Snapshot{
		Projects:       cloneProjects(s.projects),
		CurrentProject: s.current,
	}
}

// Restore replaces the whole board with a loaded snapshot without publishing
// events. An unknown CurrentProject keeps the present selection when it still
// exists, else falls back to the first key in sorted order.
func (s *memoryTaskStore) Restore(snap models.Snapshot) {
	if len(snap.Projects) == 0 {
		return
	}
	projects := cloneProjects(snap.Projects)
	for key, p := range projects {
		projects[key] = withTaskKeys(p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
	switch {
	case hasProject(projects, snap.CurrentProject):
		s.current = snap.CurrentProject
	case hasProject(projects, s.current):
	default:
		keys := make([]models.ProjectKey, 0, len(projects))
		for k := range projects {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		s.current = keys[0]
	}
}

// Percent returns completed/total*100, guarding the empty list.
func Percent(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) * 100 / float64(total)
}

// CountCompleted returns the number of completed tasks and the total.
func CountCompleted(tasks []models.Task) (completed, total int) {
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return completed, len(tasks)
}

// FirstIncomplete returns the first task in list order that is not completed.
func FirstIncomplete(tasks []models.Task) (models.Task, bool) {
	for _, t := range tasks {
		if !t.Completed {
			return t, true
		}
	}
	return models.Task{}, false
}

func hasProject(projects map[models.ProjectKey]models.Project, key models.ProjectKey) bool {
	_, ok := projects[key]
	return ok
}

func cloneProjects(in map[models.ProjectKey]models.Project) map[models.ProjectKey]models.Project {
	out := make(map[models.ProjectKey]models.Project, len(in))
	for k, p := range in {
		out[k] = p.Clone()
	}
	return out
}

// withTaskKeys assigns stable keys to tasks that lack one. p must already be
// a private copy.
func withTaskKeys(p models.Project) models.Project {
	for i := range p.Tasks {
		if p.Tasks[i].Key == "" {
			p.Tasks[i].Key = NewTaskKey()
		}
	}
	return p
}
