package core

import (
	"testing"

	"github.com/valter-silva-au/goal-board/pkg/models"
)

func TestDefaultProjects_Shape(t *testing.T) {
	projects := DefaultProjects()
	for _, key := range []models.ProjectKey{models.ProjectAstrology, models.ProjectAtemaBio} {
		p, ok := projects[key]
		if !ok {
			t.Fatalf("seed is missing %q", key)
		}
		milestones := 0
		for i, task := range p.Tasks {
			if task.ID != i+1 {
				t.Errorf("%s: position %d has id %d", key, i, task.ID)
			}
			if task.Completed {
				t.Errorf("%s: task %d seeded as completed", key, task.ID)
			}
			if task.IsMilestone() {
				milestones++
			}
		}
		if milestones == 0 {
			t.Errorf("%s: expected at least one milestone task", key)
		}
	}
}

func TestDefaultProjects_FreshCopies(t *testing.T) {
	a := DefaultProjects()
	a[models.ProjectAstrology].Tasks[0].Title = "changed"
	b := DefaultProjects()
	if b[models.ProjectAstrology].Tasks[0].Title == "changed" {
		t.Error("DefaultProjects shares task slices between calls")
	}
}
