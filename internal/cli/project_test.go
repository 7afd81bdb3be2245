package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/goal-board/internal/core"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

func TestProjectListCmd(t *testing.T) {
	store := useTestStore(t)
	store.ToggleCompletion(1)

	out, err := runCmd(t, projectListCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 projects, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "* astrology") {
		t.Errorf("current project not marked: %q", lines[0])
	}
	if !strings.Contains(lines[0], "20% (1/5)") {
		t.Errorf("unexpected progress: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  atema-bio") {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestProjectSelectCmd(t *testing.T) {
	store := useTestStore(t)

	out, err := runCmd(t, projectSelectCmd, "atema-bio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.CurrentKey() != models.ProjectAtemaBio {
		t.Errorf("current = %q, want atema-bio", store.CurrentKey())
	}
	if !strings.Contains(out, "Now working on") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestProjectSelectCmd_Unknown(t *testing.T) {
	store := useTestStore(t)

	_, err := runCmd(t, projectSelectCmd, "financials")
	if !errors.Is(err, core.ErrUnknownProject) {
		t.Fatalf("expected ErrUnknownProject, got %v", err)
	}
	if store.CurrentKey() != models.ProjectAstrology {
		t.Error("failed select changed the current project")
	}
}

func TestProjectShowCmd(t *testing.T) {
	useTestStore(t)

	out, err := runCmd(t, projectShowCmd, "atema-bio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "(atema-bio)") || !strings.Contains(out, "Goal:") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "Sign seed term sheet") {
		t.Errorf("tasks missing from output: %q", out)
	}
}

func TestProjectShowCmd_Unknown(t *testing.T) {
	useTestStore(t)

	if _, err := runCmd(t, projectShowCmd, "nope"); err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestProgressCmd(t *testing.T) {
	store := useTestStore(t)
	store.ToggleCompletion(1)
	store.ToggleCompletion(2)

	out, err := runCmd(t, progressCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"40% (2/5)", "Focus: #3 Build natal chart engine", Quotes.Current()} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q should contain %q", out, want)
		}
	}
}

func TestProgressCmd_AllDone(t *testing.T) {
	store := useTestStore(t)
	for _, task := range store.Tasks() {
		store.ToggleCompletion(task.ID)
	}

	out, err := runCmd(t, progressCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "100%") || !strings.Contains(out, "Every task is done") {
		t.Errorf("unexpected output: %q", out)
	}
}
