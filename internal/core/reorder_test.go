package core

import (
	"reflect"
	"testing"

	"github.com/valter-silva-au/goal-board/pkg/models"
)

func TestReorderTasks(t *testing.T) {
	tests := []struct {
		name      string
		source    int
		target    int
		want      []string
		wantMoved bool
	}{
		{"last onto first", 3, 1, []string{"three", "one", "two"}, true},
		{"first onto last", 1, 3, []string{"two", "one", "three"}, true},
		{"adjacent down", 1, 2, []string{"one", "two", "three"}, false},
		{"adjacent up", 2, 1, []string{"two", "one", "three"}, true},
		{"same id", 2, 2, []string{"one", "two", "three"}, false},
		{"missing source", 9, 1, []string{"one", "two", "three"}, false},
		{"missing target", 1, 9, []string{"one", "two", "three"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := threeTasks()
			got, moved := ReorderTasks(in, tt.source, tt.target)
			if moved != tt.wantMoved {
				t.Errorf("moved = %v, want %v", moved, tt.wantMoved)
			}
			if !reflect.DeepEqual(titles(got), tt.want) {
				t.Errorf("order = %v, want %v", titles(got), tt.want)
			}
			for i, task := range got {
				if task.ID != i+1 {
					t.Errorf("position %d has id %d", i, task.ID)
				}
			}
			if !reflect.DeepEqual(titles(in), []string{"one", "two", "three"}) {
				t.Error("input slice was modified")
			}
		})
	}
}

func TestReorderTasks_InsertsBeforeTarget(t *testing.T) {
	in := []models.Task{
		{ID: 1, Key: "a", Title: "a"},
		{ID: 2, Key: "b", Title: "b"},
		{ID: 3, Key: "c", Title: "c"},
		{ID: 4, Key: "d", Title: "d"},
		{ID: 5, Key: "e", Title: "e"},
	}
	tests := []struct {
		source, target int
		want           []string
	}{
		{2, 5, []string{"a", "c", "d", "b", "e"}},
		{1, 4, []string{"b", "c", "a", "d", "e"}},
		{5, 2, []string{"a", "e", "b", "c", "d"}},
		{4, 5, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		got, _ := ReorderTasks(in, tt.source, tt.target)
		if !reflect.DeepEqual(titles(got), tt.want) {
			t.Errorf("ReorderTasks(%d onto %d) = %v, want %v", tt.source, tt.target, titles(got), tt.want)
		}
	}
}

func TestReorderTasks_KeepsFields(t *testing.T) {
	in := threeTasks()
	in[2].Completed = true
	in[2].Key = "k3"
	got, _ := ReorderTasks(in, 3, 1)
	if got[0].Key != "k3" || !got[0].Completed || !got[0].IsMilestone() {
		t.Errorf("moved task = %+v, want fields preserved", got[0])
	}
}

func TestReorderTasks_Empty(t *testing.T) {
	got, moved := ReorderTasks(nil, 1, 2)
	if moved || len(got) != 0 {
		t.Errorf("ReorderTasks(nil) = %v, %v", got, moved)
	}
}

func TestMoveTask_OutOfRange(t *testing.T) {
	in := threeTasks()
	for _, c := range [][2]int{{-1, 0}, {0, 3}, {1, 1}, {5, 0}} {
		if _, moved := MoveTask(in, c[0], c[1]); moved {
			t.Errorf("MoveTask(%d, %d) moved", c[0], c[1])
		}
	}
}

func TestRenumber(t *testing.T) {
	tasks := []models.Task{{ID: 7}, {ID: 3}, {ID: 7}}
	Renumber(tasks)
	for i, task := range tasks {
		if task.ID != i+1 {
			t.Errorf("tasks[%d].ID = %d", i, task.ID)
		}
	}
}
