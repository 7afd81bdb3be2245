package core

import "github.com/valter-silva-au/goal-board/pkg/models"

// ReorderTasks removes the task with id sourceID from the list and inserts it
// immediately before the task with id targetID, then renumbers every id to
// 1..N in the new order. It is a list move, not a swap: tasks between the two
// positions shift by one toward the vacated slot. Dropping a task onto its
// successor therefore leaves the order as it was.
//
// The input slice is never modified. When the order would not change or
// either id is missing, the input is returned unchanged with moved=false.
func ReorderTasks(tasks []models.Task, sourceID, targetID int) (result []models.Task, moved bool) {
	if sourceID == targetID {
		return tasks, false
	}
	from, to := -1, -1
	for i, t := range tasks {
		switch t.ID {
		case sourceID:
			if from < 0 {
				from = i
			}
		case targetID:
			if to < 0 {
				to = i
			}
		}
	}
	if from < 0 || to < 0 {
		return tasks, false
	}
	// The target sits one slot earlier once the source is gone from in front
	// of it.
	if to > from {
		to--
	}
	return MoveTask(tasks, from, to)
}

// MoveTask moves the task at index from so that it ends up at index to, then
// renumbers ids. Out-of-range or equal indices return the input unchanged.
func MoveTask(tasks []models.Task, from, to int) ([]models.Task, bool) {
	n := len(tasks)
	if from == to || from < 0 || to < 0 || from >= n || to >= n {
		return tasks, false
	}

	out := make([]models.Task, 0, n)
	out = append(out, tasks[:from]...)
	out = append(out, tasks[from+1:]...)

	moving := tasks[from]
	out = append(out, models.Task{})
	copy(out[to+1:], out[to:])
	out[to] = moving

	Renumber(out)
	return out, true
}

// Renumber rewrites ids in place so they are exactly 1..N in list order.
func Renumber(tasks []models.Task) {
	for i := range tasks {
		tasks[i].ID = i + 1
	}
}
