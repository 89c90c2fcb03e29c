package optimistic

import (
	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
)

// Reduce applies one action to the tree and returns the predicted tree. It is
// pure: the input slice and its nodes are never mutated. Every action is
// total: an id that no longer exists reduces to the unchanged tree rather
// than an error, which is what makes predictions safe to race against
// concurrent deletes by other members.
func Reduce(tasks []domain.Task, action Action) []domain.Task {
	next := cloneTree(tasks)

	switch action.Type {
	case ActionUpdateStatus, ActionUpdatePriority, ActionUpdateAssignee, ActionUpdateDescription:
		if task := findTask(next, action.TaskID); task != nil {
			applyField(task, action)
		}

	case ActionDelete:
		next = deleteTask(next, action.TaskID)

	case ActionReorder:
		next = reorderTop(next, action.Order)

	case ActionAddTask:
		next = append(next, action.Placeholder)

	case ActionAddSubtask:
		if parent := findTop(next, action.TaskID); parent != nil {
			parent.Subtasks = append(parent.Subtasks, action.Placeholder)
		}

	case ActionRestore:
		next = restoreTask(next, action)
	}

	return next
}

func applyField(task *domain.Task, action Action) {
	switch action.Type {
	case ActionUpdateStatus:
		task.Status = action.Status
	case ActionUpdatePriority:
		task.Priority = action.Priority
	case ActionUpdateAssignee:
		task.AssigneeID = action.AssigneeID
		task.Assignee = action.Assignee
	case ActionUpdateDescription:
		task.Description = action.Description
	}
}

// findTask locates a task at either level of the cloned tree.
func findTask(tasks []domain.Task, id uuid.UUID) *domain.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
		for j := range tasks[i].Subtasks {
			if tasks[i].Subtasks[j].ID == id {
				return &tasks[i].Subtasks[j]
			}
		}
	}
	return nil
}

func findTop(tasks []domain.Task, id uuid.UUID) *domain.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// deleteTask removes the task from the top level or from its parent's
// subtask list, leaving every other node untouched.
func deleteTask(tasks []domain.Task, id uuid.UUID) []domain.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return append(tasks[:i], tasks[i+1:]...)
		}
		for j := range tasks[i].Subtasks {
			if tasks[i].Subtasks[j].ID == id {
				subtasks := tasks[i].Subtasks
				tasks[i].Subtasks = append(subtasks[:j], subtasks[j+1:]...)
				return tasks
			}
		}
	}
	return tasks
}

// reorderTop rebuilds the top level in the given id order. Ids that no longer
// resolve are dropped silently; ranks become list indices.
func reorderTop(tasks []domain.Task, order []uuid.UUID) []domain.Task {
	byID := make(map[uuid.UUID]domain.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	reordered := make([]domain.Task, 0, len(order))
	for _, id := range order {
		task, ok := byID[id]
		if !ok {
			continue
		}
		task.SortOrder = len(reordered)
		reordered = append(reordered, task)
	}

	return reordered
}

// restoreTask re-inserts a previously deleted node at its old position. Used
// only when rolling back a rejected delete.
func restoreTask(tasks []domain.Task, action Action) []domain.Task {
	node := action.Placeholder

	if node.ParentID != nil {
		if parent := findTop(tasks, *node.ParentID); parent != nil {
			index := min(action.Index, len(parent.Subtasks))
			parent.Subtasks = append(parent.Subtasks[:index], append([]domain.Task{node}, parent.Subtasks[index:]...)...)
		}
		return tasks
	}

	index := min(action.Index, len(tasks))
	return append(tasks[:index], append([]domain.Task{node}, tasks[index:]...)...)
}

// cloneTree copies the tree one node deep. Pointer-valued fields are treated
// as immutable and shared; the reducer replaces them, never writes through.
func cloneTree(tasks []domain.Task) []domain.Task {
	next := make([]domain.Task, len(tasks))
	for i, task := range tasks {
		if task.Subtasks != nil {
			task.Subtasks = append([]domain.Task(nil), task.Subtasks...)
		}
		next[i] = task
	}
	return next
}
