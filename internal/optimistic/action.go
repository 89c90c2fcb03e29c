// Package optimistic implements the client-side prediction engine: a pure
// reducer over the task tree, the drag-reorder gesture, and a reconciler
// that tracks each in-flight mutation and rolls back rejected ones.
package optimistic

import (
	"time"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
)

// ActionType enumerates the closed set of tree mutations the reducer
// understands. Restore is internal: it is only ever minted as the inverse
// of a delete.
type ActionType string

const (
	ActionUpdateStatus      ActionType = "updateStatus"
	ActionUpdatePriority    ActionType = "updatePriority"
	ActionUpdateAssignee    ActionType = "updateAssignee"
	ActionUpdateDescription ActionType = "updateDescription"
	ActionDelete            ActionType = "delete"
	ActionReorder           ActionType = "reorder"
	ActionAddTask           ActionType = "addTask"
	ActionAddSubtask        ActionType = "addSubtask"
	ActionRestore           ActionType = "restore"
)

// provisionalRank is the rank a placeholder node carries until the next
// authoritative read supplies the server-assigned one. Large enough to sort
// after any real sibling.
const provisionalRank = 9999

// Action is one tree mutation. Only the fields relevant to its Type are set.
type Action struct {
	Type   ActionType
	TaskID uuid.UUID

	Status      domain.TaskStatus
	Priority    *domain.TaskPriority
	AssigneeID  *uuid.UUID
	Assignee    *domain.UserSummary
	Description string

	// Reorder: the complete new top-level id sequence.
	Order []uuid.UUID

	// AddTask/AddSubtask: the placeholder node and the payload the server
	// call is made with. Restore: the node to re-insert and its old index.
	Placeholder domain.Task
	Input       domain.TaskCreate
	Index       int
}

// UpdateStatusAction sets a task's status.
func UpdateStatusAction(taskID uuid.UUID, status domain.TaskStatus) Action {
	return Action{Type: ActionUpdateStatus, TaskID: taskID, Status: status}
}

// UpdatePriorityAction sets a task's priority; nil clears it.
func UpdatePriorityAction(taskID uuid.UUID, priority *domain.TaskPriority) Action {
	return Action{Type: ActionUpdatePriority, TaskID: taskID, Priority: priority}
}

// UpdateAssigneeAction sets a task's assignee; the summary is carried so the
// prediction can render the new assignee without a lookup.
func UpdateAssigneeAction(taskID uuid.UUID, assigneeID *uuid.UUID, assignee *domain.UserSummary) Action {
	return Action{Type: ActionUpdateAssignee, TaskID: taskID, AssigneeID: assigneeID, Assignee: assignee}
}

// UpdateDescriptionAction sets a task's description.
func UpdateDescriptionAction(taskID uuid.UUID, description string) Action {
	return Action{Type: ActionUpdateDescription, TaskID: taskID, Description: description}
}

// DeleteAction removes a task from either tree level.
func DeleteAction(taskID uuid.UUID) Action {
	return Action{Type: ActionDelete, TaskID: taskID}
}

// ReorderAction replaces the top-level ordering with the given id sequence.
func ReorderAction(order []uuid.UUID) Action {
	return Action{Type: ActionReorder, Order: order}
}

// AddTaskAction mints a placeholder top-level task. The placeholder carries a
// locally generated id and a provisional rank, both superseded once the
// server-confirmed node arrives on the next read.
func AddTaskAction(workspaceID uuid.UUID, input domain.TaskCreate) Action {
	return Action{
		Type:        ActionAddTask,
		Placeholder: newPlaceholder(workspaceID, nil, input),
		Input:       input,
	}
}

// AddSubtaskAction mints a placeholder subtask under the given parent.
func AddSubtaskAction(workspaceID, parentID uuid.UUID, input domain.TaskCreate) Action {
	input.ParentID = &parentID
	return Action{
		Type:        ActionAddSubtask,
		TaskID:      parentID,
		Placeholder: newPlaceholder(workspaceID, &parentID, input),
		Input:       input,
	}
}

func newPlaceholder(workspaceID uuid.UUID, parentID *uuid.UUID, input domain.TaskCreate) domain.Task {
	var priority *domain.TaskPriority
	if input.Priority != nil {
		p := domain.TaskPriority(*input.Priority)
		priority = &p
	}

	now := time.Now()
	return domain.Task{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		Title:       input.Title,
		Status:      domain.StatusNotStarted,
		Priority:    priority,
		AssigneeID:  input.AssigneeID,
		SortOrder:   provisionalRank,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
