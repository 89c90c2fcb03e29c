package optimistic

import (
	"context"
	"sync"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
)

// MutationState is the reconciler state of one dispatched mutation.
type MutationState string

const (
	StatePredicted MutationState = "predicted"
	StateConfirmed MutationState = "confirmed"
	StateRejected  MutationState = "rejected"
)

// Mutator is the server-side mutation surface the engine reconciles against.
// Implementations carry their own identity; the engine never sees tokens.
type Mutator interface {
	CreateTask(ctx context.Context, workspaceID uuid.UUID, input domain.TaskCreate) (*domain.Task, error)
	UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) error
	UpdatePriority(ctx context.Context, taskID uuid.UUID, priority *domain.TaskPriority) error
	UpdateAssignee(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID) error
	UpdateDescription(ctx context.Context, taskID uuid.UUID, description string) error
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
	Reorder(ctx context.Context, ids []uuid.UUID) error
}

// Notifier receives exactly one call per rejected mutation. Rejection is the
// single user-visible failure channel; confirmations are silent.
type Notifier func(action Action, err error)

type pendingMutation struct {
	id      uuid.UUID
	action  Action
	inverse Action
	// hasInverse is false when the addressed task had already vanished at
	// dispatch time, making the prediction a no-op with nothing to undo.
	hasInverse bool
}

// Engine holds the last authoritative tree plus all in-flight predictions.
//
// Dispatch applies the prediction synchronously, so the tree returned by a
// subsequent Tree call already reflects it, then issues the server call in
// the background. A rejected call is undone by applying the inverse captured
// at dispatch time; a confirmed one simply stops being pending and is
// superseded by the next Refresh. Once dispatched a mutation is never
// cancelled, retried, or timed out here.
type Engine struct {
	mutator Mutator
	notify  Notifier

	mu      sync.Mutex
	tree    []domain.Task
	pending []*pendingMutation
	states  map[uuid.UUID]MutationState
}

// NewEngine creates an engine over an initial authoritative tree. notify may
// be nil when rejection feedback is not wanted.
func NewEngine(mutator Mutator, tree []domain.Task, notify Notifier) *Engine {
	return &Engine{
		mutator: mutator,
		notify:  notify,
		tree:    cloneTree(tree),
		states:  make(map[uuid.UUID]MutationState),
	}
}

// Tree returns a snapshot of the current predicted tree.
func (e *Engine) Tree() []domain.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTree(e.tree)
}

// State reports the reconciler state of a dispatched mutation.
func (e *Engine) State(id uuid.UUID) (MutationState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.states[id]
	return state, ok
}

// PendingCount reports how many mutations are still awaiting the server.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Dispatch predicts the action against the local tree, records its inverse,
// and issues the server call in the background. It returns the mutation id
// immediately; the tree already reflects the prediction when it does.
func (e *Engine) Dispatch(ctx context.Context, action Action) uuid.UUID {
	e.mu.Lock()

	mutation := &pendingMutation{
		id:     uuid.New(),
		action: action,
	}
	mutation.inverse, mutation.hasInverse = inverseOf(e.tree, action)

	e.tree = Reduce(e.tree, action)
	e.pending = append(e.pending, mutation)
	e.states[mutation.id] = StatePredicted

	e.mu.Unlock()

	go e.send(ctx, mutation)

	return mutation.id
}

func (e *Engine) send(ctx context.Context, mutation *pendingMutation) {
	err := e.call(ctx, mutation.action)

	e.mu.Lock()

	e.removePending(mutation.id)
	if err == nil {
		e.states[mutation.id] = StateConfirmed
		e.mu.Unlock()
		return
	}

	e.states[mutation.id] = StateRejected
	if mutation.hasInverse {
		inverse := mutation.inverse
		if inverse.Type == ActionReorder {
			// A node added after the ordering was captured, such as a
			// placeholder whose create is still pending, is unknown to the
			// inverse; keep such nodes instead of dropping them.
			inverse.Order = appendSurvivors(inverse.Order, e.tree)
		}
		e.tree = Reduce(e.tree, inverse)
	}
	notify := e.notify

	e.mu.Unlock()

	if notify != nil {
		notify(mutation.action, err)
	}
}

func (e *Engine) call(ctx context.Context, action Action) error {
	switch action.Type {
	case ActionUpdateStatus:
		return e.mutator.UpdateStatus(ctx, action.TaskID, action.Status)
	case ActionUpdatePriority:
		return e.mutator.UpdatePriority(ctx, action.TaskID, action.Priority)
	case ActionUpdateAssignee:
		return e.mutator.UpdateAssignee(ctx, action.TaskID, action.AssigneeID)
	case ActionUpdateDescription:
		return e.mutator.UpdateDescription(ctx, action.TaskID, action.Description)
	case ActionDelete:
		return e.mutator.DeleteTask(ctx, action.TaskID)
	case ActionReorder:
		return e.mutator.Reorder(ctx, action.Order)
	case ActionAddTask, ActionAddSubtask:
		_, err := e.mutator.CreateTask(ctx, action.Placeholder.WorkspaceID, action.Input)
		return err
	}
	return nil
}

func (e *Engine) removePending(id uuid.UUID) {
	for i, mutation := range e.pending {
		if mutation.id == id {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// Refresh installs an authoritative server read and replays any still-pending
// predictions on top of it. Confirmed placeholders disappear here, replaced
// by their server-assigned nodes; stale field predictions get superseded by
// whatever the server returned.
func (e *Engine) Refresh(serverTree []domain.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tree = cloneTree(serverTree)
	for _, mutation := range e.pending {
		mutation.inverse, mutation.hasInverse = inverseOf(e.tree, mutation.action)
		e.tree = Reduce(e.tree, mutation.action)
	}
}

// appendSurvivors extends a captured ordering with any top-level ids that
// were not present when it was captured.
func appendSurvivors(order []uuid.UUID, tasks []domain.Task) []uuid.UUID {
	known := make(map[uuid.UUID]struct{}, len(order))
	for _, id := range order {
		known[id] = struct{}{}
	}

	merged := append([]uuid.UUID(nil), order...)
	for _, task := range tasks {
		if _, ok := known[task.ID]; !ok {
			merged = append(merged, task.ID)
		}
	}

	return merged
}

// inverseOf captures the action that undoes the given one against the
// current tree. Called before the action is applied.
func inverseOf(tasks []domain.Task, action Action) (Action, bool) {
	switch action.Type {
	case ActionUpdateStatus, ActionUpdatePriority, ActionUpdateAssignee, ActionUpdateDescription:
		task := findTask(tasks, action.TaskID)
		if task == nil {
			return Action{}, false
		}
		inverse := Action{Type: action.Type, TaskID: action.TaskID}
		switch action.Type {
		case ActionUpdateStatus:
			inverse.Status = task.Status
		case ActionUpdatePriority:
			inverse.Priority = task.Priority
		case ActionUpdateAssignee:
			inverse.AssigneeID = task.AssigneeID
			inverse.Assignee = task.Assignee
		case ActionUpdateDescription:
			inverse.Description = task.Description
		}
		return inverse, true

	case ActionDelete:
		for i := range tasks {
			if tasks[i].ID == action.TaskID {
				return Action{Type: ActionRestore, Placeholder: tasks[i], Index: i}, true
			}
			for j := range tasks[i].Subtasks {
				if tasks[i].Subtasks[j].ID == action.TaskID {
					return Action{Type: ActionRestore, Placeholder: tasks[i].Subtasks[j], Index: j}, true
				}
			}
		}
		return Action{}, false

	case ActionReorder:
		order := make([]uuid.UUID, len(tasks))
		for i, task := range tasks {
			order[i] = task.ID
		}
		return Action{Type: ActionReorder, Order: order}, true

	case ActionAddTask, ActionAddSubtask:
		return Action{Type: ActionDelete, TaskID: action.Placeholder.ID}, true
	}

	return Action{}, false
}
