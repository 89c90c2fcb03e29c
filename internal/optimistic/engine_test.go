package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// stubMutator answers every call with a fixed error and records creates.
type stubMutator struct {
	mu      sync.Mutex
	err     error
	created []domain.TaskCreate
}

func (s *stubMutator) CreateTask(ctx context.Context, workspaceID uuid.UUID, input domain.TaskCreate) (*domain.Task, error) {
	s.mu.Lock()
	s.created = append(s.created, input)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Task{ID: uuid.New(), WorkspaceID: workspaceID, Title: input.Title}, nil
}

func (s *stubMutator) UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) error {
	return s.err
}

func (s *stubMutator) UpdatePriority(ctx context.Context, taskID uuid.UUID, priority *domain.TaskPriority) error {
	return s.err
}

func (s *stubMutator) UpdateAssignee(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID) error {
	return s.err
}

func (s *stubMutator) UpdateDescription(ctx context.Context, taskID uuid.UUID, description string) error {
	return s.err
}

func (s *stubMutator) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return s.err
}

func (s *stubMutator) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return s.err
}

func waitForState(t *testing.T, engine *Engine, id uuid.UUID, want MutationState) {
	t.Helper()
	assert.Eventually(t, func() bool {
		state, ok := engine.State(id)
		return ok && state == want
	}, time.Second, time.Millisecond)
}

func TestEngine_PredictionIsSynchronous(t *testing.T) {
	tree := sampleTree()
	engine := NewEngine(&stubMutator{}, tree, nil)

	id := engine.Dispatch(context.Background(), UpdateStatusAction(tree[1].ID, domain.StatusDone))

	// The predicted tree is visible before the server call resolves.
	predicted := engine.Tree()
	assert.Equal(t, domain.StatusDone, predicted[1].Status)

	state, ok := engine.State(id)
	assert.True(t, ok)
	assert.Contains(t, []MutationState{StatePredicted, StateConfirmed}, state)

	waitForState(t, engine, id, StateConfirmed)
}

func TestEngine_ConfirmedPredictionSurvivesUntilRefresh(t *testing.T) {
	tree := sampleTree()
	engine := NewEngine(&stubMutator{}, tree, nil)

	id := engine.Dispatch(context.Background(), UpdateStatusAction(tree[1].ID, domain.StatusDone))
	waitForState(t, engine, id, StateConfirmed)

	assert.Equal(t, domain.StatusDone, engine.Tree()[1].Status)
	assert.Equal(t, 0, engine.PendingCount())

	// The next authoritative read carries the confirmed write.
	serverTree := Reduce(tree, UpdateStatusAction(tree[1].ID, domain.StatusDone))
	engine.Refresh(serverTree)
	assert.Equal(t, domain.StatusDone, engine.Tree()[1].Status)
}

func TestEngine_RejectedFieldUpdateRollsBack(t *testing.T) {
	tree := sampleTree()
	rejections := make(chan error, 1)
	mutator := &stubMutator{err: errors.New("boom")}
	engine := NewEngine(mutator, tree, func(action Action, err error) {
		rejections <- err
	})

	id := engine.Dispatch(context.Background(), UpdateStatusAction(tree[1].ID, domain.StatusDone))

	select {
	case err := <-rejections:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("rejection never surfaced")
	}
	waitForState(t, engine, id, StateRejected)

	// The captured inverse restored the pre-dispatch value.
	assert.Equal(t, domain.StatusNotStarted, engine.Tree()[1].Status)
	assert.Equal(t, 0, engine.PendingCount())
}

func TestEngine_RejectedDeleteRestoresAtOldPosition(t *testing.T) {
	tree := sampleTree()
	rejections := make(chan error, 1)
	mutator := &stubMutator{err: errors.New("boom")}
	engine := NewEngine(mutator, tree, func(action Action, err error) {
		rejections <- err
	})

	id := engine.Dispatch(context.Background(), DeleteAction(tree[0].ID))
	<-rejections
	waitForState(t, engine, id, StateRejected)

	restored := engine.Tree()
	assert.Len(t, restored, 3)
	assert.Equal(t, tree[0].ID, restored[0].ID)
	assert.Len(t, restored[0].Subtasks, 2)
}

func TestEngine_RejectedReorderRestoresOldOrder(t *testing.T) {
	tree := sampleTree()
	rejections := make(chan error, 1)
	mutator := &stubMutator{err: errors.New("boom")}
	engine := NewEngine(mutator, tree, func(action Action, err error) {
		rejections <- err
	})

	order := Move([]uuid.UUID{tree[0].ID, tree[1].ID, tree[2].ID}, tree[0].ID, tree[2].ID)
	id := engine.Dispatch(context.Background(), ReorderAction(order))
	<-rejections
	waitForState(t, engine, id, StateRejected)

	restored := engine.Tree()
	assert.Equal(t, tree[0].ID, restored[0].ID)
	assert.Equal(t, tree[1].ID, restored[1].ID)
	assert.Equal(t, tree[2].ID, restored[2].ID)
}

func TestEngine_RejectedAddRemovesPlaceholder(t *testing.T) {
	tree := sampleTree()
	rejections := make(chan error, 1)
	mutator := &stubMutator{err: errors.New("boom")}
	engine := NewEngine(mutator, tree, func(action Action, err error) {
		rejections <- err
	})

	id := engine.Dispatch(context.Background(), AddTaskAction(uuid.New(), domain.TaskCreate{Title: "doomed"}))

	<-rejections
	waitForState(t, engine, id, StateRejected)

	assert.Len(t, engine.Tree(), 3)
}

func TestEngine_PlaceholderBecomesRealAfterRefresh(t *testing.T) {
	tree := sampleTree()
	engine := NewEngine(&stubMutator{}, tree, nil)
	workspaceID := uuid.New()

	id := engine.Dispatch(context.Background(), AddTaskAction(workspaceID, domain.TaskCreate{Title: "New item"}))

	predicted := engine.Tree()
	assert.Len(t, predicted, 4)
	assert.Equal(t, provisionalRank, predicted[3].SortOrder)

	waitForState(t, engine, id, StateConfirmed)

	// Authoritative read: the server node with its real id and dense rank.
	real := domain.Task{ID: uuid.New(), WorkspaceID: workspaceID, Title: "New item", SortOrder: 3}
	engine.Refresh(append(cloneTree(tree), real))

	refreshed := engine.Tree()
	assert.Len(t, refreshed, 4)
	assert.Equal(t, real.ID, refreshed[3].ID)
	assert.Equal(t, 3, refreshed[3].SortOrder)
}

func TestEngine_RefreshReplaysPendingPredictions(t *testing.T) {
	tree := sampleTree()
	engine := NewEngine(&stubMutator{}, tree, nil)

	// Install a stale prediction directly against the engine's replay path:
	// a refresh that lands while a mutation is still pending must not erase
	// the prediction.
	engine.mu.Lock()
	action := UpdateStatusAction(tree[1].ID, domain.StatusDone)
	inverse, ok := inverseOf(engine.tree, action)
	engine.tree = Reduce(engine.tree, action)
	engine.pending = append(engine.pending, &pendingMutation{
		id: uuid.New(), action: action, inverse: inverse, hasInverse: ok,
	})
	engine.mu.Unlock()

	engine.Refresh(tree)

	assert.Equal(t, domain.StatusDone, engine.Tree()[1].Status)
}

// gatedMutator holds every Reorder call until released, then fails it.
type gatedMutator struct {
	stubMutator
	release chan struct{}
}

func (g *gatedMutator) Reorder(ctx context.Context, ids []uuid.UUID) error {
	<-g.release
	return errors.New("boom")
}

func TestEngine_RejectedReorderKeepsInFlightPlaceholder(t *testing.T) {
	tree := sampleTree()
	rejections := make(chan error, 1)
	mutator := &gatedMutator{release: make(chan struct{})}
	engine := NewEngine(mutator, tree, func(action Action, err error) {
		rejections <- err
	})

	order := Move([]uuid.UUID{tree[0].ID, tree[1].ID, tree[2].ID}, tree[0].ID, tree[2].ID)
	reorderID := engine.Dispatch(context.Background(), ReorderAction(order))

	// A placeholder lands while the reorder call is still in flight.
	addID := engine.Dispatch(context.Background(), AddTaskAction(uuid.New(), domain.TaskCreate{Title: "mid-flight"}))
	waitForState(t, engine, addID, StateConfirmed)
	assert.Len(t, engine.Tree(), 4)

	close(mutator.release)
	<-rejections
	waitForState(t, engine, reorderID, StateRejected)

	// Rolling back the reorder restores the old order without dropping the
	// placeholder, whose own create already succeeded.
	restored := engine.Tree()
	assert.Len(t, restored, 4)
	assert.Equal(t, tree[0].ID, restored[0].ID)
	assert.Equal(t, tree[1].ID, restored[1].ID)
	assert.Equal(t, tree[2].ID, restored[2].ID)
	assert.Equal(t, "mid-flight", restored[3].Title)
}
