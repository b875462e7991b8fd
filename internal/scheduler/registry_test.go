package scheduler

import (
	"context"
	"errors"
	"testing"

	"hydromate/internal/model"
)

type mockStateRepository struct {
	states map[int64]*model.SchedulerState

	saveCalls int
}

func newMockStateRepository() *mockStateRepository {
	return &mockStateRepository{states: make(map[int64]*model.SchedulerState)}
}

func (m *mockStateRepository) Save(ctx context.Context, st *model.SchedulerState) error {
	m.saveCalls++
	cp := *st
	m.states[st.UserID] = &cp
	return nil
}

func (m *mockStateRepository) GetByUserID(ctx context.Context, userID int64) (*model.SchedulerState, error) {
	st, ok := m.states[userID]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *mockStateRepository) ListActive(ctx context.Context) ([]model.SchedulerState, error) {
	var active []model.SchedulerState
	for _, st := range m.states {
		if st.Active {
			active = append(active, *st)
		}
	}
	return active, nil
}

func TestRegistry_StartFor_PersistsAndArms(t *testing.T) {
	states := newMockStateRepository()
	r := NewRegistry(newMockDispatcher(), &mockServingProvider{servingML: 250}, states)
	defer r.StopAll()
	ctx := context.Background()

	if err := r.StartFor(ctx, 1, 30, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st, err := states.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if !st.Active {
		t.Error("expected persisted state active")
	}
	if st.IntervalMinutes != 30 {
		t.Errorf("expected interval 30, got %d", st.IntervalMinutes)
	}
	if !r.schedulers[1].Running() {
		t.Error("expected timer armed")
	}
}

func TestRegistry_StartFor_RejectsBadInterval(t *testing.T) {
	r := NewRegistry(newMockDispatcher(), &mockServingProvider{servingML: 250}, newMockStateRepository())

	for _, interval := range []int{0, -5} {
		if err := r.StartFor(context.Background(), 1, interval, nil); !errors.Is(err, model.ErrInvalidInterval) {
			t.Errorf("interval %d: expected ErrInvalidInterval, got %v", interval, err)
		}
	}
}

func TestRegistry_StopFor_PersistsAndDisarms(t *testing.T) {
	states := newMockStateRepository()
	r := NewRegistry(newMockDispatcher(), &mockServingProvider{servingML: 250}, states)
	defer r.StopAll()
	ctx := context.Background()

	if err := r.StartFor(ctx, 1, 30, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.StopFor(ctx, 1); err != nil {
		t.Fatalf("stop: %v", err)
	}

	st, err := states.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if st.Active {
		t.Error("expected persisted state inactive")
	}
	if st.IntervalMinutes != 30 {
		t.Errorf("expected interval preserved at 30, got %d", st.IntervalMinutes)
	}
	if r.schedulers[1].Running() {
		t.Error("expected timer disarmed")
	}
}

func TestRegistry_StopFor_UnknownUserIsFine(t *testing.T) {
	states := newMockStateRepository()
	r := NewRegistry(newMockDispatcher(), &mockServingProvider{servingML: 250}, states)

	if err := r.StopFor(context.Background(), 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st, err := states.GetByUserID(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected a default inactive row persisted: %v", err)
	}
	if st.Active {
		t.Error("expected inactive state")
	}
}

func TestRegistry_StateFor_DefaultsWhenNeverStarted(t *testing.T) {
	r := NewRegistry(newMockDispatcher(), &mockServingProvider{servingML: 250}, newMockStateRepository())

	st, err := r.StateFor(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Active {
		t.Error("expected inactive default state")
	}
	if st.IntervalMinutes != model.DefaultIntervalMinutes {
		t.Errorf("expected default interval %d, got %d", model.DefaultIntervalMinutes, st.IntervalMinutes)
	}
}

func TestRegistry_ResumeAll_ReArmsWithoutRewriting(t *testing.T) {
	states := newMockStateRepository()
	states.states[1] = &model.SchedulerState{UserID: 1, Active: true, IntervalMinutes: 45}
	states.states[2] = &model.SchedulerState{UserID: 2, Active: false, IntervalMinutes: 60}

	r := NewRegistry(newMockDispatcher(), &mockServingProvider{servingML: 250}, states)
	defer r.StopAll()

	if err := r.ResumeAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.schedulers[1].Running() {
		t.Error("expected active schedule re-armed")
	}
	if s, ok := r.schedulers[2]; ok && s.Running() {
		t.Error("expected inactive schedule left alone")
	}
	if states.saveCalls != 0 {
		t.Errorf("resume must not rewrite state rows, got %d saves", states.saveCalls)
	}
}

func TestRegistry_StopAll_KeepsPersistedState(t *testing.T) {
	states := newMockStateRepository()
	r := NewRegistry(newMockDispatcher(), &mockServingProvider{servingML: 250}, states)
	ctx := context.Background()

	if err := r.StartFor(ctx, 1, 30, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	r.StopAll()

	if r.schedulers[1].Running() {
		t.Error("expected timer disarmed after StopAll")
	}
	st, err := states.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !st.Active {
		t.Error("expected persisted state still active for resume on next boot")
	}
}
