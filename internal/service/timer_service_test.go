package service

import (
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"errors"
	"testing"
)

func newTimerService(t *testing.T) *TimerService {
	t.Helper()
	db := newTestDB(t)
	return NewTimerService(repository.NewTimerRepository(db), newTestConfig())
}

func TestTimerGetCreatesWithDefault(t *testing.T) {
	svc := newTimerService(t)

	state, err := svc.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.RemainingSeconds != 3600 {
		t.Errorf("RemainingSeconds = %d, want 3600", state.RemainingSeconds)
	}
	if state.Expired {
		t.Error("fresh timer must not be expired")
	}
}

func TestTimerCheckpointOnlyDecreases(t *testing.T) {
	svc := newTimerService(t)

	state, err := svc.Checkpoint(42, 3000)
	if err != nil {
		t.Fatalf("Checkpoint(3000): %v", err)
	}
	if state.RemainingSeconds != 3000 {
		t.Errorf("RemainingSeconds = %d, want 3000", state.RemainingSeconds)
	}

	// A replayed or stale higher value is rejected and the stored state wins.
	state, err = svc.Checkpoint(42, 3500)
	if !errors.Is(err, util.ErrTimerCheckpointOld) {
		t.Fatalf("Checkpoint(3500) err = %v, want ErrTimerCheckpointOld", err)
	}
	if state.RemainingSeconds != 3000 {
		t.Errorf("stored state = %d, want 3000", state.RemainingSeconds)
	}

	// Equal value is an idempotent no-op, not an error.
	if _, err := svc.Checkpoint(42, 3000); err != nil {
		t.Errorf("Checkpoint(3000) again: %v", err)
	}

	state, err = svc.Checkpoint(42, 0)
	if err != nil {
		t.Fatalf("Checkpoint(0): %v", err)
	}
	if !state.Expired {
		t.Error("zero remaining must report expired")
	}
}

func TestTimerCheckpointClampsNegative(t *testing.T) {
	svc := newTimerService(t)

	state, err := svc.Checkpoint(7, -50)
	if err != nil {
		t.Fatalf("Checkpoint(-50): %v", err)
	}
	if state.RemainingSeconds != 0 || !state.Expired {
		t.Errorf("state = %+v, want 0 remaining and expired", state)
	}
}
