package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/util"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func sampleSession(attemptID string) *RunnerSession {
	return &RunnerSession{
		AttemptID:   attemptID,
		QuickTestID: 7,
		UserID:      3,
		Levels: []RunnerLevel{
			{LevelID: 1, Title: "Level 1", Questions: makeQuestions("q1", "q2")},
		},
		Answers:        map[string]model.AnswerRecord{},
		LevelDurations: map[uint]int{},
		StartedAt:      time.Now(),
		ReadyAt:        time.Now(),
		LevelStartedAt: time.Now(),
	}
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Hour)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrSessionNotFound", err)
	}

	session := sampleSession("a1")
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.QuickTestID != 7 || len(got.Levels) != 1 {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := store.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "a1"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("Get after delete = %v, want ErrSessionNotFound", err)
	}
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(-time.Second)

	if err := store.Save(ctx, sampleSession("a1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Get(ctx, "a1"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("expired session returned: %v", err)
	}
}

func TestRedisSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisSessionStore(client, time.Hour)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrSessionNotFound", err)
	}

	session := sampleSession("a2")
	session.Answers["q1"] = model.AnswerRecord{QuestionID: "q1", SelectedOptionID: "q1-a", IsCorrect: true}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "a2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != 3 {
		t.Errorf("UserID = %d, want 3", got.UserID)
	}
	if rec, ok := got.Answers["q1"]; !ok || !rec.IsCorrect {
		t.Errorf("answer map lost in round trip: %+v", got.Answers)
	}

	// Sessions expire with the store TTL.
	mr.FastForward(2 * time.Hour)
	if _, err := store.Get(ctx, "a2"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("Get after TTL = %v, want ErrSessionNotFound", err)
	}

	if err := store.Delete(ctx, "a2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
