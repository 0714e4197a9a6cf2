package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RunnerLevel is the per-session snapshot of one level after shuffling.
type RunnerLevel struct {
	LevelID   uint                      `json:"levelId"`
	Title     string                    `json:"title"`
	Questions []model.QuickTestQuestion `json:"questions"`
}

// RunnerSession is the server-side state of one quick-test sitting. The
// shuffled order is fixed when the session starts and lives here, not in the
// client.
type RunnerSession struct {
	AttemptID       string                        `json:"attemptId"`
	QuickTestID     uint                          `json:"quickTestId"`
	UserID          uint                          `json:"userId"`
	GuestName       string                        `json:"guestName,omitempty"`
	LevelIndex      int                           `json:"levelIndex"`
	QuestionIndex   int                           `json:"questionIndex"`
	Levels          []RunnerLevel                 `json:"levels"`
	Answers         map[string]model.AnswerRecord `json:"answers"`
	LevelDurations  map[uint]int                  `json:"levelDurations"`
	StartedAt       time.Time                     `json:"startedAt"`
	ReadyAt         time.Time                     `json:"readyAt"`
	LevelStartedAt  time.Time                     `json:"levelStartedAt"`
	Completed       bool                          `json:"completed"`
}

// CurrentLevel returns the level the runner is on, or nil once past the end.
func (s *RunnerSession) CurrentLevel() *RunnerLevel {
	if s.LevelIndex < 0 || s.LevelIndex >= len(s.Levels) {
		return nil
	}
	return &s.Levels[s.LevelIndex]
}

// SessionStore persists runner sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, session *RunnerSession) error
	Get(ctx context.Context, attemptID string) (*RunnerSession, error)
	Delete(ctx context.Context, attemptID string) error
}

// MemorySessionStore keeps sessions in-process. Used in tests and single-node
// deployments.
type MemorySessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session   *RunnerSession
	expiresAt time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
	}
}

func (s *MemorySessionStore) Save(ctx context.Context, session *RunnerSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.AttemptID] = memoryEntry{
		session:   session,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, attemptID string) (*RunnerSession, error) {
	s.mu.RLock()
	entry, ok := s.sessions[attemptID]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, util.ErrSessionNotFound
	}
	return entry.session, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, attemptID)
	return nil
}

// RedisSessionStore persists sessions as JSON values with a TTL, so a sitting
// survives a server restart and multiple instances see the same state.
type RedisSessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{Client: client, TTL: ttl}
}

func sessionKey(attemptID string) string {
	return "quicktest:session:" + attemptID
}

func (s *RedisSessionStore) Save(ctx context.Context, session *RunnerSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, sessionKey(session.AttemptID), payload, s.TTL).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, attemptID string) (*RunnerSession, error) {
	payload, err := s.Client.Get(ctx, sessionKey(attemptID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}

	var session RunnerSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, attemptID string) error {
	return s.Client.Del(ctx, sessionKey(attemptID)).Err()
}
