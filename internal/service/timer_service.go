package service

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// TimerService owns the per-user course countdown. The client ticks locally
// and checkpoints periodically; the stored value only ever decreases, so a
// stale or replayed checkpoint can never give time back.
type TimerService struct {
	Repo *repository.TimerRepository
	Cfg  *config.Config
}

func NewTimerService(repo *repository.TimerRepository, cfg *config.Config) *TimerService {
	return &TimerService{Repo: repo, Cfg: cfg}
}

type TimerState struct {
	RemainingSeconds  int  `json:"remainingSeconds"`
	CheckpointSeconds int  `json:"checkpointSeconds"`
	Expired           bool `json:"expired"`
}

// Get returns the user's timer, creating it with the configured default on
// first access.
func (s *TimerService) Get(userID uint) (*TimerState, error) {
	timer, err := s.Repo.Get(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		timer = &model.UserTimer{
			UserID:           userID,
			RemainingSeconds: s.Cfg.Timer.DefaultSeconds,
		}
		if err := s.Repo.Create(timer); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return &TimerState{
		RemainingSeconds:  timer.RemainingSeconds,
		CheckpointSeconds: s.Cfg.Timer.CheckpointSeconds,
		Expired:           timer.RemainingSeconds <= 0,
	}, nil
}

// Checkpoint persists a client-reported remaining value. Values above the
// stored one are rejected with ErrTimerCheckpointOld and the stored state is
// returned so the client can resync.
func (s *TimerService) Checkpoint(userID uint, remaining int) (*TimerState, error) {
	if remaining < 0 {
		remaining = 0
	}

	// Make sure the row exists before the conditional update.
	state, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.Repo.DecreaseTo(userID, remaining)
	if err != nil {
		return nil, err
	}
	if rows == 0 && remaining > state.RemainingSeconds {
		return state, util.ErrTimerCheckpointOld
	}

	return &TimerState{
		RemainingSeconds:  min(remaining, state.RemainingSeconds),
		CheckpointSeconds: s.Cfg.Timer.CheckpointSeconds,
		Expired:           min(remaining, state.RemainingSeconds) <= 0,
	}, nil
}
