package service

import (
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/pkg/logger"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	leaderboardCacheKey = "leaderboard:top"
	leaderboardCacheTTL = 30 * time.Second
	leaderboardZSetKey  = "leaderboard:correct"
)

// LeaderboardEntry is one ranked row. Rank is 1-based.
type LeaderboardEntry struct {
	Rank         uint    `json:"rank"`
	UserID       uint    `json:"userId"`
	Name         string  `json:"name"`
	TotalCorrect int     `json:"totalCorrect"`
	TotalWrong   int     `json:"totalWrong"`
	ScorePercent float64 `json:"scorePercent"`
}

// LeaderboardService ranks students by total correct answers. MySQL is the
// source of truth; Redis holds a short-lived rendered copy plus a ZSET mirror
// so rank lookups do not hit the database on every request. Redis being down
// degrades to direct queries.
type LeaderboardService struct {
	ProgressRepo *repository.ProgressRepository
	UserRepo     *repository.UserRepository
	Redis        *redis.Client
}

func NewLeaderboardService(progressRepo *repository.ProgressRepository, userRepo *repository.UserRepository, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{ProgressRepo: progressRepo, UserRepo: userRepo, Redis: rdb}
}

// Top returns the ranked leaderboard, serving from cache when fresh.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, leaderboardCacheKey).Bytes(); err == nil {
			var entries []LeaderboardEntry
			if json.Unmarshal(cached, &entries) == nil && len(entries) >= limit {
				return entries[:limit], nil
			}
		}
	}

	entries, err := s.build(limit)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.Redis.Set(ctx, leaderboardCacheKey, data, leaderboardCacheTTL).Err(); err != nil {
				logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}
	return entries, nil
}

func (s *LeaderboardService) build(limit int) ([]LeaderboardEntry, error) {
	rows, err := s.ProgressRepo.TopByCorrect(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entry := LeaderboardEntry{
			Rank:         uint(i + 1),
			UserID:       row.UserID,
			TotalCorrect: row.TotalCorrect,
			TotalWrong:   row.TotalWrong,
			ScorePercent: row.ScorePercent(),
		}
		if user, err := s.UserRepo.FindByID(row.UserID); err == nil {
			entry.Name = user.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RecordScore mirrors the new correct-answer total into the ZSET and drops
// the rendered cache so the next read re-ranks.
func (s *LeaderboardService) RecordScore(ctx context.Context, userID uint, totalCorrect int) {
	if s.Redis == nil {
		return
	}
	pipe := s.Redis.Pipeline()
	pipe.ZAdd(ctx, leaderboardZSetKey, &redis.Z{
		Score:  float64(totalCorrect),
		Member: userID,
	})
	pipe.Del(ctx, leaderboardCacheKey)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("leaderboard score update failed",
			zap.Uint("userId", userID), zap.Error(err))
	}
}

// RankOf answers "where am I" from the ZSET without rebuilding the board.
// Returns 0 when the user has no recorded score yet.
func (s *LeaderboardService) RankOf(ctx context.Context, userID uint) (uint, error) {
	if s.Redis == nil {
		return s.rankFromDB(userID)
	}
	rank, err := s.Redis.ZRevRank(ctx, leaderboardZSetKey, strconv.FormatUint(uint64(userID), 10)).Result()
	if err == redis.Nil {
		return s.rankFromDB(userID)
	}
	if err != nil {
		return 0, err
	}
	return uint(rank) + 1, nil
}

func (s *LeaderboardService) rankFromDB(userID uint) (uint, error) {
	rows, err := s.ProgressRepo.TopByCorrect(1000)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if row.UserID == userID {
			return uint(i + 1), nil
		}
	}
	return 0, nil
}
