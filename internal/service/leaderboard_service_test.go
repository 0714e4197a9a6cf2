package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

func newLeaderboardService(t *testing.T, rdb *redis.Client) (*LeaderboardService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewLeaderboardService(repository.NewProgressRepository(db), repository.NewUserRepository(db), rdb)
	return svc, db
}

func seedRankedUser(t *testing.T, db *gorm.DB, name string, correct, wrong int) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "x",
		Role:     model.Student,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	progress := &model.UserProgress{UserID: user.ID, TotalCorrect: correct, TotalWrong: wrong}
	if err := db.Create(progress).Error; err != nil {
		t.Fatalf("create progress: %v", err)
	}
	return user
}

func TestLeaderboardOrdering(t *testing.T) {
	svc, db := newLeaderboardService(t, nil)
	seedRankedUser(t, db, "bronze", 3, 7)
	gold := seedRankedUser(t, db, "gold", 9, 1)
	// Equal correct counts break ties on fewer wrong answers.
	silver := seedRankedUser(t, db, "silver", 3, 2)

	entries, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].UserID != gold.ID || entries[1].UserID != silver.ID {
		t.Errorf("order = %v, %v; want gold then silver",
			entries[0].Name, entries[1].Name)
	}
	if entries[0].Rank != 1 || entries[2].Rank != 3 {
		t.Errorf("ranks = %d..%d, want 1..3", entries[0].Rank, entries[2].Rank)
	}
	if entries[0].Name != "gold" {
		t.Errorf("name not resolved: %q", entries[0].Name)
	}
	if entries[0].ScorePercent != 90 {
		t.Errorf("score percent = %v, want 90", entries[0].ScorePercent)
	}
}

func TestLeaderboardCacheServesStaleUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	svc, db := newLeaderboardService(t, rdb)
	user := seedRankedUser(t, db, "ann", 5, 0)
	ctx := context.Background()

	if _, err := svc.Top(ctx, 1); err != nil {
		t.Fatalf("first Top: %v", err)
	}
	if !mr.Exists(leaderboardCacheKey) {
		t.Fatal("Top must populate the rendered cache")
	}

	// A database change alone is not visible while the cache is warm.
	if err := db.Model(&model.UserProgress{}).
		Where("user_id = ?", user.ID).
		Update("total_correct", 20).Error; err != nil {
		t.Fatalf("update progress: %v", err)
	}
	entries, err := svc.Top(ctx, 1)
	if err != nil {
		t.Fatalf("cached Top: %v", err)
	}
	if entries[0].TotalCorrect != 5 {
		t.Errorf("cached total = %d, want stale 5", entries[0].TotalCorrect)
	}

	// RecordScore drops the cache, so the next read re-ranks from MySQL.
	svc.RecordScore(ctx, user.ID, 20)
	if mr.Exists(leaderboardCacheKey) {
		t.Error("RecordScore must invalidate the cache")
	}
	entries, err = svc.Top(ctx, 1)
	if err != nil {
		t.Fatalf("rebuilt Top: %v", err)
	}
	if entries[0].TotalCorrect != 20 {
		t.Errorf("rebuilt total = %d, want 20", entries[0].TotalCorrect)
	}
}

func TestLeaderboardRankOf(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	svc, db := newLeaderboardService(t, rdb)
	first := seedRankedUser(t, db, "first", 10, 0)
	second := seedRankedUser(t, db, "second", 4, 0)
	ctx := context.Background()

	svc.RecordScore(ctx, first.ID, 10)
	svc.RecordScore(ctx, second.ID, 4)

	rank, err := svc.RankOf(ctx, second.ID)
	if err != nil {
		t.Fatalf("RankOf: %v", err)
	}
	if rank != 2 {
		t.Errorf("rank = %d, want 2", rank)
	}

	// Users missing from the ZSET fall back to the database ranking.
	third := seedRankedUser(t, db, "third", 1, 0)
	rank, err = svc.RankOf(ctx, third.ID)
	if err != nil {
		t.Fatalf("RankOf fallback: %v", err)
	}
	if rank != 3 {
		t.Errorf("fallback rank = %d, want 3", rank)
	}
}

func TestLeaderboardRankOfWithoutRedis(t *testing.T) {
	svc, db := newLeaderboardService(t, nil)
	seedRankedUser(t, db, "top", 8, 0)
	low := seedRankedUser(t, db, "low", 2, 0)

	rank, err := svc.RankOf(context.Background(), low.ID)
	if err != nil {
		t.Fatalf("RankOf: %v", err)
	}
	if rank != 2 {
		t.Errorf("rank = %d, want 2", rank)
	}

	rank, err = svc.RankOf(context.Background(), 999)
	if err != nil {
		t.Fatalf("RankOf unknown: %v", err)
	}
	if rank != 0 {
		t.Errorf("unknown user rank = %d, want 0", rank)
	}
}
