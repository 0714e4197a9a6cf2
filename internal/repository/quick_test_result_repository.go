package repository

import (
	"accounting_academy_backend/internal/model"

	"gorm.io/gorm"
)

type QuickTestResultRepository struct {
	DB *gorm.DB
}

func NewQuickTestResultRepository(db *gorm.DB) *QuickTestResultRepository {
	return &QuickTestResultRepository{DB: db}
}

func (r *QuickTestResultRepository) Create(result *model.QuickTestResult) error {
	return r.DB.Create(result).Error
}

func (r *QuickTestResultRepository) ListByAttempt(attemptID string) ([]model.QuickTestResult, error) {
	var results []model.QuickTestResult
	err := r.DB.Where("attempt_id = ?", attemptID).
		Order("level_id ASC").
		Find(&results).Error
	return results, err
}

func (r *QuickTestResultRepository) ListByUserAndTest(userID, testID uint) ([]model.QuickTestResult, error) {
	var results []model.QuickTestResult
	err := r.DB.Where("user_id = ? AND quick_test_id = ?", userID, testID).
		Order("created_at ASC").
		Find(&results).Error
	return results, err
}

// BestPerLevel scans a user's results for a test and keeps the max score per
// level.
func (r *QuickTestResultRepository) BestPerLevel(userID, testID uint) (map[uint]model.QuickTestResult, error) {
	results, err := r.ListByUserAndTest(userID, testID)
	if err != nil {
		return nil, err
	}
	best := make(map[uint]model.QuickTestResult)
	for _, res := range results {
		if cur, ok := best[res.LevelID]; !ok || res.Score > cur.Score {
			best[res.LevelID] = res
		}
	}
	return best, nil
}

func (r *QuickTestResultRepository) ListByTest(testID uint, page, limit int) ([]model.QuickTestResult, int64, error) {
	var results []model.QuickTestResult
	var total int64

	query := r.DB.Model(&model.QuickTestResult{}).Where("quick_test_id = ?", testID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&results).Error
	return results, total, err
}
