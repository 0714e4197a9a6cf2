package repository

import (
	"accounting_academy_backend/internal/model"
	"errors"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// GetOrCreate returns the user's aggregate, creating an empty one on first use.
func (r *ProgressRepository) GetOrCreate(userID uint) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.Where("user_id = ?", userID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = model.UserProgress{UserID: userID}
		if err := r.DB.Create(&progress).Error; err != nil {
			return nil, err
		}
		return &progress, nil
	}
	return &progress, err
}

func (r *ProgressRepository) Get(userID uint) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.Where("user_id = ?", userID).First(&progress).Error
	return &progress, err
}

func (r *ProgressRepository) GetStageProgress(userID, stageID uint) (*model.StageProgress, error) {
	var sp model.StageProgress
	err := r.DB.Where("user_id = ? AND stage_id = ?", userID, stageID).First(&sp).Error
	return &sp, err
}

// ListStageProgress returns all per-stage records for a user.
func (r *ProgressRepository) ListStageProgress(userID uint) ([]model.StageProgress, error) {
	var list []model.StageProgress
	err := r.DB.Where("user_id = ?", userID).Find(&list).Error
	return list, err
}

// CompletedStageIDs returns the set of stage ids the user has completed.
func (r *ProgressRepository) CompletedStageIDs(userID uint) (map[uint]bool, error) {
	var list []model.StageProgress
	err := r.DB.Where("user_id = ? AND completed = ?", userID, true).Find(&list).Error
	if err != nil {
		return nil, err
	}
	ids := make(map[uint]bool, len(list))
	for _, sp := range list {
		ids[sp.StageID] = true
	}
	return ids, nil
}

func (r *ProgressRepository) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.StageProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) SetVideoCompleted(userID, stageID uint) error {
	sp := model.StageProgress{UserID: userID, StageID: stageID, VideoCompleted: true}
	return r.DB.Where("user_id = ? AND stage_id = ?", userID, stageID).
		Assign(map[string]interface{}{"video_completed": true}).
		FirstOrCreate(&sp).Error
}

// TopByCorrect ranks users by total correct answers, ties broken by fewest
// wrong answers.
func (r *ProgressRepository) TopByCorrect(limit int) ([]model.UserProgress, error) {
	var list []model.UserProgress
	err := r.DB.Order("total_correct DESC, total_wrong ASC").Limit(limit).Find(&list).Error
	return list, err
}
