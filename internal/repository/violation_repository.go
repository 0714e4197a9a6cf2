package repository

import (
	"accounting_academy_backend/internal/model"

	"gorm.io/gorm"
)

type ViolationRepository struct {
	DB *gorm.DB
}

func NewViolationRepository(db *gorm.DB) *ViolationRepository {
	return &ViolationRepository{DB: db}
}

func (r *ViolationRepository) Create(v *model.ScreenshotAttempt) error {
	return r.DB.Create(v).Error
}

func (r *ViolationRepository) List(userID uint, page, limit int) ([]model.ScreenshotAttempt, int64, error) {
	var list []model.ScreenshotAttempt
	var total int64

	query := r.DB.Model(&model.ScreenshotAttempt{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("detected_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}
