package repository

import (
	"accounting_academy_backend/internal/model"

	"gorm.io/gorm"
)

type AdminActionRepository struct {
	DB *gorm.DB
}

func NewAdminActionRepository(db *gorm.DB) *AdminActionRepository {
	return &AdminActionRepository{DB: db}
}

func (r *AdminActionRepository) Create(a *model.AdminAction) error {
	return r.DB.Create(a).Error
}

func (r *AdminActionRepository) List(page, limit int) ([]model.AdminAction, int64, error) {
	var list []model.AdminAction
	var total int64

	if err := r.DB.Model(&model.AdminAction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}
