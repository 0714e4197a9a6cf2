package repository

import (
	"accounting_academy_backend/internal/model"

	"gorm.io/gorm"
)

type QuickTestRepository struct {
	DB *gorm.DB
}

func NewQuickTestRepository(db *gorm.DB) *QuickTestRepository {
	return &QuickTestRepository{DB: db}
}

func (r *QuickTestRepository) Create(test *model.QuickTest) error {
	return r.DB.Create(test).Error
}

func (r *QuickTestRepository) FindByID(id uint) (*model.QuickTest, error) {
	var test model.QuickTest
	err := r.DB.First(&test, id).Error
	return &test, err
}

func (r *QuickTestRepository) FindByIDWithLevels(id uint) (*model.QuickTest, error) {
	var test model.QuickTest
	err := r.DB.
		Preload("Levels", func(db *gorm.DB) *gorm.DB {
			return db.Order("quick_test_levels.level_number ASC")
		}).
		First(&test, id).Error
	return &test, err
}

func (r *QuickTestRepository) FindByShareCode(code string) (*model.QuickTest, error) {
	var test model.QuickTest
	err := r.DB.
		Preload("Levels", func(db *gorm.DB) *gorm.DB {
			return db.Order("quick_test_levels.level_number ASC")
		}).
		Where("share_code = ?", code).
		First(&test).Error
	return &test, err
}

func (r *QuickTestRepository) List() ([]model.QuickTest, error) {
	var tests []model.QuickTest
	err := r.DB.Order("created_at DESC").Find(&tests).Error
	return tests, err
}

func (r *QuickTestRepository) Update(test *model.QuickTest) error {
	return r.DB.Save(test).Error
}

func (r *QuickTestRepository) FindLevel(id uint) (*model.QuickTestLevel, error) {
	var level model.QuickTestLevel
	err := r.DB.First(&level, id).Error
	return &level, err
}
