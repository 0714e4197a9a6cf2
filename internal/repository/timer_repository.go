package repository

import (
	"accounting_academy_backend/internal/model"

	"gorm.io/gorm"
)

type TimerRepository struct {
	DB *gorm.DB
}

func NewTimerRepository(db *gorm.DB) *TimerRepository {
	return &TimerRepository{DB: db}
}

func (r *TimerRepository) Get(userID uint) (*model.UserTimer, error) {
	var timer model.UserTimer
	err := r.DB.Where("user_id = ?", userID).First(&timer).Error
	return &timer, err
}

func (r *TimerRepository) Create(timer *model.UserTimer) error {
	return r.DB.Create(timer).Error
}

// DecreaseTo lowers the stored remaining seconds, never raises them. Returns
// the number of rows changed so the caller can tell a rejected checkpoint.
func (r *TimerRepository) DecreaseTo(userID uint, remaining int) (int64, error) {
	res := r.DB.Model(&model.UserTimer{}).
		Where("user_id = ? AND remaining_seconds > ?", userID, remaining).
		Update("remaining_seconds", remaining)
	return res.RowsAffected, res.Error
}
