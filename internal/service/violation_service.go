package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"time"
)

// ViolationService records client-reported screenshot attempts. Reports are
// accepted as-is; the client is untrusted so the log is advisory.
type ViolationService struct {
	Repo *repository.ViolationRepository
}

func NewViolationService(repo *repository.ViolationRepository) *ViolationService {
	return &ViolationService{Repo: repo}
}

type ViolationInput struct {
	Kind   string `json:"kind" binding:"required"`
	Page   string `json:"page"`
	Detail string `json:"detail"`
}

func (s *ViolationService) Record(userID uint, guestName string, input *ViolationInput) error {
	return s.Repo.Create(&model.ScreenshotAttempt{
		UserID:     userID,
		GuestName:  guestName,
		Kind:       input.Kind,
		Page:       input.Page,
		Detail:     input.Detail,
		DetectedAt: time.Now(),
	})
}

func (s *ViolationService) List(userID uint, page, limit int) ([]model.ScreenshotAttempt, int64, error) {
	return s.Repo.List(userID, page, limit)
}
