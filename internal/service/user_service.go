package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	UserRepo        *repository.UserRepository
	AdminActionRepo *repository.AdminActionRepository
}

func NewUserService(userRepo *repository.UserRepository, adminActionRepo *repository.AdminActionRepository) *UserService {
	return &UserService{
		UserRepo:        userRepo,
		AdminActionRepo: adminActionRepo,
	}
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	return s.UserRepo.FindByID(userID)
}

func (s *UserService) UpdateProfile(userID uint, name, language string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	if language != "" {
		user.Language = language
	}
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(search string, page, limit int) ([]model.User, int64, error) {
	return s.UserRepo.List(search, page, limit)
}

// ResetPassword force-sets a user's credential. Admin only; every call is
// written to the audit log.
func (s *UserService) ResetPassword(adminID, userID uint, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.UserRepo.UpdatePassword(userID, string(hashed)); err != nil {
		return err
	}

	return s.AdminActionRepo.Create(&model.AdminAction{
		AdminID:      adminID,
		Action:       "reset_password",
		TargetUserID: userID,
	})
}

func (s *UserService) SetDisabled(adminID, userID uint, disabled bool) error {
	if err := s.UserRepo.SetDisabled(userID, disabled); err != nil {
		return err
	}

	return s.AdminActionRepo.Create(&model.AdminAction{
		AdminID:      adminID,
		Action:       "set_disabled",
		TargetUserID: userID,
		Details:      fmt.Sprintf("disabled=%t", disabled),
	})
}

func (s *UserService) RecordAdminAction(adminID uint, action string, targetUserID uint, details string) error {
	return s.AdminActionRepo.Create(&model.AdminAction{
		AdminID:      adminID,
		Action:       action,
		TargetUserID: targetUserID,
		Details:      details,
	})
}

func (s *UserService) ListAdminActions(page, limit int) ([]model.AdminAction, int64, error) {
	return s.AdminActionRepo.List(page, limit)
}
