package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"testing"
)

func TestRegisterFillsActivityTimestamps(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db), newTestConfig())

	user := &model.User{
		Name:     "Iryna",
		Email:    "iryna@example.com",
		Password: "secret123",
		Role:     model.Student,
	}
	if err := svc.Register(user); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// The timestamps come from a BeforeCreate hook, not a column default, so
	// they must survive a round trip through any dialect.
	var stored model.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.LastLogin.IsZero() || stored.LastSeen.IsZero() {
		t.Errorf("activity timestamps not set: lastLogin=%v lastSeen=%v",
			stored.LastLogin, stored.LastSeen)
	}
	if stored.Password == "secret123" {
		t.Error("password stored in plain text")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db), newTestConfig())

	user := &model.User{Name: "Iryna", Email: "iryna@example.com", Password: "secret123"}
	if err := svc.Register(user); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login("iryna@example.com", "wrong"); err == nil {
		t.Error("wrong password must be rejected")
	}
	token, err := svc.Login("iryna@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("login must return a token")
	}
}
