package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
	// Guest is a token-only role for public quick tests; no user row exists.
	Guest UserRole = "guest"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;default:'student'" json:"role"`
	Language  string    `gorm:"size:10;default:'en'" json:"language"`
	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `json:"lastLogin"`
	LastSeen  time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate fills the activity timestamps in Go rather than with a column
// default, which keeps the schema portable across mysql and sqlite.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.LastLogin.IsZero() {
		u.LastLogin = now
	}
	if u.LastSeen.IsZero() {
		u.LastSeen = now
	}
	return nil
}
