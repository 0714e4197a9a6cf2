package model

import "time"

// ScreenshotAttempt is a best-effort client-reported violation record
// (print-screen key, window blur blackout, devtools). Not a security
// boundary; kept for admin review only.
//
// swagger:model ScreenshotAttempt
type ScreenshotAttempt struct {
	BaseModel
	UserID     uint      `gorm:"index;type:bigint unsigned" json:"userId"` // 0 for guests
	GuestName  string    `gorm:"size:100" json:"guestName,omitempty"`
	Kind       string    `gorm:"size:40;not null" json:"kind"` // keyboard, blur, devtools
	Page       string    `gorm:"size:255" json:"page"`
	Detail     string    `gorm:"type:text" json:"detail"`
	DetectedAt time.Time `json:"detectedAt"`
}

func (ScreenshotAttempt) TableName() string {
	return "screenshot_attempts"
}
