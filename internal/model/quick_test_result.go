package model

import "time"

// AnswerRecord is one committed answer inside a result document.
type AnswerRecord struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
	IsCorrect        bool   `json:"isCorrect"`
}

// QuickTestResult is one document per (identity, level) per sitting.
// Append-only; "best attempt per level" is a derived view. AttemptID ties the
// per-level rows of one sitting together.
//
// swagger:model QuickTestResult
type QuickTestResult struct {
	BaseModel
	AttemptID        string         `gorm:"size:36;index" json:"attemptId"`
	QuickTestID      uint           `gorm:"index;type:bigint unsigned" json:"quickTestId"`
	LevelID          uint           `gorm:"index;type:bigint unsigned" json:"levelId"`
	UserID           uint           `gorm:"index;type:bigint unsigned" json:"userId"` // 0 for guests
	GuestName        string         `gorm:"size:100" json:"guestName,omitempty"`
	Score            int            `gorm:"not null" json:"score"`
	TotalQuestions   int            `gorm:"not null" json:"totalQuestions"`
	TimeSpentSeconds int            `gorm:"default:0" json:"timeSpentSeconds"`
	Answers          []AnswerRecord `gorm:"type:json;serializer:json" json:"answers"`
	StartedAt        time.Time      `json:"startedAt"`
	CompletedAt      time.Time      `json:"completedAt"`
}

func (QuickTestResult) TableName() string {
	return "quick_test_results"
}
