package model

import "time"

// Certificate is the issued completion record. The unique index on UserID is
// what makes issuance at-most-once; both the auto and the admin path insert
// through the same transaction.
//
// swagger:model Certificate
type Certificate struct {
	BaseModel
	UserID            uint      `gorm:"uniqueIndex;type:bigint unsigned" json:"userId"`
	CertificateNumber string    `gorm:"size:36;uniqueIndex" json:"certificateNumber"`
	IssuedBy          string    `gorm:"size:100" json:"issuedBy"`
	TotalStages       int       `json:"totalStages"`
	TotalScore        float64   `json:"totalScore"` // percent at issue time
	CompletionDate    time.Time `json:"completionDate"`
}

func (Certificate) TableName() string {
	return "certificates"
}
