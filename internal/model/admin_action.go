package model

// AdminAction is an audit row written for sensitive admin operations
// (password reset, user disable, manual certificate issue).
//
// swagger:model AdminAction
type AdminAction struct {
	BaseModel
	AdminID      uint   `gorm:"index;type:bigint unsigned" json:"adminId"`
	Action       string `gorm:"size:60;not null" json:"action"`
	TargetUserID uint   `gorm:"index;type:bigint unsigned" json:"targetUserId"`
	Details      string `gorm:"type:text" json:"details"`
}

func (AdminAction) TableName() string {
	return "admin_actions"
}
