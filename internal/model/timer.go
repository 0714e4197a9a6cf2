package model

// UserTimer is the durable backup of a client-side countdown. The client is
// authoritative during a session and checkpoints periodically; a checkpoint
// may only lower RemainingSeconds.
//
// swagger:model UserTimer
type UserTimer struct {
	BaseModel
	UserID           uint `gorm:"uniqueIndex;type:bigint unsigned" json:"userId"`
	RemainingSeconds int  `gorm:"not null" json:"remainingSeconds"`
}

func (UserTimer) TableName() string {
	return "user_timers"
}
