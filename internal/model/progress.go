package model

import "time"

// UserProgress holds the per-user running totals. Mutated only by the stage
// quiz submission transaction; read by dashboard, leaderboard and certificate
// eligibility. Totals always reflect the latest attempt per stage.
//
// swagger:model UserProgress
type UserProgress struct {
	BaseModel
	UserID       uint `gorm:"uniqueIndex;type:bigint unsigned" json:"userId"`
	TotalCorrect int  `gorm:"default:0" json:"totalCorrect"`
	TotalWrong   int  `gorm:"default:0" json:"totalWrong"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// ScorePercent is the aggregate score across all attempted stages.
func (p *UserProgress) ScorePercent() float64 {
	total := p.TotalCorrect + p.TotalWrong
	if total == 0 {
		return 0
	}
	return float64(p.TotalCorrect) / float64(total) * 100
}

// StageProgress is the per-(user, stage) outcome record. A stage is part of
// the user's completed set iff Completed is true; completion is sticky across
// re-attempts.
//
// swagger:model StageProgress
type StageProgress struct {
	BaseModel
	UserID         uint      `gorm:"index:idx_user_stage,unique;type:bigint unsigned" json:"userId"`
	StageID        uint      `gorm:"index:idx_user_stage,unique;type:bigint unsigned" json:"stageId"`
	Completed      bool      `gorm:"default:false" json:"completed"`
	CorrectCount   int       `gorm:"default:0" json:"correctCount"`
	WrongCount     int       `gorm:"default:0" json:"wrongCount"`
	VideoCompleted bool      `gorm:"default:false" json:"videoCompleted"`
	LastAttempt    time.Time `json:"lastAttempt"`
}

func (StageProgress) TableName() string {
	return "stage_progress"
}
