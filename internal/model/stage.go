package model

// TestStage is one ordered unit of the main course: an optional video plus a
// quiz. Stages unlock sequentially by StageNumber; unlock state is computed on
// read, never stored.
//
// swagger:model TestStage
type TestStage struct {
	BaseModel
	StageNumber          int     `gorm:"uniqueIndex;not null" json:"stageNumber"`
	Title                string  `gorm:"size:255;not null" json:"title"`
	Description          string  `gorm:"type:text" json:"description"`
	IsLocked             bool    `gorm:"default:false" json:"isLocked"` // admin override
	VideoURL             string  `gorm:"size:512" json:"videoUrl,omitempty"`
	VideoDurationSeconds int     `gorm:"default:0" json:"videoDurationSeconds"`
	VideoRequiredPercent int     `gorm:"default:0" json:"videoRequiredPercent"`
	PassThresholdPercent float64 `gorm:"default:0" json:"passThresholdPercent"` // 0 means use the configured default

	Questions []StageQuestion `gorm:"foreignKey:StageID" json:"questions,omitempty"`
}

func (TestStage) TableName() string {
	return "test_stages"
}

// swagger:model StageQuestion
type StageQuestion struct {
	BaseModel
	StageID uint   `gorm:"index;type:bigint unsigned" json:"stageId"`
	Text    string `gorm:"type:text;not null" json:"text"`
	Order   int    `gorm:"default:0" json:"order"`

	Options []StageOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (StageQuestion) TableName() string {
	return "stage_questions"
}

// swagger:model StageOption
type StageOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (StageOption) TableName() string {
	return "stage_options"
}
