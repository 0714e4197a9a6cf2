package model

// QuickTest is a standalone multi-level timed quiz reachable through a public
// share link, independent of the staged course.
//
// swagger:model QuickTest
type QuickTest struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	ShareCode   string `gorm:"size:36;uniqueIndex" json:"shareCode"`
	IsPublished bool   `gorm:"default:false" json:"isPublished"`
	// Aggregate percent across all levels required for the downloadable
	// certificate artifact; nil disables it.
	CertificateThreshold *int `json:"certificateThreshold,omitempty"`
	TimeLimitSeconds     int  `gorm:"default:0" json:"timeLimitSeconds"`

	Levels []QuickTestLevel `gorm:"foreignKey:QuickTestID" json:"levels,omitempty"`
}

func (QuickTest) TableName() string {
	return "quick_tests"
}

// QuickTestLevel holds its questions as one denormalized JSON array so a level
// is a single read.
//
// swagger:model QuickTestLevel
type QuickTestLevel struct {
	BaseModel
	QuickTestID uint                `gorm:"index;type:bigint unsigned" json:"quickTestId"`
	LevelNumber int                 `gorm:"not null" json:"levelNumber"`
	Title       string              `gorm:"size:255" json:"title"`
	Questions   []QuickTestQuestion `gorm:"type:json;serializer:json" json:"questions"`
}

func (QuickTestLevel) TableName() string {
	return "quick_test_levels"
}

// QuickTestQuestion is embedded in a level's JSON column, not a table.
type QuickTestQuestion struct {
	ID      string            `json:"id"`
	Text    string            `json:"text"`
	Options []QuickTestOption `json:"options"`
}

type QuickTestOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// CorrectOptionID returns the id of the option flagged correct, or "".
func (q *QuickTestQuestion) CorrectOptionID() string {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	return ""
}
