package model

type NotificationType string

const (
	NotificationStagePassed       NotificationType = "stage_passed"
	NotificationCertificateIssued NotificationType = "certificate_issued"
	NotificationSystem            NotificationType = "system"
)

// swagger:model Notification
type Notification struct {
	BaseModel
	UserID uint             `gorm:"index;type:bigint unsigned" json:"userId"`
	Type   NotificationType `gorm:"size:40;default:'system'" json:"type"`
	Title  string           `gorm:"size:255" json:"title"`
	Body   string           `gorm:"type:text" json:"body"`
	Read   bool             `gorm:"default:false" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}
