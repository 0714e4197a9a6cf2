package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/pkg/logger"

	"go.uber.org/zap"
)

// NotificationService persists notifications and pushes them to the owning
// user's open sockets. Persistence is the source of truth; a failed push is
// only a missed real-time hint, the row is still there on next poll.
type NotificationService struct {
	Repo *repository.NotificationRepository
	Hub  *NotificationHub
}

func NewNotificationService(repo *repository.NotificationRepository, hub *NotificationHub) *NotificationService {
	return &NotificationService{Repo: repo, Hub: hub}
}

func (s *NotificationService) Notify(userID uint, typ model.NotificationType, title, body string) {
	if userID == 0 {
		return
	}

	n := &model.Notification{
		UserID: userID,
		Type:   typ,
		Title:  title,
		Body:   body,
	}
	if err := s.Repo.Create(n); err != nil {
		logger.Log.Error("notification write failed",
			zap.Uint("userId", userID), zap.String("type", string(typ)), zap.Error(err))
		return
	}

	if s.Hub != nil {
		s.Hub.PushToUsers([]uint{userID}, WSMessage{
			Type: "NOTIFICATION",
			Data: n,
		})
	}
}

// Broadcast stores a system notification for every given user and pushes one
// socket message covering all of them.
func (s *NotificationService) Broadcast(userIDs []uint, title, body string) {
	for _, id := range userIDs {
		n := &model.Notification{
			UserID: id,
			Type:   model.NotificationSystem,
			Title:  title,
			Body:   body,
		}
		if err := s.Repo.Create(n); err != nil {
			logger.Log.Error("notification write failed",
				zap.Uint("userId", id), zap.Error(err))
		}
	}

	if s.Hub != nil {
		s.Hub.PushToUsers(userIDs, WSMessage{
			Type: "NOTIFICATION",
			Data: map[string]interface{}{"title": title, "body": body, "type": model.NotificationSystem},
		})
	}
}

func (s *NotificationService) List(userID uint, page, limit int) ([]model.Notification, int64, error) {
	return s.Repo.ListByUser(userID, page, limit)
}

func (s *NotificationService) MarkRead(userID, id uint) error {
	return s.Repo.MarkRead(userID, id)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.Repo.UnreadCount(userID)
}
