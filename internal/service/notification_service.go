package service

import (
	"context"

	"eventhub/internal/model"
	"eventhub/internal/repository"
)

// NotificationService exposes a user's in-app notifications.
type NotificationService interface {
	ListForUser(ctx context.Context, userID uint) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
}

type notificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService builds a NotificationService.
func NewNotificationService(notifications repository.NotificationRepository) NotificationService {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) ListForUser(ctx context.Context, userID uint) ([]model.Notification, error) {
	return s.notifications.ListByUser(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.notifications.MarkRead(ctx, id, userID)
}
