package notification

import (
	"context"
	"fmt"
	"time"

	notificationRepo "tradepost/database/repository/notification"
	"tradepost/models"

	"github.com/google/uuid"
)

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Repo notificationRepo.NotificationRepository
}

// ErrNotFound mirrors the repository sentinel for handler-level matching.
var ErrNotFound = notificationRepo.ErrNotFound

// Deliver inserts a notification record for the effect. Inserts are purely
// additive; existing notifications are never updated here.
func (s *DefaultNotificationService) Deliver(ctx context.Context, effect Effect) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    effect.UserID,
		Title:     effect.Title,
		Message:   effect.Message,
		Type:      effect.Type,
		Read:      false,
		ListingID: effect.ListingID,
		CreatedAt: time.Now(),
	}
	if err := s.Repo.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("deliver notification: %w", err)
	}
	return n, nil
}

// ListForUser returns a user's notifications, newest first.
func (s *DefaultNotificationService) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// ListModeratorPool returns moderator-pool notifications, newest first.
func (s *DefaultNotificationService) ListModeratorPool(ctx context.Context) ([]models.Notification, error) {
	return s.Repo.ListPool(ctx)
}

// MarkRead marks one notification read. Read only ever transitions
// false -> true.
func (s *DefaultNotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.Repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of a user's unread notifications read.
func (s *DefaultNotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.Repo.MarkAllRead(ctx, userID)
}

// Delete removes one of the caller's notifications.
func (s *DefaultNotificationService) Delete(ctx context.Context, id, userID string) error {
	return s.Repo.Delete(ctx, id, userID)
}
