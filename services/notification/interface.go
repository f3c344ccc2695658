package notification

import (
	"context"

	"tradepost/models"
)

// Effect describes the notification a lifecycle transition wants delivered.
// A nil UserID addresses the moderator pool.
type Effect struct {
	UserID    *string
	Type      models.NotificationType
	Title     string
	Message   string
	ListingID string
}

// NotificationService persists and serves per-user notifications. Delivery is
// best-effort: a failed Deliver never rolls back the transition that
// triggered it.
type NotificationService interface {
	// Deliver inserts a notification record for the effect.
	Deliver(ctx context.Context, effect Effect) (*models.Notification, error)
	// ListForUser returns a user's notifications, newest first.
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	// ListModeratorPool returns moderator-pool notifications, newest first.
	ListModeratorPool(ctx context.Context) ([]models.Notification, error)
	// MarkRead marks one notification read. A foreign or unknown id is
	// reported as not found, never as a permission failure.
	MarkRead(ctx context.Context, id, userID string) error
	// MarkAllRead marks all of a user's unread notifications read and
	// returns the number affected.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	// Delete removes one of the caller's notifications.
	Delete(ctx context.Context, id, userID string) error
}
