package notificationRepo

import (
	"context"
	"errors"

	"tradepost/models"
)

// ErrNotFound means no notification matched both the id and the owning user.
// Ownership misses are indistinguishable from missing ids on purpose.
var ErrNotFound = errors.New("notification not found")

// NotificationRepository defines data access for the notifications collection.
type NotificationRepository interface {
	// Insert stores a new notification. Inserts are purely additive.
	Insert(ctx context.Context, n *models.Notification) error
	// ListByUser retrieves a user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	// ListPool retrieves moderator-pool notifications (nil userId), newest first.
	ListPool(ctx context.Context) ([]models.Notification, error)
	// MarkRead flips read to true for a notification owned by userID.
	MarkRead(ctx context.Context, id, userID string) error
	// MarkAllRead flips read to true for all of userID's unread notifications
	// and returns how many were affected.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	// Delete removes a notification owned by userID.
	Delete(ctx context.Context, id, userID string) error
}
