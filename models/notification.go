package models

import "time"

// NotificationType classifies a notification for client rendering.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	// NotificationAdmin targets the moderator pool rather than a single user.
	NotificationAdmin NotificationType = "admin"
)

// Notification is a one-way message to a user. A nil UserID addresses the
// moderator pool.
type Notification struct {
	ID        string           `json:"id" bson:"id"`
	UserID    *string          `json:"userId" bson:"user_id"`
	Title     string           `json:"title" bson:"title"`
	Message   string           `json:"message" bson:"message"`
	Type      NotificationType `json:"type" bson:"type"`
	Read      bool             `json:"read" bson:"read"`
	ListingID string           `json:"listingId,omitempty" bson:"listing_id,omitempty"`
	CreatedAt time.Time        `json:"createdAt" bson:"created_at"`
}
