package models

import "time"

// ListingStatus is the moderation/lifecycle state of a listing.
type ListingStatus string

const (
	StatusPending   ListingStatus = "pending"
	StatusActive    ListingStatus = "active"
	StatusRejected  ListingStatus = "rejected"
	StatusSold      ListingStatus = "sold"
	StatusCancelled ListingStatus = "cancelled"
	StatusExpired   ListingStatus = "expired"
)

// ValidStatus reports whether s is one of the defined listing states.
func ValidStatus(s ListingStatus) bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected, StatusSold, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Listing is a user-submitted marketplace offer.
type Listing struct {
	ID          string        `json:"id" bson:"id"`
	UserID      string        `json:"userId" bson:"user_id"`
	Server      string        `json:"server" bson:"server"`
	Category    string        `json:"category" bson:"category"`
	ListingType string        `json:"listingType,omitempty" bson:"listing_type,omitempty"`
	Title       string        `json:"title" bson:"title"`
	Description string        `json:"description" bson:"description"`
	Price       float64       `json:"price" bson:"price"`
	Currency    string        `json:"currency" bson:"currency"`
	Phone       string        `json:"phone" bson:"phone"`
	Discord     string        `json:"discord,omitempty" bson:"discord,omitempty"`
	ContactType string        `json:"contactType,omitempty" bson:"contact_type,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Status      ListingStatus `json:"status" bson:"status"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updated_at"`
}
