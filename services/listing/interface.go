package listing

import (
	"context"

	"tradepost/models"
)

// CreateListingRequest carries the owner-supplied fields of a new listing.
// Image is an optional base64 data URI; an upload failure degrades to a
// listing without an image.
type CreateListingRequest struct {
	Server      string  `json:"server"`
	Category    string  `json:"category"`
	ListingType string  `json:"listingType"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Phone       string  `json:"phone"`
	Discord     string  `json:"discord"`
	ContactType string  `json:"contactType"`
	Image       string  `json:"image"`
}

// UpdateListingRequest carries the mutable fields of an edit. Nil pointers
// leave the field unchanged.
type UpdateListingRequest struct {
	Server      *string  `json:"server"`
	Category    *string  `json:"category"`
	ListingType *string  `json:"listingType"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
	Phone       *string  `json:"phone"`
	Discord     *string  `json:"discord"`
	ContactType *string  `json:"contactType"`
}

// ListingService is the lifecycle engine: it validates and applies state
// transitions and emits the notification effects that accompany them.
type ListingService interface {
	// Create validates and stores a new pending listing owned by ownerID.
	Create(ctx context.Context, ownerID string, req CreateListingRequest) (*models.Listing, error)
	// PublicFeed returns active listings younger than the TTL, newest first.
	PublicFeed(ctx context.Context) ([]models.Listing, error)
	// GetVisible returns one listing if the viewer may see it. Non-active
	// listings are visible to the owner and moderators only.
	GetVisible(ctx context.Context, viewerID, role, id string) (*models.Listing, error)
	// OwnListings returns all of ownerID's listings regardless of status.
	OwnListings(ctx context.Context, ownerID string) ([]models.Listing, error)
	// ArchivedSnapshot returns the archive record of a removed listing.
	ArchivedSnapshot(ctx context.Context, id string) (*models.ArchivedListing, error)
	// PendingQueue returns listings awaiting moderation, oldest first.
	PendingQueue(ctx context.Context) ([]models.Listing, error)
	// Edit updates mutable fields of an editable listing owned by ownerID.
	Edit(ctx context.Context, ownerID, id string, req UpdateListingRequest) (*models.Listing, error)
	// Approve transitions pending -> active, enforcing the owner's quota.
	Approve(ctx context.Context, id string) (*models.Listing, error)
	// Reject transitions pending -> rejected.
	Reject(ctx context.Context, id string) (*models.Listing, error)
	// MarkSold transitions active -> sold. Owner or moderator only.
	MarkSold(ctx context.Context, actorID, role, id string) (*models.Listing, error)
	// Cancel transitions active -> cancelled. Owner only.
	Cancel(ctx context.Context, ownerID, id string) (*models.Listing, error)
	// Delete archives and removes a listing. Owner or moderator only.
	Delete(ctx context.Context, actorID, role, id string) error
	// ExpireOne runs the sweepExpire transition for one listing past its TTL.
	ExpireOne(ctx context.Context, l models.Listing) error
}
