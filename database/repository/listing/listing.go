package listingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradepost/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Sentinel errors reported by the listing repository. The service layer maps
// these onto its user-facing error taxonomy.
var (
	// ErrNotFound means no listing with the given id exists in the live collection.
	ErrNotFound = errors.New("listing not found")
	// ErrStatusConflict means the listing exists but its status no longer matches
	// the expected prior status of a conditional update.
	ErrStatusConflict = errors.New("listing status conflict")
)

// QuotaError reports that an owner is at the active-listing limit.
type QuotaError struct {
	Active int64
	Limit  int64
}

func (e QuotaError) Error() string {
	return fmt.Sprintf("active listing quota reached (%d/%d)", e.Active, e.Limit)
}

// ListingRepository defines data access for the live listings collection.
// Every mutating operation is a conditional update keyed on the listing's
// current status, so concurrent writers linearize at the database.
type ListingRepository interface {
	// Insert stores a new listing document.
	Insert(ctx context.Context, listing *models.Listing) error
	// GetByID retrieves a listing by id, or nil when absent.
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	// GetActiveSince retrieves active listings created after cutoff, newest first.
	GetActiveSince(ctx context.Context, cutoff time.Time, limit int64) ([]models.Listing, error)
	// GetByOwner retrieves all listings owned by userID, newest first.
	GetByOwner(ctx context.Context, userID string) ([]models.Listing, error)
	// GetByStatus retrieves all listings in the given status, oldest first.
	GetByStatus(ctx context.Context, status models.ListingStatus) ([]models.Listing, error)
	// CountActive counts userID's listings currently in status active.
	CountActive(ctx context.Context, userID string) (int64, error)
	// UpdateWithStatus applies patch to the listing only if its status still
	// equals expected. Returns ErrStatusConflict or ErrNotFound otherwise.
	UpdateWithStatus(ctx context.Context, id string, expected models.ListingStatus, patch bson.M) error
	// ApproveWithQuota flips a pending listing to active inside a transaction,
	// failing with QuotaError when the owner already has limit active listings
	// and ErrStatusConflict when the listing is no longer pending.
	ApproveWithQuota(ctx context.Context, id string, limit int64) (*models.Listing, error)
	// Delete removes a listing from the live collection.
	Delete(ctx context.Context, id string) error
	// FindExpired retrieves listings created at or before cutoff that still
	// need sweeping: active ones, plus expired ones not yet archived.
	FindExpired(ctx context.Context, cutoff time.Time) ([]models.Listing, error)
}
