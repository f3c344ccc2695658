package archiveRepo

import (
	"context"
	"errors"

	"tradepost/models"
)

// ErrAlreadyArchived means an archive record for the same original listing
// already exists. Terminating transitions treat this as success so retries
// stay exactly-once.
var ErrAlreadyArchived = errors.New("listing already archived")

// ArchiveRepository defines data access for the archived_listings collection.
// The collection is append-only: records are never mutated after insert.
type ArchiveRepository interface {
	// Insert stores an archive snapshot. Returns ErrAlreadyArchived when a
	// record with the same originalId exists.
	Insert(ctx context.Context, archived *models.ArchivedListing) error
	// GetByOriginalID retrieves the archive record for a deleted listing,
	// or nil when absent.
	GetByOriginalID(ctx context.Context, originalID string) (*models.ArchivedListing, error)
}
