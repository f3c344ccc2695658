package models

import "time"

// ArchivedListing is the immutable record kept after a listing is removed
// from the live collection. DeletedBy is nil for system-initiated removals
// such as the expiration sweep.
type ArchivedListing struct {
	ID         string    `json:"id" bson:"id"`
	OriginalID string    `json:"originalId" bson:"original_id"`
	Listing    Listing   `json:"listing" bson:"listing"`
	DeletedAt  time.Time `json:"deletedAt" bson:"deleted_at"`
	DeletedBy  *string   `json:"deletedBy" bson:"deleted_by"`
}
