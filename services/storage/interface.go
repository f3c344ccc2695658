package storage

import "context"

// StorageService uploads listing images and returns their public URL.
type StorageService interface {
	// UploadListingImage stores a base64 data-URI image under the listing's
	// id and returns the public URL.
	UploadListingImage(ctx context.Context, listingID, dataURI string) (string, error)
	// DeleteListingImage removes the image stored for a listing.
	DeleteListingImage(ctx context.Context, listingID string) error
}
