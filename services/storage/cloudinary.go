package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"tradepost/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// listingImageFolder is the Cloudinary folder holding listing images.
const listingImageFolder = "listing-images"

// CloudinaryStorageService implements StorageService on Cloudinary.
type CloudinaryStorageService struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorageService initializes the Cloudinary client from the
// application configuration.
func NewCloudinaryStorageService() (StorageService, error) {
	cfg := config.AppConfig
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStorageService{cld: cld}, nil
}

// UploadListingImage decodes a base64 data URI and uploads it under the
// listing's id. Re-uploading for the same listing overwrites the previous
// image.
func (s *CloudinaryStorageService) UploadListingImage(ctx context.Context, listingID, dataURI string) (string, error) {
	raw, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	overwrite := true
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(raw), uploader.UploadParams{
		Folder:    listingImageFolder,
		PublicID:  listingID,
		Overwrite: &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("storage: failed to upload listing image: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("storage: no URL returned for uploaded image")
	}
	return result.SecureURL, nil
}

// DeleteListingImage removes the image stored for a listing.
func (s *CloudinaryStorageService) DeleteListingImage(ctx context.Context, listingID string) error {
	publicID := listingImageFolder + "/" + listingID
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("storage: failed to delete listing image: %w", err)
	}
	return nil
}

// decodeDataURI strips an optional "data:<type>;base64," prefix and decodes
// the payload.
func decodeDataURI(dataURI string) ([]byte, error) {
	payload := dataURI
	if idx := strings.Index(dataURI, ","); idx >= 0 && strings.HasPrefix(dataURI, "data:") {
		payload = dataURI[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("storage: invalid base64 image payload: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("storage: empty image payload")
	}
	return raw, nil
}
