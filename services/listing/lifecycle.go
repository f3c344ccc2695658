package listing

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	listingRepo "tradepost/database/repository/listing"
	"tradepost/models"
	"tradepost/services/notification"
	"tradepost/services/storage"
	"tradepost/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// DefaultListingService is the production lifecycle engine.
type DefaultListingService struct {
	Repo      listingRepo.ListingRepository
	Archive   ArchiveStore
	Notifier  notification.NotificationService
	Images    storage.StorageService
	TTL       time.Duration
	MaxActive int64
}

// ArchiveStore is the slice of the archive repository the lifecycle needs.
type ArchiveStore interface {
	Insert(ctx context.Context, archived *models.ArchivedListing) error
	GetByOriginalID(ctx context.Context, originalID string) (*models.ArchivedListing, error)
}

const defaultCurrency = "TRY"

// Create validates and stores a new pending listing. Moderation is explicit:
// a listing never auto-publishes. The quota check here is advisory (pending
// listings hold no slot); approval re-checks transactionally.
func (s *DefaultListingService) Create(ctx context.Context, ownerID string, req CreateListingRequest) (*models.Listing, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	active, err := s.Repo.CountActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if active >= s.MaxActive {
		return nil, QuotaExceededError{Active: active, Limit: s.MaxActive}
	}

	now := time.Now()
	l := &models.Listing{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Server:      strings.TrimSpace(req.Server),
		Category:    strings.TrimSpace(req.Category),
		ListingType: req.ListingType,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Phone:       req.Phone,
		Discord:     req.Discord,
		ContactType: req.ContactType,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if l.Currency == "" {
		l.Currency = defaultCurrency
	}

	// Image upload is best-effort: a storage failure degrades to a listing
	// without an image.
	if req.Image != "" && s.Images != nil {
		url, err := s.Images.UploadListingImage(ctx, l.ID, req.Image)
		if err != nil {
			utils.GetLogger().Warn("listing image upload failed",
				zap.String("listingId", l.ID), zap.Error(err))
		} else {
			l.ImageURL = url
		}
	}

	if err := s.Repo.Insert(ctx, l); err != nil {
		return nil, err
	}

	s.notify(ctx, notification.Effect{
		UserID:    nil,
		Type:      models.NotificationAdmin,
		Title:     "New listing awaiting review",
		Message:   "Listing \"" + l.Title + "\" was submitted and is waiting for moderation.",
		ListingID: l.ID,
	})

	return l, nil
}

// PublicFeed returns active listings younger than the TTL, newest first.
func (s *DefaultListingService) PublicFeed(ctx context.Context) ([]models.Listing, error) {
	cutoff := time.Now().Add(-s.TTL)
	return s.Repo.GetActiveSince(ctx, cutoff, 0)
}

// GetVisible returns one listing if the viewer may see it. An active listing
// read past its TTL is expired opportunistically and reported as not found.
func (s *DefaultListingService) GetVisible(ctx context.Context, viewerID, role, id string) (*models.Listing, error) {
	l, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}

	if l.Status == models.StatusActive && time.Since(l.CreatedAt) >= s.TTL {
		// Past TTL but not yet swept. Expire it now rather than serve it.
		if err := s.ExpireOne(ctx, *l); err != nil && !errors.Is(err, ErrConflict) {
			utils.GetLogger().Warn("opportunistic expiration failed",
				zap.String("listingId", l.ID), zap.Error(err))
		}
		return nil, ErrNotFound
	}

	if l.Status == models.StatusActive {
		return l, nil
	}
	// Non-active listings are visible to the owner and moderators only.
	if viewerID == l.UserID || role == models.RoleModerator {
		return l, nil
	}
	return nil, ErrNotFound
}

// OwnListings returns all of ownerID's listings regardless of status.
func (s *DefaultListingService) OwnListings(ctx context.Context, ownerID string) ([]models.Listing, error) {
	return s.Repo.GetByOwner(ctx, ownerID)
}

// ArchivedSnapshot returns the archive record of a removed listing.
func (s *DefaultListingService) ArchivedSnapshot(ctx context.Context, id string) (*models.ArchivedListing, error) {
	rec, err := s.Archive.GetByOriginalID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// PendingQueue returns listings awaiting moderation, oldest first.
func (s *DefaultListingService) PendingQueue(ctx context.Context) ([]models.Listing, error) {
	return s.Repo.GetByStatus(ctx, models.StatusPending)
}

// Edit updates mutable fields of a pending or active listing. Ownership and
// status are never touched; the conditional update is keyed on the status the
// listing had when read.
func (s *DefaultListingService) Edit(ctx context.Context, ownerID, id string, req UpdateListingRequest) (*models.Listing, error) {
	l, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil || l.UserID != ownerID {
		return nil, ErrNotFound
	}
	if l.Status != models.StatusPending && l.Status != models.StatusActive {
		return nil, InvalidStateError{Status: string(l.Status)}
	}

	patch := bson.M{}
	setString := func(key string, v *string, dst *string) {
		if v != nil {
			patch[key] = *v
			*dst = *v
		}
	}
	setString("server", req.Server, &l.Server)
	setString("category", req.Category, &l.Category)
	setString("listing_type", req.ListingType, &l.ListingType)
	setString("title", req.Title, &l.Title)
	setString("description", req.Description, &l.Description)
	setString("currency", req.Currency, &l.Currency)
	setString("phone", req.Phone, &l.Phone)
	setString("discord", req.Discord, &l.Discord)
	setString("contact_type", req.ContactType, &l.ContactType)
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
		patch["price"] = *req.Price
		l.Price = *req.Price
	}
	if len(patch) == 0 {
		return nil, ValidationError{Message: "no editable fields provided"}
	}
	if title, ok := patch["title"].(string); ok && strings.TrimSpace(title) == "" {
		return nil, ValidationError{Message: "title must not be empty"}
	}

	now := time.Now()
	patch["updated_at"] = now
	l.UpdatedAt = now

	if err := s.updateWithStatus(ctx, id, l.Status, patch); err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx, l.Status)
	return l, nil
}

// updateWithStatus translates repository sentinels into the service taxonomy.
func (s *DefaultListingService) updateWithStatus(ctx context.Context, id string, expected models.ListingStatus, patch bson.M) error {
	err := s.Repo.UpdateWithStatus(ctx, id, expected, patch)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, listingRepo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, listingRepo.ErrStatusConflict):
		return ErrConflict
	default:
		return err
	}
}

// notify delivers a lifecycle effect. Delivery failures are logged and never
// propagate into the transition outcome.
func (s *DefaultListingService) notify(ctx context.Context, effect notification.Effect) {
	if s.Notifier == nil {
		return
	}
	if _, err := s.Notifier.Deliver(ctx, effect); err != nil {
		utils.GetLogger().Warn("notification delivery failed",
			zap.String("listingId", effect.ListingID), zap.Error(err))
	}
}

// removeImage drops the hosted image once the listing left the live
// collection. Best-effort, like upload: the archive snapshot keeps the URL.
func (s *DefaultListingService) removeImage(ctx context.Context, l models.Listing) {
	if s.Images == nil || l.ImageURL == "" {
		return
	}
	if err := s.Images.DeleteListingImage(ctx, l.ID); err != nil {
		utils.GetLogger().Warn("listing image cleanup failed",
			zap.String("listingId", l.ID), zap.Error(err))
	}
}

// invalidateFeed drops the cached public feed when a publicly visible
// listing changed.
func (s *DefaultListingService) invalidateFeed(ctx context.Context, status models.ListingStatus) {
	if status == models.StatusActive {
		utils.InvalidateFeedCache(ctx)
	}
}

func validateCreate(req CreateListingRequest) error {
	switch {
	case strings.TrimSpace(req.Server) == "":
		return ValidationError{Message: "server is required"}
	case strings.TrimSpace(req.Category) == "":
		return ValidationError{Message: "category is required"}
	case strings.TrimSpace(req.Title) == "":
		return ValidationError{Message: "title is required"}
	case strings.TrimSpace(req.Description) == "":
		return ValidationError{Message: "description is required"}
	case strings.TrimSpace(req.Phone) == "":
		return ValidationError{Message: "phone is required"}
	}
	return validatePrice(req.Price)
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return ValidationError{Message: "price must be a positive number"}
	}
	return nil
}
