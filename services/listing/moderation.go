package listing

import (
	"context"
	"errors"
	"time"

	archiveRepo "tradepost/database/repository/archive"
	listingRepo "tradepost/database/repository/listing"
	"tradepost/models"
	"tradepost/services/notification"
	"tradepost/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Approve transitions pending -> active. The quota count and the status flip
// run in one transaction at the repository, so concurrent approvals for the
// same owner cannot both take the last slot.
func (s *DefaultListingService) Approve(ctx context.Context, id string) (*models.Listing, error) {
	l, err := s.Repo.ApproveWithQuota(ctx, id, s.MaxActive)
	if err != nil {
		var quotaErr listingRepo.QuotaError
		switch {
		case errors.As(err, &quotaErr):
			return nil, QuotaExceededError{Active: quotaErr.Active, Limit: quotaErr.Limit}
		case errors.Is(err, listingRepo.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, listingRepo.ErrStatusConflict):
			return nil, ErrConflict
		default:
			return nil, err
		}
	}

	s.invalidateFeed(ctx, models.StatusActive)
	s.notify(ctx, notification.Effect{
		UserID:    &l.UserID,
		Type:      models.NotificationSuccess,
		Title:     "Listing approved",
		Message:   "Your listing \"" + l.Title + "\" was approved and is now live.",
		ListingID: l.ID,
	})
	return l, nil
}

// Reject transitions pending -> rejected.
func (s *DefaultListingService) Reject(ctx context.Context, id string) (*models.Listing, error) {
	l, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}

	now := time.Now()
	if err := s.updateWithStatus(ctx, id, models.StatusPending, bson.M{
		"status":     models.StatusRejected,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	l.Status = models.StatusRejected
	l.UpdatedAt = now

	s.notify(ctx, notification.Effect{
		UserID:    &l.UserID,
		Type:      models.NotificationWarning,
		Title:     "Listing rejected",
		Message:   "Your listing \"" + l.Title + "\" was rejected by a moderator.",
		ListingID: l.ID,
	})
	return l, nil
}

// MarkSold transitions active -> sold. Owner or moderator only; the owner is
// notified only when a moderator closed the sale on their behalf.
func (s *DefaultListingService) MarkSold(ctx context.Context, actorID, role, id string) (*models.Listing, error) {
	l, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if actorID != l.UserID && role != models.RoleModerator {
		return nil, ErrForbidden
	}
	if l.Status != models.StatusActive {
		return nil, InvalidStateError{Status: string(l.Status)}
	}

	now := time.Now()
	if err := s.updateWithStatus(ctx, id, models.StatusActive, bson.M{
		"status":     models.StatusSold,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	l.Status = models.StatusSold
	l.UpdatedAt = now

	s.invalidateFeed(ctx, models.StatusActive)
	if actorID != l.UserID {
		s.notify(ctx, notification.Effect{
			UserID:    &l.UserID,
			Type:      models.NotificationInfo,
			Title:     "Listing marked as sold",
			Message:   "Your listing \"" + l.Title + "\" was marked as sold by a moderator.",
			ListingID: l.ID,
		})
	}
	return l, nil
}

// Cancel transitions active -> cancelled. Owner only, no notification.
func (s *DefaultListingService) Cancel(ctx context.Context, ownerID, id string) (*models.Listing, error) {
	l, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil || l.UserID != ownerID {
		return nil, ErrNotFound
	}
	if l.Status != models.StatusActive {
		return nil, InvalidStateError{Status: string(l.Status)}
	}

	now := time.Now()
	if err := s.updateWithStatus(ctx, id, models.StatusActive, bson.M{
		"status":     models.StatusCancelled,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	l.Status = models.StatusCancelled
	l.UpdatedAt = now

	s.invalidateFeed(ctx, models.StatusActive)
	return l, nil
}

// Delete archives a listing and removes it from the live collection. Archival
// happens first; the live record is only removed once the snapshot is stored,
// and a duplicate snapshot from a retried delete is treated as success.
func (s *DefaultListingService) Delete(ctx context.Context, actorID, role, id string) error {
	l, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrNotFound
	}
	if actorID != l.UserID && role != models.RoleModerator {
		return ErrForbidden
	}

	now := time.Now()
	deletedBy := actorID
	archived := &models.ArchivedListing{
		ID:         uuid.NewString(),
		OriginalID: l.ID,
		Listing:    *l,
		DeletedAt:  now,
		DeletedBy:  &deletedBy,
	}
	if err := s.Archive.Insert(ctx, archived); err != nil && !errors.Is(err, archiveRepo.ErrAlreadyArchived) {
		return err
	}

	if err := s.Repo.Delete(ctx, id); err != nil && !errors.Is(err, listingRepo.ErrNotFound) {
		return err
	}
	s.removeImage(ctx, *l)

	s.invalidateFeed(ctx, l.Status)
	if actorID != l.UserID {
		s.notify(ctx, notification.Effect{
			UserID:    &l.UserID,
			Type:      models.NotificationWarning,
			Title:     "Listing removed",
			Message:   "Your listing \"" + l.Title + "\" was removed by a moderator.",
			ListingID: l.ID,
		})
	}
	return nil
}

// ExpireOne runs the sweepExpire transition for one listing. The status flip
// linearizes against concurrent transitions, archival precedes removal, and
// the notification is inserted last so a retried sweep cannot double-notify.
func (s *DefaultListingService) ExpireOne(ctx context.Context, l models.Listing) error {
	if time.Since(l.CreatedAt) < s.TTL {
		return InvalidStateError{Status: string(l.Status)}
	}

	now := time.Now()
	switch l.Status {
	case models.StatusActive:
		if err := s.updateWithStatus(ctx, l.ID, models.StatusActive, bson.M{
			"status":     models.StatusExpired,
			"updated_at": now,
		}); err != nil {
			return err
		}
		l.Status = models.StatusExpired
		l.UpdatedAt = now
	case models.StatusExpired:
		// Resuming a partially completed sweep: flip already happened.
	default:
		return InvalidStateError{Status: string(l.Status)}
	}

	archived := &models.ArchivedListing{
		ID:         uuid.NewString(),
		OriginalID: l.ID,
		Listing:    l,
		DeletedAt:  now,
		DeletedBy:  nil,
	}
	if err := s.Archive.Insert(ctx, archived); err != nil && !errors.Is(err, archiveRepo.ErrAlreadyArchived) {
		return err
	}

	if err := s.Repo.Delete(ctx, l.ID); err != nil && !errors.Is(err, listingRepo.ErrNotFound) {
		return err
	}
	s.removeImage(ctx, l)

	s.invalidateFeed(ctx, models.StatusActive)
	s.notify(ctx, notification.Effect{
		UserID:    &l.UserID,
		Type:      models.NotificationInfo,
		Title:     "Listing expired",
		Message:   "Your listing \"" + l.Title + "\" reached its time limit and was archived.",
		ListingID: l.ID,
	})

	utils.GetLogger().Info("listing expired",
		zap.String("listingId", l.ID), zap.String("userId", l.UserID))
	return nil
}
