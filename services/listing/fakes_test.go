package listing

import (
	"context"
	"sort"
	"sync"
	"time"

	archiveRepo "tradepost/database/repository/archive"
	listingRepo "tradepost/database/repository/listing"
	"tradepost/models"
	"tradepost/services/notification"

	"go.mongodb.org/mongo-driver/bson"
)

// fakeRepo is an in-memory ListingRepository. Mutating operations hold the
// lock for their whole critical section, mirroring the transactional
// guarantees of the real repository.
type fakeRepo struct {
	mu       sync.Mutex
	listings map[string]*models.Listing

	// updateErr, when set, is returned by the next UpdateWithStatus call.
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{listings: map[string]*models.Listing{}}
}

func (r *fakeRepo) Insert(ctx context.Context, l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *fakeRepo) GetActiveSince(ctx context.Context, cutoff time.Time, limit int64) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Listing
	for _, l := range r.listings {
		if l.Status == models.StatusActive && l.CreatedAt.After(cutoff) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) GetByOwner(ctx context.Context, userID string) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Listing
	for _, l := range r.listings {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) GetByStatus(ctx context.Context, status models.ListingStatus) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Listing
	for _, l := range r.listings {
		if l.Status == status {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) CountActive(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countActiveLocked(userID), nil
}

func (r *fakeRepo) countActiveLocked(userID string) int64 {
	var n int64
	for _, l := range r.listings {
		if l.UserID == userID && l.Status == models.StatusActive {
			n++
		}
	}
	return n
}

func (r *fakeRepo) UpdateWithStatus(ctx context.Context, id string, expected models.ListingStatus, patch bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		err := r.updateErr
		r.updateErr = nil
		return err
	}
	l, ok := r.listings[id]
	if !ok {
		return listingRepo.ErrNotFound
	}
	if l.Status != expected {
		return listingRepo.ErrStatusConflict
	}
	applyPatch(l, patch)
	return nil
}

func (r *fakeRepo) ApproveWithQuota(ctx context.Context, id string, limit int64) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, listingRepo.ErrNotFound
	}
	if l.Status != models.StatusPending {
		return nil, listingRepo.ErrStatusConflict
	}
	active := r.countActiveLocked(l.UserID)
	if active >= limit {
		return nil, listingRepo.QuotaError{Active: active, Limit: limit}
	}
	l.Status = models.StatusActive
	l.UpdatedAt = time.Now()
	cp := *l
	return &cp, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return listingRepo.ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *fakeRepo) FindExpired(ctx context.Context, cutoff time.Time) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Listing
	for _, l := range r.listings {
		sweepable := l.Status == models.StatusActive || l.Status == models.StatusExpired
		if sweepable && !l.CreatedAt.After(cutoff) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func applyPatch(l *models.Listing, patch bson.M) {
	for k, v := range patch {
		switch k {
		case "status":
			l.Status = v.(models.ListingStatus)
		case "updated_at":
			l.UpdatedAt = v.(time.Time)
		case "server":
			l.Server = v.(string)
		case "category":
			l.Category = v.(string)
		case "listing_type":
			l.ListingType = v.(string)
		case "title":
			l.Title = v.(string)
		case "description":
			l.Description = v.(string)
		case "currency":
			l.Currency = v.(string)
		case "phone":
			l.Phone = v.(string)
		case "discord":
			l.Discord = v.(string)
		case "contact_type":
			l.ContactType = v.(string)
		case "price":
			l.Price = v.(float64)
		}
	}
}

// fakeArchive is an in-memory append-only archive enforcing the unique
// original_id constraint.
type fakeArchive struct {
	mu      sync.Mutex
	records []models.ArchivedListing
}

func (a *fakeArchive) Insert(ctx context.Context, archived *models.ArchivedListing) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, rec := range a.records {
		if rec.OriginalID == archived.OriginalID {
			return archiveRepo.ErrAlreadyArchived
		}
	}
	a.records = append(a.records, *archived)
	return nil
}

func (a *fakeArchive) GetByOriginalID(ctx context.Context, originalID string) (*models.ArchivedListing, error) {
	return a.byOriginalID(originalID), nil
}

func (a *fakeArchive) byOriginalID(originalID string) *models.ArchivedListing {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.records {
		if a.records[i].OriginalID == originalID {
			cp := a.records[i]
			return &cp
		}
	}
	return nil
}

func (a *fakeArchive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// fakeStorage records image uploads and deletions.
type fakeStorage struct {
	mu        sync.Mutex
	uploaded  map[string]string
	deleted   []string
	uploadErr error
}

func (f *fakeStorage) UploadListingImage(ctx context.Context, listingID, dataURI string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if f.uploaded == nil {
		f.uploaded = map[string]string{}
	}
	url := "https://img.test/" + listingID
	f.uploaded[listingID] = url
	return url, nil
}

func (f *fakeStorage) DeleteListingImage(ctx context.Context, listingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, listingID)
	return nil
}

// recordingNotifier captures delivered effects.
type recordingNotifier struct {
	mu      sync.Mutex
	effects []notification.Effect
}

func (n *recordingNotifier) Deliver(ctx context.Context, effect notification.Effect) (*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.effects = append(n.effects, effect)
	return &models.Notification{ID: "n", UserID: effect.UserID}, nil
}

func (n *recordingNotifier) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return nil, nil
}

func (n *recordingNotifier) ListModeratorPool(ctx context.Context) ([]models.Notification, error) {
	return nil, nil
}

func (n *recordingNotifier) MarkRead(ctx context.Context, id, userID string) error { return nil }

func (n *recordingNotifier) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (n *recordingNotifier) Delete(ctx context.Context, id, userID string) error { return nil }

func (n *recordingNotifier) all() []notification.Effect {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Effect, len(n.effects))
	copy(out, n.effects)
	return out
}

// newTestService wires a lifecycle service over fresh fakes with a 24h TTL
// and a quota of 5.
func newTestService() (*DefaultListingService, *fakeRepo, *fakeArchive, *recordingNotifier) {
	repo := newFakeRepo()
	archive := &fakeArchive{}
	notifier := &recordingNotifier{}
	svc := &DefaultListingService{
		Repo:      repo,
		Archive:   archive,
		Notifier:  notifier,
		TTL:       24 * time.Hour,
		MaxActive: 5,
	}
	return svc, repo, archive, notifier
}

// seedListing stores a listing with the given status whose creation time is
// age in the past.
func seedListing(repo *fakeRepo, id, ownerID string, status models.ListingStatus, age time.Duration) models.Listing {
	created := time.Now().Add(-age)
	l := models.Listing{
		ID:          id,
		UserID:      ownerID,
		Server:      "Azure-1",
		Category:    "weapons",
		Title:       "Longsword " + id,
		Description: "barely used",
		Price:       150,
		Currency:    "TRY",
		Phone:       "+90 555 000 0000",
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	repo.listings[id] = &l
	return l
}

func validCreateRequest() CreateListingRequest {
	return CreateListingRequest{
		Server:      "Azure-1",
		Category:    "weapons",
		Title:       "Enchanted bow",
		Description: "fresh drop, best offer wins",
		Price:       420,
		Phone:       "+90 555 111 2233",
	}
}
