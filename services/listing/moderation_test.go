package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradepost/models"
)

func TestApproveActivatesAndNotifiesOwner(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	seedListing(repo, "l1", "owner-1", models.StatusPending, time.Hour)

	approved, err := svc.Approve(context.Background(), "l1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.StatusActive {
		t.Fatalf("status = %q, want active", approved.Status)
	}

	effects := notifier.all()
	if len(effects) != 1 {
		t.Fatalf("got %d notifications, want 1", len(effects))
	}
	if effects[0].UserID == nil || *effects[0].UserID != "owner-1" {
		t.Fatalf("notification target = %v, want owner-1", effects[0].UserID)
	}
	if effects[0].Type != models.NotificationSuccess {
		t.Fatalf("notification type = %q, want success", effects[0].Type)
	}
}

func TestApproveRefusedAtQuota(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	for i := 0; i < 5; i++ {
		seedListing(repo, listingID(i), "owner-1", models.StatusActive, time.Hour)
	}
	seedListing(repo, "sixth", "owner-1", models.StatusPending, time.Hour)

	_, err := svc.Approve(context.Background(), "sixth")
	var quotaErr QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("err = %v, want QuotaExceededError", err)
	}

	// The listing stays pending and the owner is not notified.
	stored, _ := repo.GetByID(context.Background(), "sixth")
	if stored.Status != models.StatusPending {
		t.Fatalf("status = %q, want pending after refused approval", stored.Status)
	}
	if len(notifier.all()) != 0 {
		t.Fatal("refused approval must not notify")
	}
}

func TestApproveLastSlotRace(t *testing.T) {
	svc, repo, _, _ := newTestService()
	for i := 0; i < 4; i++ {
		seedListing(repo, listingID(i), "owner-1", models.StatusActive, time.Hour)
	}
	seedListing(repo, "p1", "owner-1", models.StatusPending, time.Hour)
	seedListing(repo, "p2", "owner-1", models.StatusPending, time.Hour)

	// Two moderators approve concurrently; only one may take the last slot.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"p1", "p2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.Approve(context.Background(), id)
		}(i, id)
	}
	wg.Wait()

	var ok, refused int
	for _, err := range errs {
		var quotaErr QuotaExceededError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &quotaErr):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || refused != 1 {
		t.Fatalf("ok=%d refused=%d, want exactly one of each", ok, refused)
	}
	if n, _ := repo.CountActive(context.Background(), "owner-1"); n != 5 {
		t.Fatalf("active count = %d, want 5", n)
	}
}

func TestApproveWrongState(t *testing.T) {
	svc, repo, _, _ := newTestService()
	seedListing(repo, "act", "owner-1", models.StatusActive, time.Hour)

	if _, err := svc.Approve(context.Background(), "act"); !errors.Is(err, ErrConflict) {
		t.Fatalf("approve of active listing: err = %v, want ErrConflict", err)
	}
	if _, err := svc.Approve(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("approve of missing listing: err = %v, want ErrNotFound", err)
	}
}

func TestRejectNotifiesOwner(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	seedListing(repo, "l1", "owner-1", models.StatusPending, time.Hour)

	rejected, err := svc.Reject(context.Background(), "l1")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Fatalf("status = %q, want rejected", rejected.Status)
	}

	effects := notifier.all()
	if len(effects) != 1 || effects[0].Type != models.NotificationWarning {
		t.Fatalf("effects = %v, want one warning", effects)
	}

	// Rejecting twice loses the conditional update the second time.
	if _, err := svc.Reject(context.Background(), "l1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("second reject: err = %v, want ErrConflict", err)
	}
}

func TestMarkSold(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	seedListing(repo, "own", "owner-1", models.StatusActive, time.Hour)
	seedListing(repo, "mod", "owner-1", models.StatusActive, time.Hour)
	seedListing(repo, "pend", "owner-1", models.StatusPending, time.Hour)

	ctx := context.Background()

	// The owner closing their own sale gets no notification.
	sold, err := svc.MarkSold(ctx, "owner-1", models.RoleUser, "own")
	if err != nil {
		t.Fatalf("owner MarkSold: %v", err)
	}
	if sold.Status != models.StatusSold {
		t.Fatalf("status = %q, want sold", sold.Status)
	}
	if len(notifier.all()) != 0 {
		t.Fatal("self-service sale must not notify")
	}

	// A moderator acting on the owner's behalf does notify.
	if _, err := svc.MarkSold(ctx, "mod-1", models.RoleModerator, "mod"); err != nil {
		t.Fatalf("moderator MarkSold: %v", err)
	}
	effects := notifier.all()
	if len(effects) != 1 || *effects[0].UserID != "owner-1" {
		t.Fatalf("effects = %v, want one notice to owner-1", effects)
	}

	// Strangers are refused before state is considered.
	if _, err := svc.MarkSold(ctx, "stranger", models.RoleUser, "pend"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger MarkSold: err = %v, want ErrForbidden", err)
	}

	// Only active listings can be sold.
	var stateErr InvalidStateError
	if _, err := svc.MarkSold(ctx, "owner-1", models.RoleUser, "pend"); !errors.As(err, &stateErr) {
		t.Fatalf("MarkSold on pending: err = %v, want InvalidStateError", err)
	}
}

func TestCancel(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	seedListing(repo, "act", "owner-1", models.StatusActive, time.Hour)
	seedListing(repo, "sold", "owner-1", models.StatusSold, time.Hour)

	ctx := context.Background()

	cancelled, err := svc.Cancel(ctx, "owner-1", "act")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", cancelled.Status)
	}
	if len(notifier.all()) != 0 {
		t.Fatal("cancel must not notify")
	}

	// Owner only; foreign listings read as not found.
	if _, err := svc.Cancel(ctx, "stranger", "sold"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stranger cancel: err = %v, want ErrNotFound", err)
	}
	var stateErr InvalidStateError
	if _, err := svc.Cancel(ctx, "owner-1", "sold"); !errors.As(err, &stateErr) {
		t.Fatalf("cancel of sold listing: err = %v, want InvalidStateError", err)
	}
}

func TestDeleteArchivesBeforeRemoval(t *testing.T) {
	svc, repo, archive, notifier := newTestService()
	seedListing(repo, "l1", "owner-1", models.StatusActive, time.Hour)

	if err := svc.Delete(context.Background(), "owner-1", models.RoleUser, "l1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rec := archive.byOriginalID("l1")
	if rec == nil {
		t.Fatal("no archive record written")
	}
	if rec.DeletedBy == nil || *rec.DeletedBy != "owner-1" {
		t.Fatalf("DeletedBy = %v, want owner-1", rec.DeletedBy)
	}
	if rec.Listing.Title == "" {
		t.Fatal("archive snapshot is empty")
	}
	if stored, _ := repo.GetByID(context.Background(), "l1"); stored != nil {
		t.Fatal("listing still in live collection")
	}
	if len(notifier.all()) != 0 {
		t.Fatal("self-service delete must not notify")
	}
}

func TestDeleteByModeratorNotifiesOwner(t *testing.T) {
	svc, repo, _, notifier := newTestService()
	seedListing(repo, "l1", "owner-1", models.StatusActive, time.Hour)

	if err := svc.Delete(context.Background(), "mod-1", models.RoleModerator, "l1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	effects := notifier.all()
	if len(effects) != 1 || effects[0].Type != models.NotificationWarning {
		t.Fatalf("effects = %v, want one warning to the owner", effects)
	}
}

func TestDeleteForbiddenForStrangers(t *testing.T) {
	svc, repo, archive, _ := newTestService()
	seedListing(repo, "l1", "owner-1", models.StatusActive, time.Hour)

	err := svc.Delete(context.Background(), "stranger", models.RoleUser, "l1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if archive.count() != 0 {
		t.Fatal("refused delete must not archive")
	}
}

func TestDeleteCleansUpImage(t *testing.T) {
	svc, repo, _, _ := newTestService()
	store := &fakeStorage{}
	svc.Images = store
	seedListing(repo, "l1", "owner-1", models.StatusActive, time.Hour)
	repo.listings["l1"].ImageURL = "https://img.test/l1"

	if err := svc.Delete(context.Background(), "owner-1", models.RoleUser, "l1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "l1" {
		t.Fatalf("deleted images = %v, want [l1]", store.deleted)
	}
}

func TestArchivedSnapshotAfterDelete(t *testing.T) {
	svc, repo, _, _ := newTestService()
	seedListing(repo, "l1", "owner-1", models.StatusActive, time.Hour)

	// Nothing archived yet.
	if _, err := svc.ArchivedSnapshot(context.Background(), "l1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("live listing: err = %v, want ErrNotFound", err)
	}

	if err := svc.Delete(context.Background(), "mod-1", models.RoleModerator, "l1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rec, err := svc.ArchivedSnapshot(context.Background(), "l1")
	if err != nil {
		t.Fatalf("ArchivedSnapshot: %v", err)
	}
	if rec.OriginalID != "l1" || rec.Listing.Title != "Longsword l1" {
		t.Fatalf("snapshot = %+v, want the pre-deletion fields", rec)
	}
}

func TestDeleteRetryAfterPartialFailure(t *testing.T) {
	svc, repo, archive, _ := newTestService()
	l := seedListing(repo, "l1", "owner-1", models.StatusActive, time.Hour)

	// A previous attempt archived the listing but crashed before removing the
	// live record.
	if err := archive.Insert(context.Background(), &models.ArchivedListing{
		ID:         "prior",
		OriginalID: "l1",
		Listing:    l,
		DeletedAt:  time.Now(),
	}); err != nil {
		t.Fatalf("seed archive: %v", err)
	}

	// The retry completes without a duplicate snapshot.
	if err := svc.Delete(context.Background(), "owner-1", models.RoleUser, "l1"); err != nil {
		t.Fatalf("retried Delete: %v", err)
	}
	if archive.count() != 1 {
		t.Fatalf("archive count = %d, want exactly 1", archive.count())
	}
	if stored, _ := repo.GetByID(context.Background(), "l1"); stored != nil {
		t.Fatal("listing still in live collection after retry")
	}
}
