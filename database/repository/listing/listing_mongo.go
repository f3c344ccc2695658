package listingRepo

import (
	"context"
	"fmt"
	"time"

	"tradepost/database"
	"tradepost/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoListingRepo implements ListingRepository using MongoDB. quotas holds
// one document per owner that every approval transaction writes, so that
// concurrent approvals for the same owner conflict instead of committing
// against the same count snapshot.
type MongoListingRepo struct {
	coll   *mongo.Collection
	quotas *mongo.Collection
}

// NewMongoListingRepo creates a new instance of ListingRepository using MongoDB.
func NewMongoListingRepo() ListingRepository {
	repo := &MongoListingRepo{
		coll:   database.Collection("listings"),
		quotas: database.Collection("listing_quotas"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create listing indexes: %v\n", err)
	}
	return repo
}

// newContext bounds a repository call with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoListingRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	_, err = r.quotas.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create quota index: %w", err)
	}
	return nil
}

// Insert stores a new listing document.
func (r *MongoListingRepo) Insert(ctx context.Context, listing *models.Listing) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, listing); err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// GetByID retrieves a listing by its unique ID, or nil when absent.
func (r *MongoListingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var listing models.Listing
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&listing); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch listing with id %s: %w", id, err)
	}
	return &listing, nil
}

// GetActiveSince retrieves active listings created after cutoff, newest first.
func (r *MongoListingRepo) GetActiveSince(ctx context.Context, cutoff time.Time, limit int64) ([]models.Listing, error) {
	filter := bson.M{
		"status":     models.StatusActive,
		"created_at": bson.M{"$gt": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, filter, opts)
}

// GetByOwner retrieves all listings owned by userID, newest first.
func (r *MongoListingRepo) GetByOwner(ctx context.Context, userID string) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

// GetByStatus retrieves all listings in the given status, oldest first.
func (r *MongoListingRepo) GetByStatus(ctx context.Context, status models.ListingStatus) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, bson.M{"status": status}, opts)
}

// FindExpired retrieves listings created at or before cutoff that are either
// still active or already flipped to expired but not yet archived. The latter
// are rows a crashed sweep left behind; the next sweep finishes them.
func (r *MongoListingRepo) FindExpired(ctx context.Context, cutoff time.Time) ([]models.Listing, error) {
	filter := bson.M{
		"status":     bson.M{"$in": bson.A{models.StatusActive, models.StatusExpired}},
		"created_at": bson.M{"$lte": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoListingRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Listing, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	for cursor.Next(ctx) {
		var l models.Listing
		if err := cursor.Decode(&l); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// CountActive counts userID's listings currently in status active.
func (r *MongoListingRepo) CountActive(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	count, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "status": models.StatusActive})
	if err != nil {
		return 0, fmt.Errorf("failed to count active listings for user %s: %w", userID, err)
	}
	return count, nil
}

// UpdateWithStatus applies patch to the listing only if its status still
// equals expected. The filter carries the expected status so two concurrent
// transitions cannot both match.
func (r *MongoListingRepo) UpdateWithStatus(ctx context.Context, id string, expected models.ListingStatus, patch bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": expected}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": patch})
	if err != nil {
		return fmt.Errorf("failed to update listing with id %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a vanished listing from a stale expected status.
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// Delete removes a listing from the live collection.
func (r *MongoListingRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete listing with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoListingRepo) exists(ctx context.Context, id string) (bool, error) {
	err := r.coll.FindOne(ctx, bson.M{"id": id}, options.FindOne().SetProjection(bson.M{"id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check listing existence for id %s: %w", id, err)
	}
	return true, nil
}
