package archiveRepo

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

// MongoArchiveRepo implements ArchiveRepository using MongoDB.
type MongoArchiveRepo struct {
	coll *mongo.Collection
}

// NewMongoArchiveRepo creates a new instance of ArchiveRepository using MongoDB.
func NewMongoArchiveRepo() ArchiveRepository {
	coll := database.Collection("archived_listings")
	repo := &MongoArchiveRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create archive indexes: %v\n", err)
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes enforces exactly-once archival through a unique original_id index.
func (r *MongoArchiveRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "original_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Insert stores an archive snapshot.
func (r *MongoArchiveRepo) Insert(ctx context.Context, archived *models.ArchivedListing) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, archived); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyArchived
		}
		return fmt.Errorf("failed to insert archive record: %w", err)
	}
	return nil
}

// GetByOriginalID retrieves the archive record for a deleted listing.
func (r *MongoArchiveRepo) GetByOriginalID(ctx context.Context, originalID string) (*models.ArchivedListing, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var archived models.ArchivedListing
	if err := r.coll.FindOne(ctx, bson.M{"original_id": originalID}).Decode(&archived); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch archive for listing %s: %w", originalID, err)
	}
	return &archived, nil
}
