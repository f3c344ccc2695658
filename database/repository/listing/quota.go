package listingRepo

import (
	"context"
	"fmt"
	"time"

	"tradepost/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ApproveWithQuota flips a pending listing to active, counting the owner's
// active listings inside the same transaction so two concurrent approvals
// for the same owner cannot both take the last quota slot.
//
// Snapshot isolation alone is not enough here: two approvals of two
// different listings would each count the same snapshot, write disjoint
// documents and both commit. Every approval therefore also bumps the owner's
// document in listing_quotas before counting. Overlapping transactions for
// the same owner then conflict on that shared write; the losing transaction
// aborts with a transient error and WithTransaction re-runs it against the
// committed count.
func (r *MongoListingRepo) ApproveWithQuota(ctx context.Context, id string, limit int64) (*models.Listing, error) {
	ctx, cancel := newContext(ctx, 15*time.Second)
	defer cancel()

	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	result, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var listing models.Listing
		if err := r.coll.FindOne(sc, bson.M{"id": id}).Decode(&listing); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("fetch listing failed: %w", err)
		}
		if listing.Status != models.StatusPending {
			return nil, ErrStatusConflict
		}

		// Serialize approvals per owner before reading the count.
		if _, err := r.quotas.UpdateOne(sc,
			bson.M{"user_id": listing.UserID},
			bson.M{"$inc": bson.M{"approvals": 1}},
			options.Update().SetUpsert(true),
		); err != nil {
			return nil, fmt.Errorf("reserve quota slot failed: %w", err)
		}

		active, err := r.coll.CountDocuments(sc, bson.M{
			"user_id": listing.UserID,
			"status":  models.StatusActive,
		})
		if err != nil {
			return nil, fmt.Errorf("count active listings failed: %w", err)
		}
		if active >= limit {
			return nil, QuotaError{Active: active, Limit: limit}
		}

		now := time.Now()
		res, err := r.coll.UpdateOne(sc,
			bson.M{"id": id, "status": models.StatusPending},
			bson.M{"$set": bson.M{"status": models.StatusActive, "updated_at": now}},
		)
		if err != nil {
			return nil, fmt.Errorf("activate listing failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrStatusConflict
		}

		listing.Status = models.StatusActive
		listing.UpdatedAt = now
		return &listing, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Listing), nil
}
