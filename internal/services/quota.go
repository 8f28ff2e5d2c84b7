package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"casaflow/pm/internal/db"
)

const quotasCollection = "sor_quotas"

// acquireQuotaSlot bumps the user's active-request counter, failing with
// ErrQuotaExceeded when the counter is already at the cap. The upsert path
// covers first-time users; a duplicate _id means the filter missed while the
// doc exists (counter at cap) or came into existence concurrently (lost
// upsert race), so the acquire is re-run as a plain conditional update to
// tell the two apart.
func acquireQuotaSlot(ctx context.Context, database *mongo.Database, userID string, max int) error {
	filter := bson.M{
		"_id":    userID,
		"active": bson.M{"$lt": max},
	}
	update := bson.M{"$inc": bson.M{"active": 1}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	err := database.Collection(quotasCollection).FindOneAndUpdate(ctx, filter, update, opts).Err()
	if db.IsMongoDuplicateKeyError(err) {
		err = database.Collection(quotasCollection).FindOneAndUpdate(ctx, filter, update).Err()
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("user %s: %w", userID, ErrQuotaExceeded)
		}
		return fmt.Errorf("failed to update request quota for user %s: %w", userID, err)
	}
	return nil
}

// releaseQuotaSlot frees one active-request slot when a request leaves the
// active states. Floored at zero.
func releaseQuotaSlot(ctx context.Context, database *mongo.Database, userID string) error {
	filter := bson.M{"_id": userID, "active": bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{"active": -1}}
	err := database.Collection(quotasCollection).FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to release request quota for user %s: %w", userID, err)
	}
	return nil
}
