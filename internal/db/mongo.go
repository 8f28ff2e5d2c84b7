package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectDB initializes and returns a MongoDB client and database instance.
func ConnectDB(uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the primary node
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		// Disconnect if ping fails
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, client.Database(dbName), nil
}

// DisconnectDB closes the MongoDB client connection.
func DisconnectDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the pipeline relies on for its
// invariants. Safe to call repeatedly; Mongo treats an identical index spec
// as a no-op.
//
// The unique indexes on opportunity_request_id turn the one-offer-per-request
// and one-appointment-per-request rules into store constraints instead of
// application-level check-then-act sequences.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	offerIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "opportunity_request_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("offers").Indexes().CreateOne(ctx, offerIdx); err != nil {
		return fmt.Errorf("failed to create offers index: %w", err)
	}

	// Appointments may exist outside the pipeline with no request link, so
	// uniqueness only applies where the field is present.
	apptIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "opportunity_request_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(
			bson.M{"opportunity_request_id": bson.M{"$exists": true}},
		),
	}
	if _, err := db.Collection("appointments").Indexes().CreateOne(ctx, apptIdx); err != nil {
		return fmt.Errorf("failed to create appointments index: %w", err)
	}

	requestIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
	}
	if _, err := db.Collection("opportunity_requests").Indexes().CreateOne(ctx, requestIdx); err != nil {
		return fmt.Errorf("failed to create opportunity_requests index: %w", err)
	}

	journeyIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	}
	if _, err := db.Collection("journey_events").Indexes().CreateOne(ctx, journeyIdx); err != nil {
		return fmt.Errorf("failed to create journey_events index: %w", err)
	}

	return nil
}

// WithTransaction runs fn inside a MongoDB session transaction so the
// multi-document writes of a pipeline operation commit or abort as one unit.
// Transient transaction errors that escape the driver's own retry window get
// a fresh session via Try; duplicate-key errors surface immediately.
// Requires the deployment to be a replica set.
func WithTransaction(ctx context.Context, db *mongo.Database, fn func(sc mongo.SessionContext) error) error {
	return Try(func() error {
		session, err := db.Client().StartSession()
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		return err
	})
}
