package journey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"casaflow/pm/internal/models"
)

// TypeRecord is the asynq task type for journey event recording.
const TypeRecord = "journey:record"

// EventsCollection is where the append-only journey log lives.
const EventsCollection = "journey_events"

// RecordPayload is the asynq task payload for a single journey event.
type RecordPayload struct {
	PropertyID string               `json:"property_id"`
	UserID     string               `json:"user_id"`
	Action     models.JourneyAction `json:"action"`
	Metadata   map[string]string    `json:"metadata,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// Recorder is the pipeline's write-only view of the journey log. Recording is
// best effort: callers log a returned error and move on, they never fail the
// operation that produced the event.
type Recorder interface {
	Record(ctx context.Context, propertyID, userID string, action models.JourneyAction, metadata map[string]string) error
}

// AsynqRecorder enqueues journey events for the background worker to persist,
// keeping the write off the request path.
type AsynqRecorder struct {
	client *asynq.Client
}

// NewAsynqRecorder creates a Recorder backed by an asynq client.
func NewAsynqRecorder(client *asynq.Client) *AsynqRecorder {
	return &AsynqRecorder{client: client}
}

func (r *AsynqRecorder) Record(ctx context.Context, propertyID, userID string, action models.JourneyAction, metadata map[string]string) error {
	payload, err := json.Marshal(RecordPayload{
		PropertyID: propertyID,
		UserID:     userID,
		Action:     action,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal journey payload: %w", err)
	}

	task := asynq.NewTask(TypeRecord, payload, asynq.MaxRetry(3))
	if _, err := r.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue journey event: %w", err)
	}
	return nil
}

// MongoRecorder writes journey events straight into the store. The background
// worker uses it to consume RecordPayload tasks; tests use it to skip the
// queue entirely.
type MongoRecorder struct {
	db *mongo.Database
}

// NewMongoRecorder creates a Recorder writing directly to MongoDB.
func NewMongoRecorder(db *mongo.Database) *MongoRecorder {
	return &MongoRecorder{db: db}
}

func (r *MongoRecorder) Record(ctx context.Context, propertyID, userID string, action models.JourneyAction, metadata map[string]string) error {
	return r.Insert(ctx, RecordPayload{
		PropertyID: propertyID,
		UserID:     userID,
		Action:     action,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
}

// Insert persists one journey event document.
func (r *MongoRecorder) Insert(ctx context.Context, p RecordPayload) error {
	event := models.JourneyEvent{
		ID:         uuid.NewString(),
		PropertyID: p.PropertyID,
		UserID:     p.UserID,
		Action:     p.Action,
		Metadata:   p.Metadata,
		CreatedAt:  p.OccurredAt,
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.Collection(EventsCollection).InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert journey event: %w", err)
	}
	return nil
}
