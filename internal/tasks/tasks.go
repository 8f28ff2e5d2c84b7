package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"casaflow/pm/internal/config"
	"casaflow/pm/internal/journey"
)

// --- Task Client (Enqueuing tasks) ---

// NewClient creates an asynq client on the same Redis the worker reads from.
func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of background tasks. The only task the
// pipeline produces is journey recording; the processor drains the queue and
// persists events to the append-only log.
type TaskProcessor struct {
	cfg    *config.Config
	writer *journey.MongoRecorder
}

// NewTaskProcessor creates a TaskProcessor with its dependencies.
func NewTaskProcessor(cfg *config.Config, db *mongo.Database) *TaskProcessor {
	return &TaskProcessor{
		cfg:    cfg,
		writer: journey.NewMongoRecorder(db),
	}
}

// HandleJourneyRecord persists one journey event from its task payload.
func (p *TaskProcessor) HandleJourneyRecord(ctx context.Context, t *asynq.Task) error {
	var payload journey.RecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads can never succeed; don't let asynq retry them.
		return fmt.Errorf("invalid journey payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.writer.Insert(ctx, payload); err != nil {
		return fmt.Errorf("failed to persist journey event for user %s: %w", payload.UserID, err)
	}
	return nil
}

// NewServer builds the asynq server and mux for the worker process.
func NewServer(cfg *config.Config, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: 5,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				// Journey recording is best effort; failures are logged, never escalated.
				log.Printf("Task %s failed: %v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(journey.TypeRecord, processor.HandleJourneyRecord)

	return srv, mux
}
