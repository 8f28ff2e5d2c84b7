package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs a write and returns an error if it fails.
type Operation func() error

const DefaultMaxRetries = 3

// Try executes an operation, retrying on transient transaction errors up to
// DefaultMaxRetries times. Duplicate-key errors are never retried: for this
// pipeline they mean a store constraint fired (one offer per request, quota
// doc collision) and must surface to the caller.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries)
}

// WithRetries executes an operation up to 1+maxRetries times with a small
// incremental backoff between attempts.
func WithRetries(op Operation, maxRetries int) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if IsMongoDuplicateKeyError(err) || !isTransient(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// isTransient reports whether the error is a Mongo-labeled transient error
// (write conflicts inside transactions, failovers) worth retrying.
func isTransient(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key
// error (code 11000), including inside write and bulk-write exceptions.
func IsMongoDuplicateKeyError(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
