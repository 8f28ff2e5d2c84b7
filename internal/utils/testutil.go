package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoURI is resolved once per test binary, from the environment or the
// project root .env.
var mongoURI = resolveMongoURI()

func resolveMongoURI() string {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}
	_, thisFile, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(thisFile), "..", "..")
	_ = godotenv.Load(filepath.Join(root, ".env"))
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}
	panic("MONGO_URI environment variable is required for tests")
}

// SetupTestDB connects to the test MongoDB deployment and returns the named
// database with the given collections dropped for a clean state. The
// deployment must be a replica set: the pipeline's write paths run inside
// multi-document transactions.
func SetupTestDB(t *testing.T, dbName string, collections ...string) *mongo.Database {
	t.Helper()

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	require.NoError(t, err, "Failed to connect to MongoDB")

	db := client.Database(dbName)
	for _, name := range collections {
		_ = db.Collection(name).Drop(context.Background())
	}
	return db
}
