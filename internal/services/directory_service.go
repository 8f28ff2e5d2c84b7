package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"casaflow/pm/internal/models"
)

// IDirectoryService is the read-only contract with the surrounding
// application's user and property directories. The pipeline resolves
// identities through it and never writes back.
type IDirectoryService interface {
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	FindPropertyByID(ctx context.Context, propertyID string) (*models.Property, error)
	FindPropertyIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	FindUsersByIDs(ctx context.Context, userIDs []string) (map[string]models.User, error)
}

const (
	usersCollection      = "users"
	propertiesCollection = "properties"
)

// directoryService implements IDirectoryService over the shared collections.
type directoryService struct {
	db *mongo.Database
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(db *mongo.Database) IDirectoryService {
	return &directoryService{db: db}
}

func (s *directoryService) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding user %s: %w", userID, err)
	}
	return &user, nil
}

func (s *directoryService) FindPropertyByID(ctx context.Context, propertyID string) (*models.Property, error) {
	var property models.Property
	err := s.db.Collection(propertiesCollection).FindOne(ctx, bson.M{"_id": propertyID}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("property %s: %w", propertyID, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding property %s: %w", propertyID, err)
	}
	return &property, nil
}

func (s *directoryService) FindPropertyIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	cursor, err := s.db.Collection(propertiesCollection).Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("error finding properties for owner %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var property models.Property
		if err := cursor.Decode(&property); err != nil {
			return nil, fmt.Errorf("error decoding property: %w", err)
		}
		ids = append(ids, property.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties for owner %s: %w", ownerID, err)
	}
	return ids, nil
}

func (s *directoryService) FindUsersByIDs(ctx context.Context, userIDs []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("error finding users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, fmt.Errorf("error decoding user: %w", err)
		}
		users[user.ID] = user
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
