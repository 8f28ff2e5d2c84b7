package models

import (
	"time"
)

// Property is the read model over the surrounding application's property
// directory. Read-only from the pipeline's perspective.
type Property struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	Title     string    `bson:"title" json:"title"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
