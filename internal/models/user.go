package models

import (
	"time"
)

// Role determines which side of a negotiation a user may act on.
type Role string

const (
	RoleTenant Role = "tenant"
	RoleOwner  Role = "owner"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// User is the read model over the surrounding application's user directory.
// The pipeline never writes users; it only resolves identities and roles.
type User struct {
	ID                string    `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string    `bson:"name" json:"name"`
	Email             string    `bson:"email" json:"email"`
	Role              Role      `bson:"role" json:"role"`
	SearchPreferences string    `bson:"search_preferences,omitempty" json:"search_preferences,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}

// InterestedClient is the privacy-filtered projection of a user who holds an
// opportunity request against one of an owner's properties. Contact fields
// are deliberately absent.
type InterestedClient struct {
	UserID            string        `json:"user_id"`
	Name              string        `json:"name"`
	SearchPreferences string        `json:"search_preferences,omitempty"`
	PropertyID        string        `json:"property_id"`
	RequestID         string        `json:"request_id"`
	RequestStatus     RequestStatus `json:"request_status"`
}
