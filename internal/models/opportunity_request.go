package models

import (
	"time"
)

// RequestStatus is the lifecycle state of an OpportunityRequest.
type RequestStatus string

const (
	RequestStatusPending          RequestStatus = "pending"
	RequestStatusScheduledVisit   RequestStatus = "scheduled_visit"
	RequestStatusVisitCompleted   RequestStatus = "visit_completed"
	RequestStatusOfferSubmitted   RequestStatus = "offer_submitted"
	RequestStatusOfferNegotiation RequestStatus = "offer_negotiation"
	RequestStatusOfferAccepted    RequestStatus = "offer_accepted"
	RequestStatusRejected         RequestStatus = "rejected"
)

// IsActive reports whether the status counts toward the per-user quota.
func (s RequestStatus) IsActive() bool {
	return s == RequestStatusPending || s == RequestStatusScheduledVisit
}

// IsTerminal reports whether no further transition is possible.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusOfferAccepted || s == RequestStatusRejected
}

// ContactMethod is how the prospective tenant prefers to be reached.
type ContactMethod string

const (
	ContactMethodEmail    ContactMethod = "email"
	ContactMethodPhone    ContactMethod = "phone"
	ContactMethodWhatsapp ContactMethod = "whatsapp"
)

// OpportunityRequest records a user's statement of interest in renting a
// property. Requests are never deleted, only transitioned forward.
type OpportunityRequest struct {
	ID             string        `bson:"_id,omitempty" json:"id,omitempty"`
	PropertyID     string        `bson:"property_id" json:"property_id"`
	UserID         string        `bson:"user_id" json:"user_id"`
	Status         RequestStatus `bson:"status" json:"status"`
	DesiredMoveIn  *time.Time    `bson:"desired_move_in,omitempty" json:"desired_move_in,omitempty"`
	ContactMethod  ContactMethod `bson:"contact_method" json:"contact_method"`
	Notes          string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at"`
}

// EnrichedOpportunity is an OpportunityRequest joined with its (at most one)
// appointment and offer, as returned by the my-rental-opportunities query.
type EnrichedOpportunity struct {
	Request     OpportunityRequest `json:"request"`
	Appointment *Appointment       `json:"appointment,omitempty"`
	Offer       *Offer             `json:"offer,omitempty"`
}
