package models

import (
	"time"
)

// OfferStatus is the negotiation state of an Offer.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
)

// Offer is the single offer a requester may submit against an opportunity
// request. CounterOfferNotes doubles as the rejection rationale when the
// property side rejects outright.
type Offer struct {
	ID                   string      `bson:"_id,omitempty" json:"id,omitempty"`
	OpportunityRequestID string      `bson:"opportunity_request_id" json:"opportunity_request_id"`
	PropertyID           string      `bson:"property_id" json:"property_id"`
	ClientID             string      `bson:"client_id" json:"client_id"`
	AppointmentID        string      `bson:"appointment_id,omitempty" json:"appointment_id,omitempty"`
	OfferAmount          float64     `bson:"offer_amount" json:"offer_amount"`
	CounterOfferAmount   *float64    `bson:"counter_offer_amount,omitempty" json:"counter_offer_amount,omitempty"`
	CounterOfferNotes    string      `bson:"counter_offer_notes,omitempty" json:"counter_offer_notes,omitempty"`
	Status               OfferStatus `bson:"status" json:"status"`
	Notes                string      `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt            time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `bson:"updated_at" json:"updated_at"`
}
