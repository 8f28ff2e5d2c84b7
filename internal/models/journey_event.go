package models

import (
	"time"
)

// JourneyAction tags the pipeline step a journey event describes.
type JourneyAction string

const (
	JourneyActionRequestOpportunity JourneyAction = "request_opportunity"
	JourneyActionViewLayer2         JourneyAction = "view_layer2"
	JourneyActionSubmitOffer        JourneyAction = "submit_offer"
	JourneyActionCounterOffer       JourneyAction = "counter_offer"
	JourneyActionAcceptOffer        JourneyAction = "accept_offer"
	JourneyActionRejectOffer        JourneyAction = "reject_offer"
)

// JourneyEvent is an append-only audit record of a pipeline action. The
// pipeline writes these and never reads them back.
type JourneyEvent struct {
	ID         string            `bson:"_id,omitempty" json:"id,omitempty"`
	PropertyID string            `bson:"property_id" json:"property_id"`
	UserID     string            `bson:"user_id" json:"user_id"`
	Action     JourneyAction     `bson:"action" json:"action"`
	Metadata   map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time         `bson:"created_at" json:"created_at"`
}
