package models

import (
	"time"
)

// AppointmentType distinguishes in-person visits from video calls.
type AppointmentType string

const (
	AppointmentTypeInPerson AppointmentType = "in_person"
	AppointmentTypeVideo    AppointmentType = "video"
)

// AppointmentStatus is the lifecycle state of an Appointment. The pipeline
// only ever creates appointments as scheduled; later mutations belong to the
// general appointment-management surface.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a property visit. OpportunityRequestID is set only
// for visits scheduled out of an opportunity request; appointments may exist
// outside that pipeline, so the field is optional.
type Appointment struct {
	ID                   string            `bson:"_id,omitempty" json:"id,omitempty"`
	PropertyID           string            `bson:"property_id" json:"property_id"`
	ClientID             string            `bson:"client_id" json:"client_id"`
	OpportunityRequestID string            `bson:"opportunity_request_id,omitempty" json:"opportunity_request_id,omitempty"`
	Date                 time.Time         `bson:"date" json:"date"`
	Type                 AppointmentType   `bson:"type" json:"type"`
	Status               AppointmentStatus `bson:"status" json:"status"`
	MeetLink             string            `bson:"meet_link,omitempty" json:"meet_link,omitempty"`
	GoogleEventID        string            `bson:"google_event_id,omitempty" json:"google_event_id,omitempty"`
	Notes                string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt            time.Time         `bson:"created_at" json:"created_at"`
}
