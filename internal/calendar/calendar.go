package calendar

import (
	"context"
	"time"
)

// Meeting is the result of a successful remote event creation.
type Meeting struct {
	EventID  string
	JoinLink string
}

// Client is the contract with the remote calendar provider. CreateMeeting
// returns (nil, err) on any provider failure; callers are expected to treat
// that as a degraded result, never as a reason to fail the visit.
type Client interface {
	CreateMeeting(ctx context.Context, summary, description string, start, end time.Time, attendees []string) (*Meeting, error)
	DeleteMeeting(ctx context.Context, eventID string) bool
}
