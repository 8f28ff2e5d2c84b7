package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"casaflow/pm/internal/calendar"
	"casaflow/pm/internal/models"
)

// --- Mocks ---

// MockCalendarClient implements calendar.Client.
type MockCalendarClient struct {
	mock.Mock
}

func (m *MockCalendarClient) CreateMeeting(ctx context.Context, summary, description string, start, end time.Time, attendees []string) (*calendar.Meeting, error) {
	args := m.Called(ctx, summary, description, start, end, attendees)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.Meeting), args.Error(1)
}

func (m *MockCalendarClient) DeleteMeeting(ctx context.Context, eventID string) bool {
	args := m.Called(ctx, eventID)
	return args.Bool(0)
}

// captureRecorder collects journey events in memory.
type captureRecorder struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	PropertyID string
	UserID     string
	Action     models.JourneyAction
	Metadata   map[string]string
}

func (r *captureRecorder) Record(ctx context.Context, propertyID, userID string, action models.JourneyAction, metadata map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, capturedEvent{
		PropertyID: propertyID,
		UserID:     userID,
		Action:     action,
		Metadata:   metadata,
	})
	return nil
}

func (r *captureRecorder) actions() []models.JourneyAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]models.JourneyAction, 0, len(r.events))
	for _, e := range r.events {
		actions = append(actions, e.Action)
	}
	return actions
}
