package calendar

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// googleClient implements Client against the Google Calendar API, creating
// events with a Meet conference attached.
type googleClient struct {
	service    *gcal.Service
	calendarID string
}

// NewGoogleClient creates a Google Calendar API client from a service-account
// credentials file. calendarID is the calendar the events are created under
// (usually the organizer's email).
func NewGoogleClient(ctx context.Context, credentialsFile, calendarID string) (Client, error) {
	service, err := gcal.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &googleClient{service: service, calendarID: calendarID}, nil
}

// CreateMeeting creates a calendar event with a Meet link and invites the
// attendees.
func (g *googleClient) CreateMeeting(ctx context.Context, summary, description string, start, end time.Time, attendees []string) (*Meeting, error) {
	event := &gcal.Event{
		Summary:     summary,
		Description: description,
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}
	for _, email := range attendees {
		event.Attendees = append(event.Attendees, &gcal.EventAttendee{Email: email})
	}

	created, err := g.service.Events.Insert(g.calendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}

	meeting := &Meeting{EventID: created.Id, JoinLink: created.HangoutLink}
	if meeting.JoinLink == "" && created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				meeting.JoinLink = ep.Uri
				break
			}
		}
	}
	return meeting, nil
}

// DeleteMeeting removes a previously created event. Best effort: a failure is
// logged and reported as false, never escalated.
func (g *googleClient) DeleteMeeting(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return false
	}
	if err := g.service.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		log.Printf("Failed to delete calendar event %s: %v", eventID, err)
		return false
	}
	return true
}
