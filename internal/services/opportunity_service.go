package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"casaflow/pm/internal/calendar"
	"casaflow/pm/internal/config"
	"casaflow/pm/internal/db"
	"casaflow/pm/internal/journey"
	"casaflow/pm/internal/models"
)

// IOpportunityService owns the OpportunityRequest state machine and the
// appointment scheduling that hangs off it.
type IOpportunityService interface {
	CreateRequest(ctx context.Context, userID, propertyID string, desiredMoveIn *time.Time, contactMethod models.ContactMethod, notes string) (*models.OpportunityRequest, error)
	ScheduleVisit(ctx context.Context, requestID, callerID string, date time.Time, apptType models.AppointmentType, notes string) (*models.Appointment, error)
	CompleteVisit(ctx context.Context, requestID string) (*models.OpportunityRequest, error)
	CountActiveRequests(ctx context.Context, userID string) (int64, error)
	FindActiveRequestByProperty(ctx context.Context, userID, propertyID string) (*models.OpportunityRequest, error)
	ListUserOpportunities(ctx context.Context, userID string) ([]models.EnrichedOpportunity, error)
	ListInterestedClients(ctx context.Context, ownerID string) ([]models.InterestedClient, error)
}

const (
	requestsCollection     = "opportunity_requests"
	appointmentsCollection = "appointments"

	visitDuration = 45 * time.Minute
)

// opportunityService implements IOpportunityService.
type opportunityService struct {
	db        *mongo.Database
	cfg       *config.Config
	calClient calendar.Client // nil disables the calendar integration
	recorder  journey.Recorder
	directory IDirectoryService
}

// NewOpportunityService creates a new OpportunityService.
func NewOpportunityService(database *mongo.Database, cfg *config.Config, calClient calendar.Client, recorder journey.Recorder, directory IDirectoryService) IOpportunityService {
	return &opportunityService{
		db:        database,
		cfg:       cfg,
		calClient: calClient,
		recorder:  recorder,
		directory: directory,
	}
}

// activeStatuses are the states that count toward the per-user quota.
var activeStatuses = []models.RequestStatus{
	models.RequestStatusPending,
	models.RequestStatusScheduledVisit,
}

// CreateRequest inserts a pending opportunity request, enforcing the per-user
// cap on active requests.
//
// The cap is enforced through a conditional update on a per-user counter
// document rather than a count-then-insert sequence: two concurrent callers
// both race on the same counter doc, and the one that would push it past the
// limit gets a non-matching filter (or a duplicate _id on the upsert path)
// instead of a successful write.
func (s *opportunityService) CreateRequest(ctx context.Context, userID, propertyID string, desiredMoveIn *time.Time, contactMethod models.ContactMethod, notes string) (*models.OpportunityRequest, error) {
	if propertyID == "" {
		return nil, fmt.Errorf("%w: property id is required", ErrValidation)
	}
	if contactMethod == "" {
		contactMethod = models.ContactMethodEmail
	}

	// Resolve the property first so a bad id never burns quota.
	if _, err := s.directory.FindPropertyByID(ctx, propertyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := &models.OpportunityRequest{
		ID:            uuid.NewString(),
		PropertyID:    propertyID,
		UserID:        userID,
		Status:        models.RequestStatusPending,
		DesiredMoveIn: desiredMoveIn,
		ContactMethod: contactMethod,
		Notes:         notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		if err := acquireQuotaSlot(sc, s.db, userID, s.cfg.MaxActiveRequests); err != nil {
			return err
		}
		if _, err := s.db.Collection(requestsCollection).InsertOne(sc, request); err != nil {
			return fmt.Errorf("failed to insert opportunity request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, propertyID, userID, models.JourneyActionRequestOpportunity, map[string]string{
		"request_id": request.ID,
	})
	return request, nil
}

// findOwnedRequest loads a request and checks it belongs to the caller.
// Ownership failures look exactly like missing records.
func (s *opportunityService) findOwnedRequest(ctx context.Context, requestID, callerID string) (*models.OpportunityRequest, error) {
	var request models.OpportunityRequest
	err := s.db.Collection(requestsCollection).FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("opportunity request %s: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding opportunity request %s: %w", requestID, err)
	}
	if callerID != "" && request.UserID != callerID {
		return nil, fmt.Errorf("opportunity request %s: %w", requestID, ErrNotFound)
	}
	return &request, nil
}

// ScheduleVisit creates the appointment for a pending request and flips the
// request to scheduled_visit. For video visits the calendar provider is
// called first, within a bounded context; provider failure degrades the
// appointment to one without a meeting link rather than blocking the visit.
func (s *opportunityService) ScheduleVisit(ctx context.Context, requestID, callerID string, date time.Time, apptType models.AppointmentType, notes string) (*models.Appointment, error) {
	if apptType != models.AppointmentTypeInPerson && apptType != models.AppointmentTypeVideo {
		return nil, fmt.Errorf("%w: unknown appointment type %q", ErrValidation, apptType)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: visit date is required", ErrValidation)
	}

	request, err := s.findOwnedRequest(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}
	switch request.Status {
	case models.RequestStatusPending:
		// proceed
	case models.RequestStatusScheduledVisit:
		return nil, fmt.Errorf("%w: visit already scheduled for request %s", ErrInvalidTransition, requestID)
	default:
		return nil, fmt.Errorf("%w: request %s is %s, expected pending", ErrInvalidTransition, requestID, request.Status)
	}

	appointment := &models.Appointment{
		ID:                   uuid.NewString(),
		PropertyID:           request.PropertyID,
		ClientID:             request.UserID,
		OpportunityRequestID: request.ID,
		Date:                 date.UTC(),
		Type:                 apptType,
		Status:               models.AppointmentStatusScheduled,
		Notes:                notes,
		CreatedAt:            time.Now().UTC(),
	}

	if apptType == models.AppointmentTypeVideo {
		if meeting := s.createMeeting(ctx, request, date); meeting != nil {
			appointment.MeetLink = meeting.JoinLink
			appointment.GoogleEventID = meeting.EventID
		}
	}

	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(requestsCollection).UpdateOne(sc,
			bson.M{"_id": request.ID, "status": models.RequestStatusPending},
			bson.M{"$set": bson.M{"status": models.RequestStatusScheduledVisit, "updated_at": time.Now().UTC()}},
		)
		if err != nil {
			return fmt.Errorf("failed to update request %s: %w", request.ID, err)
		}
		if res.ModifiedCount == 0 {
			// A concurrent caller scheduled first.
			return fmt.Errorf("%w: visit already scheduled for request %s", ErrInvalidTransition, request.ID)
		}
		if _, err := s.db.Collection(appointmentsCollection).InsertOne(sc, appointment); err != nil {
			if db.IsMongoDuplicateKeyError(err) {
				return fmt.Errorf("%w: visit already scheduled for request %s", ErrInvalidTransition, request.ID)
			}
			return fmt.Errorf("failed to insert appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		// The transaction rolled back; clean up the orphaned remote event.
		if appointment.GoogleEventID != "" && s.calClient != nil {
			s.calClient.DeleteMeeting(context.WithoutCancel(ctx), appointment.GoogleEventID)
		}
		return nil, err
	}

	s.record(ctx, request.PropertyID, request.UserID, models.JourneyActionViewLayer2, map[string]string{
		"request_id":     request.ID,
		"appointment_id": appointment.ID,
	})
	return appointment, nil
}

// createMeeting calls the calendar provider under the configured timeout.
// Any failure is logged and swallowed; the visit must not depend on the
// provider being up.
func (s *opportunityService) createMeeting(ctx context.Context, request *models.OpportunityRequest, date time.Time) *calendar.Meeting {
	if s.calClient == nil {
		return nil
	}

	timeout := s.cfg.CalendarTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	calCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var attendees []string
	if user, err := s.directory.FindUserByID(calCtx, request.UserID); err == nil {
		attendees = append(attendees, user.Email)
	}

	summary := "Property visit"
	if property, err := s.directory.FindPropertyByID(calCtx, request.PropertyID); err == nil {
		summary = fmt.Sprintf("Property visit: %s", property.Title)
	}

	meeting, err := s.calClient.CreateMeeting(calCtx, summary,
		fmt.Sprintf("Video visit for opportunity request %s", request.ID),
		date, date.Add(visitDuration), attendees)
	if err != nil {
		log.Printf("Calendar provider unavailable for request %s, scheduling without meeting link: %v", request.ID, err)
		return nil
	}
	return meeting
}

// CompleteVisit marks a scheduled visit as done, making the request eligible
// for offers via the visit_completed state. Property-side operation; the
// request leaves the active quota set here.
func (s *opportunityService) CompleteVisit(ctx context.Context, requestID string) (*models.OpportunityRequest, error) {
	request, err := s.findOwnedRequest(ctx, requestID, "")
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusScheduledVisit {
		return nil, fmt.Errorf("%w: request %s is %s, expected scheduled_visit", ErrInvalidTransition, requestID, request.Status)
	}

	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(requestsCollection).UpdateOne(sc,
			bson.M{"_id": request.ID, "status": models.RequestStatusScheduledVisit},
			bson.M{"$set": bson.M{"status": models.RequestStatusVisitCompleted, "updated_at": time.Now().UTC()}},
		)
		if err != nil {
			return fmt.Errorf("failed to update request %s: %w", request.ID, err)
		}
		if res.ModifiedCount == 0 {
			return fmt.Errorf("%w: request %s is no longer scheduled_visit", ErrInvalidTransition, request.ID)
		}
		return releaseQuotaSlot(sc, s.db, request.UserID)
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.RequestStatusVisitCompleted
	return request, nil
}

// CountActiveRequests returns how many of the user's requests currently count
// toward the quota.
func (s *opportunityService) CountActiveRequests(ctx context.Context, userID string) (int64, error) {
	count, err := s.db.Collection(requestsCollection).CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": activeStatuses},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active requests for user %s: %w", userID, err)
	}
	return count, nil
}

// FindActiveRequestByProperty returns the user's active request for a
// property, if any.
func (s *opportunityService) FindActiveRequestByProperty(ctx context.Context, userID, propertyID string) (*models.OpportunityRequest, error) {
	var request models.OpportunityRequest
	err := s.db.Collection(requestsCollection).FindOne(ctx, bson.M{
		"user_id":     userID,
		"property_id": propertyID,
		"status":      bson.M{"$in": activeStatuses},
	}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("no active request for property %s: %w", propertyID, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding active request for property %s: %w", propertyID, err)
	}
	return &request, nil
}

// ListUserOpportunities enumerates the user's requests, newest first, each
// joined with its appointment and offer. The store allows stray duplicates of
// neither, but selection is still deterministic: newest document wins.
func (s *opportunityService) ListUserOpportunities(ctx context.Context, userID string) ([]models.EnrichedOpportunity, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(requestsCollection).Find(ctx, bson.M{"user_id": userID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var result []models.EnrichedOpportunity
	for cursor.Next(ctx) {
		var request models.OpportunityRequest
		if err := cursor.Decode(&request); err != nil {
			return nil, fmt.Errorf("error decoding request: %w", err)
		}

		enriched := models.EnrichedOpportunity{Request: request}

		one := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
		var appointment models.Appointment
		err := s.db.Collection(appointmentsCollection).FindOne(ctx,
			bson.M{"opportunity_request_id": request.ID}, one).Decode(&appointment)
		if err == nil {
			enriched.Appointment = &appointment
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("error finding appointment for request %s: %w", request.ID, err)
		}

		var offer models.Offer
		err = s.db.Collection(offersCollection).FindOne(ctx,
			bson.M{"opportunity_request_id": request.ID}, one).Decode(&offer)
		if err == nil {
			enriched.Offer = &offer
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("error finding offer for request %s: %w", request.ID, err)
		}

		result = append(result, enriched)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests for user %s: %w", userID, err)
	}
	return result, nil
}

// ListInterestedClients enumerates clients holding requests against any of
// the owner's properties. The projection is a privacy boundary: identity,
// name, and the saved search-preference summary only, never contact fields.
func (s *opportunityService) ListInterestedClients(ctx context.Context, ownerID string) ([]models.InterestedClient, error) {
	propertyIDs, err := s.directory.FindPropertyIDsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(propertyIDs) == 0 {
		return nil, nil
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(requestsCollection).Find(ctx,
		bson.M{"property_id": bson.M{"$in": propertyIDs}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for owner %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	var requests []models.OpportunityRequest
	userIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for cursor.Next(ctx) {
		var request models.OpportunityRequest
		if err := cursor.Decode(&request); err != nil {
			return nil, fmt.Errorf("error decoding request: %w", err)
		}
		requests = append(requests, request)
		if _, ok := seen[request.UserID]; !ok {
			seen[request.UserID] = struct{}{}
			userIDs = append(userIDs, request.UserID)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests for owner %s: %w", ownerID, err)
	}

	users, err := s.directory.FindUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	clients := make([]models.InterestedClient, 0, len(requests))
	for _, request := range requests {
		client := models.InterestedClient{
			UserID:        request.UserID,
			PropertyID:    request.PropertyID,
			RequestID:     request.ID,
			RequestStatus: request.Status,
		}
		if user, ok := users[request.UserID]; ok {
			client.Name = user.Name
			client.SearchPreferences = user.SearchPreferences
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// record appends a journey event, logging and swallowing any failure.
func (s *opportunityService) record(ctx context.Context, propertyID, userID string, action models.JourneyAction, metadata map[string]string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, propertyID, userID, action, metadata); err != nil {
		log.Printf("Failed to record journey event %s for user %s: %v", action, userID, err)
	}
}
