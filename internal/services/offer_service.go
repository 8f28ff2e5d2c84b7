package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"casaflow/pm/internal/config"
	"casaflow/pm/internal/db"
	"casaflow/pm/internal/journey"
	"casaflow/pm/internal/models"
)

// IOfferService owns the Offer lifecycle: the requester's single submission
// and the property side's counter/accept/reject transitions.
type IOfferService interface {
	SubmitOffer(ctx context.Context, requestID, callerID string, amount float64, notes string) (*models.Offer, error)
	CounterOffer(ctx context.Context, offerID string, counterAmount float64, notes string) (*models.Offer, error)
	AcceptOffer(ctx context.Context, offerID string) (*models.Offer, error)
	RejectOffer(ctx context.Context, offerID string, notes string) (*models.Offer, error)
}

const offersCollection = "offers"

// offerService implements IOfferService.
type offerService struct {
	db       *mongo.Database
	cfg      *config.Config
	recorder journey.Recorder
}

// NewOfferService creates a new OfferService.
func NewOfferService(database *mongo.Database, cfg *config.Config, recorder journey.Recorder) IOfferService {
	return &offerService{db: database, cfg: cfg, recorder: recorder}
}

// offerSourceStatuses are the request states an offer may be submitted from.
// scheduled_visit is accepted alongside visit_completed: offers are allowed
// as soon as a visit is on the books, without waiting for the complete-visit
// step.
var offerSourceStatuses = []models.RequestStatus{
	models.RequestStatusScheduledVisit,
	models.RequestStatusVisitCompleted,
}

// SubmitOffer creates the single offer for a request and flips the request to
// offer_submitted. The one-offer-per-request rule is backed by the unique
// index on opportunity_request_id, so a retry or a concurrent duplicate fails
// on the insert itself, not just on the pre-check.
func (s *offerService) SubmitOffer(ctx context.Context, requestID, callerID string, amount float64, notes string) (*models.Offer, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: offer amount must be positive", ErrValidation)
	}

	var request models.OpportunityRequest
	err := s.db.Collection(requestsCollection).FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("opportunity request %s: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding opportunity request %s: %w", requestID, err)
	}
	if request.UserID != callerID {
		return nil, fmt.Errorf("opportunity request %s: %w", requestID, ErrNotFound)
	}

	sourceOK := false
	for _, status := range offerSourceStatuses {
		if request.Status == status {
			sourceOK = true
			break
		}
	}
	if !sourceOK {
		return nil, fmt.Errorf("%w: request %s is %s", ErrVisitNotCompleted, requestID, request.Status)
	}

	count, err := s.db.Collection(offersCollection).CountDocuments(ctx, bson.M{"opportunity_request_id": requestID})
	if err != nil {
		return nil, fmt.Errorf("error checking existing offers for request %s: %w", requestID, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("request %s: %w", requestID, ErrDuplicateOffer)
	}

	// Link the appointment for traceability, if the request has one.
	appointmentID := ""
	var appointment models.Appointment
	err = s.db.Collection(appointmentsCollection).FindOne(ctx, bson.M{"opportunity_request_id": requestID}).Decode(&appointment)
	if err == nil {
		appointmentID = appointment.ID
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error finding appointment for request %s: %w", requestID, err)
	}

	now := time.Now().UTC()
	offer := &models.Offer{
		ID:                   uuid.NewString(),
		OpportunityRequestID: request.ID,
		PropertyID:           request.PropertyID,
		ClientID:             request.UserID,
		AppointmentID:        appointmentID,
		OfferAmount:          amount,
		Status:               models.OfferStatusPending,
		Notes:                notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		if _, err := s.db.Collection(offersCollection).InsertOne(sc, offer); err != nil {
			if db.IsMongoDuplicateKeyError(err) {
				return fmt.Errorf("request %s: %w", request.ID, ErrDuplicateOffer)
			}
			return fmt.Errorf("failed to insert offer: %w", err)
		}
		// The release decision comes from the request's status at commit
		// time, not the read above: a visit completion landing in between
		// already returned the slot.
		var before models.OpportunityRequest
		err := s.db.Collection(requestsCollection).FindOneAndUpdate(sc,
			bson.M{"_id": request.ID, "status": bson.M{"$in": offerSourceStatuses}},
			bson.M{"$set": bson.M{"status": models.RequestStatusOfferSubmitted, "updated_at": time.Now().UTC()}},
			options.FindOneAndUpdate().SetReturnDocument(options.Before),
		).Decode(&before)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return fmt.Errorf("%w: request %s left the offer stage", ErrInvalidTransition, request.ID)
			}
			return fmt.Errorf("failed to update request %s: %w", request.ID, err)
		}
		if before.Status == models.RequestStatusScheduledVisit {
			// Leaving scheduled_visit releases the active-quota slot.
			return releaseQuotaSlot(sc, s.db, request.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, request.PropertyID, request.UserID, models.JourneyActionSubmitOffer, map[string]string{
		"request_id": request.ID,
		"offer_id":   offer.ID,
		"amount":     strconv.FormatFloat(amount, 'f', 2, 64),
	})
	return offer, nil
}

// findOffer loads an offer by id.
func (s *offerService) findOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.Collection(offersCollection).FindOne(ctx, bson.M{"_id": offerID}).Decode(&offer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("offer %s: %w", offerID, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding offer %s: %w", offerID, err)
	}
	return &offer, nil
}

// CounterOffer records the property side's counter against a pending offer
// and moves the linked request into negotiation.
func (s *offerService) CounterOffer(ctx context.Context, offerID string, counterAmount float64, notes string) (*models.Offer, error) {
	if counterAmount <= 0 {
		return nil, fmt.Errorf("%w: counter amount must be positive", ErrValidation)
	}

	offer, err := s.findOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status != models.OfferStatusPending {
		return nil, fmt.Errorf("%w: offer %s is %s, only pending offers can be countered", ErrInvalidTransition, offerID, offer.Status)
	}

	now := time.Now().UTC()
	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(offersCollection).UpdateOne(sc,
			bson.M{"_id": offerID, "status": models.OfferStatusPending},
			bson.M{"$set": bson.M{
				"status":               models.OfferStatusCountered,
				"counter_offer_amount": counterAmount,
				"counter_offer_notes":  notes,
				"updated_at":           now,
			}},
		)
		if err != nil {
			return fmt.Errorf("failed to update offer %s: %w", offerID, err)
		}
		if res.ModifiedCount == 0 {
			return fmt.Errorf("%w: offer %s is no longer pending", ErrInvalidTransition, offerID)
		}
		return s.flipLinkedRequest(sc, offer.OpportunityRequestID, models.RequestStatusOfferNegotiation)
	})
	if err != nil {
		return nil, err
	}

	offer.Status = models.OfferStatusCountered
	offer.CounterOfferAmount = &counterAmount
	offer.CounterOfferNotes = notes
	offer.UpdatedAt = now

	s.record(ctx, offer.PropertyID, offer.ClientID, models.JourneyActionCounterOffer, map[string]string{
		"offer_id":       offer.ID,
		"counter_amount": strconv.FormatFloat(counterAmount, 'f', 2, 64),
	})
	return offer, nil
}

// AcceptOffer moves an offer into the accepted terminal state. Idempotency
// guard: a second call reports ErrAlreadyAccepted and changes nothing. Any
// non-accepted status, including rejected, is a valid source state.
func (s *offerService) AcceptOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	offer, err := s.findOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status == models.OfferStatusAccepted {
		return nil, fmt.Errorf("offer %s: %w", offerID, ErrAlreadyAccepted)
	}

	now := time.Now().UTC()
	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(offersCollection).UpdateOne(sc,
			bson.M{"_id": offerID, "status": bson.M{"$ne": models.OfferStatusAccepted}},
			bson.M{"$set": bson.M{"status": models.OfferStatusAccepted, "updated_at": now}},
		)
		if err != nil {
			return fmt.Errorf("failed to update offer %s: %w", offerID, err)
		}
		if res.ModifiedCount == 0 {
			return fmt.Errorf("offer %s: %w", offerID, ErrAlreadyAccepted)
		}
		return s.flipLinkedRequest(sc, offer.OpportunityRequestID, models.RequestStatusOfferAccepted)
	})
	if err != nil {
		return nil, err
	}

	offer.Status = models.OfferStatusAccepted
	offer.UpdatedAt = now

	s.record(ctx, offer.PropertyID, offer.ClientID, models.JourneyActionAcceptOffer, map[string]string{
		"offer_id": offer.ID,
	})
	return offer, nil
}

// RejectOffer moves an offer into the rejected terminal state. The rejection
// rationale, when given, is stored alongside any earlier counter notes.
func (s *offerService) RejectOffer(ctx context.Context, offerID string, notes string) (*models.Offer, error) {
	offer, err := s.findOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status == models.OfferStatusAccepted {
		return nil, fmt.Errorf("offer %s: %w", offerID, ErrCannotRejectAccepted)
	}

	now := time.Now().UTC()
	set := bson.M{"status": models.OfferStatusRejected, "updated_at": now}
	if notes != "" {
		set["counter_offer_notes"] = notes
	}

	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(offersCollection).UpdateOne(sc,
			bson.M{"_id": offerID, "status": bson.M{"$ne": models.OfferStatusAccepted}},
			bson.M{"$set": set},
		)
		if err != nil {
			return fmt.Errorf("failed to update offer %s: %w", offerID, err)
		}
		if res.ModifiedCount == 0 {
			return fmt.Errorf("offer %s: %w", offerID, ErrCannotRejectAccepted)
		}
		return s.flipLinkedRequest(sc, offer.OpportunityRequestID, models.RequestStatusRejected)
	})
	if err != nil {
		return nil, err
	}

	offer.Status = models.OfferStatusRejected
	if notes != "" {
		offer.CounterOfferNotes = notes
	}
	offer.UpdatedAt = now

	s.record(ctx, offer.PropertyID, offer.ClientID, models.JourneyActionRejectOffer, map[string]string{
		"offer_id": offer.ID,
	})
	return offer, nil
}

// flipLinkedRequest moves the offer's request, when one is linked, into the
// given status.
func (s *offerService) flipLinkedRequest(ctx context.Context, requestID string, status models.RequestStatus) error {
	if requestID == "" {
		return nil
	}
	_, err := s.db.Collection(requestsCollection).UpdateOne(ctx,
		bson.M{"_id": requestID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update linked request %s: %w", requestID, err)
	}
	return nil
}

// record appends a journey event, logging and swallowing any failure.
func (s *offerService) record(ctx context.Context, propertyID, userID string, action models.JourneyAction, metadata map[string]string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, propertyID, userID, action, metadata); err != nil {
		log.Printf("Failed to record journey event %s for user %s: %v", action, userID, err)
	}
}
