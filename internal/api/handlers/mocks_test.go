package handlers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"casaflow/pm/internal/api/middleware"
	"casaflow/pm/internal/models"
)

// --- Mocks ---

// MockOpportunityService implements services.IOpportunityService.
type MockOpportunityService struct {
	mock.Mock
}

func (m *MockOpportunityService) CreateRequest(ctx context.Context, userID, propertyID string, desiredMoveIn *time.Time, contactMethod models.ContactMethod, notes string) (*models.OpportunityRequest, error) {
	args := m.Called(ctx, userID, propertyID, desiredMoveIn, contactMethod, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OpportunityRequest), args.Error(1)
}

func (m *MockOpportunityService) ScheduleVisit(ctx context.Context, requestID, callerID string, date time.Time, apptType models.AppointmentType, notes string) (*models.Appointment, error) {
	args := m.Called(ctx, requestID, callerID, date, apptType, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockOpportunityService) CompleteVisit(ctx context.Context, requestID string) (*models.OpportunityRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OpportunityRequest), args.Error(1)
}

func (m *MockOpportunityService) CountActiveRequests(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOpportunityService) FindActiveRequestByProperty(ctx context.Context, userID, propertyID string) (*models.OpportunityRequest, error) {
	args := m.Called(ctx, userID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OpportunityRequest), args.Error(1)
}

func (m *MockOpportunityService) ListUserOpportunities(ctx context.Context, userID string) ([]models.EnrichedOpportunity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EnrichedOpportunity), args.Error(1)
}

func (m *MockOpportunityService) ListInterestedClients(ctx context.Context, ownerID string) ([]models.InterestedClient, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InterestedClient), args.Error(1)
}

// MockOfferService implements services.IOfferService.
type MockOfferService struct {
	mock.Mock
}

func (m *MockOfferService) SubmitOffer(ctx context.Context, requestID, callerID string, amount float64, notes string) (*models.Offer, error) {
	args := m.Called(ctx, requestID, callerID, amount, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *MockOfferService) CounterOffer(ctx context.Context, offerID string, counterAmount float64, notes string) (*models.Offer, error) {
	args := m.Called(ctx, offerID, counterAmount, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *MockOfferService) AcceptOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *MockOfferService) RejectOffer(ctx context.Context, offerID string, notes string) (*models.Offer, error) {
	args := m.Called(ctx, offerID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

// asUser injects the authenticated caller into the Gin context the same way
// AuthMiddleware does.
func asUser(userID string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Set(middleware.ContextKeyRole, role)
		c.Next()
	}
}
