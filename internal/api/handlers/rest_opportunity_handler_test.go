package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"casaflow/pm/internal/api/handlers"
	"casaflow/pm/internal/models"
	"casaflow/pm/internal/services"
)

func newOpportunityRouter(opportunitySvc *MockOpportunityService, offerSvc *MockOfferService, userID string, role models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(userID, role))
	h := handlers.NewRestOpportunityHandler(opportunitySvc, offerSvc)
	r.POST("/rental-opportunity-requests", h.CreateRequest)
	r.GET("/rental-opportunity-requests/active-count", h.GetActiveCount)
	r.GET("/rental-opportunity-requests/by-property/:propertyId", h.GetActiveByProperty)
	r.GET("/my-rental-opportunities", h.ListMyOpportunities)
	r.POST("/rental-opportunity-requests/:sorId/schedule-visit", h.ScheduleVisit)
	r.POST("/rental-opportunity-requests/:sorId/submit-offer", h.SubmitOffer)
	return r
}

func TestRestOpportunityHandler_CreateRequest(t *testing.T) {
	opportunitySvc := &MockOpportunityService{}
	offerSvc := &MockOfferService{}
	r := newOpportunityRouter(opportunitySvc, offerSvc, "user-1", models.RoleTenant)

	expected := &models.OpportunityRequest{ID: "req-1", PropertyID: "prop-1", UserID: "user-1", Status: models.RequestStatusPending}
	opportunitySvc.On("CreateRequest", mock.Anything, "user-1", "prop-1", (*time.Time)(nil), models.ContactMethod("email"), "hello").
		Return(expected, nil)

	body, _ := json.Marshal(gin.H{"propertyId": "prop-1", "preferredContactMethod": "email", "notes": "hello"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rental-opportunity-requests", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var got models.OpportunityRequest
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "req-1", got.ID)
	opportunitySvc.AssertExpectations(t)
}

func TestRestOpportunityHandler_CreateRequest_QuotaExceeded(t *testing.T) {
	opportunitySvc := &MockOpportunityService{}
	offerSvc := &MockOfferService{}
	r := newOpportunityRouter(opportunitySvc, offerSvc, "user-1", models.RoleTenant)

	opportunitySvc.On("CreateRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, services.ErrQuotaExceeded)

	body, _ := json.Marshal(gin.H{"propertyId": "prop-1"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rental-opportunity-requests", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRestOpportunityHandler_CreateRequest_MissingProperty(t *testing.T) {
	opportunitySvc := &MockOpportunityService{}
	offerSvc := &MockOfferService{}
	r := newOpportunityRouter(opportunitySvc, offerSvc, "user-1", models.RoleTenant)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rental-opportunity-requests", bytes.NewReader([]byte(`{}`)))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	opportunitySvc.AssertNotCalled(t, "CreateRequest")
}

func TestRestOpportunityHandler_GetActiveCount(t *testing.T) {
	opportunitySvc := &MockOpportunityService{}
	offerSvc := &MockOfferService{}
	r := newOpportunityRouter(opportunitySvc, offerSvc, "user-1", models.RoleTenant)

	opportunitySvc.On("CountActiveRequests", mock.Anything, "user-1").Return(int64(2), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rental-opportunity-requests/active-count", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active_count": 2}`, w.Body.String())
}

func TestRestOpportunityHandler_ScheduleVisit_AlreadyScheduled(t *testing.T) {
	opportunitySvc := &MockOpportunityService{}
	offerSvc := &MockOfferService{}
	r := newOpportunityRouter(opportunitySvc, offerSvc, "user-1", models.RoleTenant)

	opportunitySvc.On("ScheduleVisit", mock.Anything, "req-1", "user-1", mock.Anything, models.AppointmentTypeVideo, "").
		Return(nil, services.ErrInvalidTransition)

	body, _ := json.Marshal(gin.H{"date": "2026-09-10T10:00:00Z", "type": "video"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rental-opportunity-requests/req-1/schedule-visit", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRestOpportunityHandler_SubmitOffer_Duplicate(t *testing.T) {
	opportunitySvc := &MockOpportunityService{}
	offerSvc := &MockOfferService{}
	r := newOpportunityRouter(opportunitySvc, offerSvc, "user-1", models.RoleTenant)

	offerSvc.On("SubmitOffer", mock.Anything, "req-1", "user-1", 15000.0, "").
		Return(nil, services.ErrDuplicateOffer)

	body, _ := json.Marshal(gin.H{"offerAmount": 15000})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rental-opportunity-requests/req-1/submit-offer", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRestOpportunityHandler_ListMyOpportunities_Empty(t *testing.T) {
	opportunitySvc := &MockOpportunityService{}
	offerSvc := &MockOfferService{}
	r := newOpportunityRouter(opportunitySvc, offerSvc, "user-1", models.RoleTenant)

	opportunitySvc.On("ListUserOpportunities", mock.Anything, "user-1").
		Return([]models.EnrichedOpportunity(nil), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/my-rental-opportunities", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data": []}`, w.Body.String())
}
