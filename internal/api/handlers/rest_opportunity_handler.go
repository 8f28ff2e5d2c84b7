package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"casaflow/pm/internal/api/middleware"
	"casaflow/pm/internal/models"
	"casaflow/pm/internal/services"
)

// RestOpportunityHandler handles REST requests for opportunity requests and
// the visit scheduling that hangs off them.
type RestOpportunityHandler struct {
	opportunityService services.IOpportunityService
	offerService       services.IOfferService
}

// NewRestOpportunityHandler creates a new RestOpportunityHandler.
func NewRestOpportunityHandler(opportunityService services.IOpportunityService, offerService services.IOfferService) *RestOpportunityHandler {
	return &RestOpportunityHandler{
		opportunityService: opportunityService,
		offerService:       offerService,
	}
}

type createRequestBody struct {
	PropertyID             string     `json:"propertyId" binding:"required"`
	DesiredMoveInDate      *time.Time `json:"desiredMoveInDate"`
	PreferredContactMethod string     `json:"preferredContactMethod"`
	Notes                  string     `json:"notes"`
}

// CreateRequest handles POST /v1/rental-opportunity-requests
func (h *RestOpportunityHandler) CreateRequest(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	request, err := h.opportunityService.CreateRequest(
		c.Request.Context(),
		middleware.CallerID(c),
		body.PropertyID,
		body.DesiredMoveInDate,
		models.ContactMethod(body.PreferredContactMethod),
		body.Notes,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// GetActiveCount handles GET /v1/rental-opportunity-requests/active-count
func (h *RestOpportunityHandler) GetActiveCount(c *gin.Context) {
	count, err := h.opportunityService.CountActiveRequests(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_count": count})
}

// GetActiveByProperty handles GET /v1/rental-opportunity-requests/by-property/:propertyId
func (h *RestOpportunityHandler) GetActiveByProperty(c *gin.Context) {
	request, err := h.opportunityService.FindActiveRequestByProperty(
		c.Request.Context(), middleware.CallerID(c), c.Param("propertyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListMyOpportunities handles GET /v1/my-rental-opportunities
func (h *RestOpportunityHandler) ListMyOpportunities(c *gin.Context) {
	opportunities, err := h.opportunityService.ListUserOpportunities(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if opportunities == nil {
		opportunities = []models.EnrichedOpportunity{}
	}
	c.JSON(http.StatusOK, gin.H{"data": opportunities})
}

type scheduleVisitBody struct {
	Date  time.Time `json:"date" binding:"required"`
	Type  string    `json:"type" binding:"required"`
	Notes string    `json:"notes"`
}

// ScheduleVisit handles POST /v1/rental-opportunity-requests/:sorId/schedule-visit
func (h *RestOpportunityHandler) ScheduleVisit(c *gin.Context) {
	var body scheduleVisitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	appointment, err := h.opportunityService.ScheduleVisit(
		c.Request.Context(),
		c.Param("sorId"),
		middleware.CallerID(c),
		body.Date,
		models.AppointmentType(body.Type),
		body.Notes,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appointment)
}

type submitOfferBody struct {
	OfferAmount float64 `json:"offerAmount" binding:"required"`
	Notes       string  `json:"notes"`
}

// SubmitOffer handles POST /v1/rental-opportunity-requests/:sorId/submit-offer
func (h *RestOpportunityHandler) SubmitOffer(c *gin.Context) {
	var body submitOfferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	offer, err := h.offerService.SubmitOffer(
		c.Request.Context(),
		c.Param("sorId"),
		middleware.CallerID(c),
		body.OfferAmount,
		body.Notes,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// CompleteVisit handles POST /v1/rental-opportunity-requests/:sorId/complete-visit
func (h *RestOpportunityHandler) CompleteVisit(c *gin.Context) {
	request, err := h.opportunityService.CompleteVisit(c.Request.Context(), c.Param("sorId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListInterestedClients handles GET /v1/owner/interested-clients
func (h *RestOpportunityHandler) ListInterestedClients(c *gin.Context) {
	clients, err := h.opportunityService.ListInterestedClients(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if clients == nil {
		clients = []models.InterestedClient{}
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}
