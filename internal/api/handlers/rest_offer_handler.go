package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casaflow/pm/internal/services"
)

// RestOfferHandler handles the property side's offer transitions. All routes
// are mounted behind the privileged-role middleware.
type RestOfferHandler struct {
	offerService services.IOfferService
}

// NewRestOfferHandler creates a new RestOfferHandler.
func NewRestOfferHandler(offerService services.IOfferService) *RestOfferHandler {
	return &RestOfferHandler{offerService: offerService}
}

type counterOfferBody struct {
	CounterAmount float64 `json:"counterAmount" binding:"required"`
	Notes         string  `json:"notes"`
}

// CounterOffer handles POST /v1/offers/:offerId/counter
func (h *RestOfferHandler) CounterOffer(c *gin.Context) {
	var body counterOfferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	offer, err := h.offerService.CounterOffer(c.Request.Context(), c.Param("offerId"), body.CounterAmount, body.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

// AcceptOffer handles POST /v1/offers/:offerId/accept
func (h *RestOfferHandler) AcceptOffer(c *gin.Context) {
	offer, err := h.offerService.AcceptOffer(c.Request.Context(), c.Param("offerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

type rejectOfferBody struct {
	Notes string `json:"notes"`
}

// RejectOffer handles POST /v1/offers/:offerId/reject
func (h *RestOfferHandler) RejectOffer(c *gin.Context) {
	var body rejectOfferBody
	// Body is optional for rejections.
	_ = c.ShouldBindJSON(&body)

	offer, err := h.offerService.RejectOffer(c.Request.Context(), c.Param("offerId"), body.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}
