package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"casaflow/pm/internal/services"
)

// respondError maps a service error onto a stable HTTP status and reason.
// The error text is the localizable reason string; the status code carries
// the class.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrQuotaExceeded),
		errors.Is(err, services.ErrDuplicateOffer),
		errors.Is(err, services.ErrAlreadyAccepted),
		errors.Is(err, services.ErrCannotRejectAccepted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrVisitNotCompleted):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
