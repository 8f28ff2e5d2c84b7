package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"casaflow/pm/internal/api/handlers"
	"casaflow/pm/internal/api/middleware"
	"casaflow/pm/internal/calendar"
	"casaflow/pm/internal/config"
	"casaflow/pm/internal/journey"
	"casaflow/pm/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, calClient calendar.Client, recorder journey.Recorder) *gin.Engine {
	// Initialize services needed by API handlers
	directoryService := services.NewDirectoryService(db)
	offerService := services.NewOfferService(db, cfg, recorder)
	opportunityService := services.NewOpportunityService(db, cfg, calClient, recorder, directoryService)

	r := gin.Default()

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	opportunityHandler := handlers.NewRestOpportunityHandler(opportunityService, offerService)
	offerHandler := handlers.NewRestOfferHandler(offerService)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes: every pipeline operation requires a session.
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/rental-opportunity-requests", opportunityHandler.CreateRequest)
			authRequired.GET("/rental-opportunity-requests/active-count", opportunityHandler.GetActiveCount)
			authRequired.GET("/rental-opportunity-requests/by-property/:propertyId", opportunityHandler.GetActiveByProperty)
			authRequired.GET("/my-rental-opportunities", opportunityHandler.ListMyOpportunities)
			authRequired.POST("/rental-opportunity-requests/:sorId/schedule-visit", opportunityHandler.ScheduleVisit)
			authRequired.POST("/rental-opportunity-requests/:sorId/submit-offer", opportunityHandler.SubmitOffer)

			// Property-side routes, restricted to the configured privileged roles.
			privileged := authRequired.Group("/")
			privileged.Use(middleware.RoleMiddleware(cfg.PrivilegedRoles...))
			{
				privileged.POST("/rental-opportunity-requests/:sorId/complete-visit", opportunityHandler.CompleteVisit)
				privileged.GET("/owner/interested-clients", opportunityHandler.ListInterestedClients)
				privileged.POST("/offers/:offerId/counter", offerHandler.CounterOffer)
				privileged.POST("/offers/:offerId/accept", offerHandler.AcceptOffer)
				privileged.POST("/offers/:offerId/reject", offerHandler.RejectOffer)
			}
		}
	}

	return r
}
