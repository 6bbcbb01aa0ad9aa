package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	BookingHandler *handler.BookingHandler
	ProfileHandler *handler.ProfileHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.Publish)
			rides.GET("", deps.RideHandler.Search)
			rides.GET("/:id", deps.RideHandler.Get)
			rides.PATCH("/:id", deps.RideHandler.Update)
			rides.POST("/:id/withdraw", deps.RideHandler.Withdraw)
			rides.GET("/:id/bookings", deps.BookingHandler.ListForRide)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.Create)
			bookings.GET("/:id", deps.BookingHandler.Get)
			bookings.POST("/:id/accept", deps.BookingHandler.Accept)
			bookings.POST("/:id/reject", deps.BookingHandler.Reject)
			bookings.POST("/:id/cancel", deps.BookingHandler.Cancel)
		}

		// Passenger routes.
		passengers := v1.Group("/passengers")
		{
			passengers.GET("/:id/bookings", deps.BookingHandler.ListForPassenger)
		}

		// Profile routes.
		profiles := v1.Group("/profiles")
		{
			profiles.POST("", deps.ProfileHandler.Create)
			profiles.GET("/:id", deps.ProfileHandler.Get)
			profiles.PUT("/:id", deps.ProfileHandler.Update)
		}
	}

	return router
}
