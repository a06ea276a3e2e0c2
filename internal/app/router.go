package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"evrental/internal/handler"
	"evrental/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler *handler.BookingHandler
	PricingHandler *handler.PricingHandler
	PaymentHandler *handler.PaymentHandler
	VehicleHandler *handler.VehicleHandler
	StationHandler *handler.StationHandler
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
		// Pricing routes.
		pricing := v1.Group("/pricing")
		{
			pricing.GET("/quote", deps.PricingHandler.GetQuote)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("", deps.BookingHandler.GetAllBookings)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.GET("/:id/events", deps.BookingHandler.GetBookingEvents)
			bookings.GET("/:id/payment-url", deps.BookingHandler.GetPaymentURL)
			bookings.GET("/:id/additional-payment-url", deps.BookingHandler.GetAdditionalPaymentURL)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			bookings.POST("/:id/contract", deps.BookingHandler.SignContract)
			bookings.POST("/:id/handover", deps.BookingHandler.RecordHandover)
			bookings.POST("/:id/return-request", deps.BookingHandler.RequestReturn)
			bookings.POST("/:id/return", deps.BookingHandler.RecordReturn)
			bookings.POST("/:id/refund-transfer", deps.BookingHandler.RecordRefundTransfer)
			bookings.POST("/:id/confirm-refund", deps.BookingHandler.ConfirmRefund)
			bookings.POST("/:id/confirm-additional-payment", deps.BookingHandler.ConfirmAdditionalPayment)
		}

		// Payment gateway callback. The gateway calls this; it is not a
		// browser API.
		payments := v1.Group("/payments")
		{
			payments.GET("/callback", deps.PaymentHandler.HandleCallback)
		}

		// Vehicle directory routes.
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("", deps.VehicleHandler.CreateVehicle)
			vehicles.GET("", deps.VehicleHandler.GetAllVehicles)
			vehicles.GET("/:id", deps.VehicleHandler.GetVehicle)
		}

		// Station directory routes.
		stations := v1.Group("/stations")
		{
			stations.POST("", deps.StationHandler.CreateStation)
			stations.GET("", deps.StationHandler.GetAllStations)
			stations.GET("/:id", deps.StationHandler.GetStation)
		}
	}

	return router
}
