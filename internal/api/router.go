package api

import (
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"hotel-ops-backend/config"
	"hotel-ops-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), mw.RequestID())

	handler := NewHandler(d)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	// Availability answers are cached briefly and dropped on any successful write.
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)
	flush := mw.FlushOnWrite(cacheStore)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/availability", caching, handler.GetAvailability)

		bookings := api.Group("/bookings", flush)
		bookings.POST("", handler.CreateBooking)
		bookings.POST("/public", handler.CreatePublicBooking)
		bookings.GET("", handler.ListBookings)
		bookings.GET("/reference/:reference", handler.GetBookingByReference)
		bookings.GET("/:id", handler.GetBooking)
		bookings.PATCH("/:id", handler.UpdateBooking)
		bookings.PATCH("/:id/preferences", handler.UpdateBookingPreferences)
		bookings.PUT("/:id/status", handler.UpdateBookingStatus)
		bookings.PUT("/:id/payment", handler.UpdateBookingPayment)
		bookings.POST("/:id/cancel", handler.CancelBooking)
		bookings.DELETE("/:id", handler.DeleteBooking)
		bookings.POST("/:id/issues", handler.ReportIssue)
		bookings.GET("/:id/access-codes", handler.GetAccessCodes)

		reservations := api.Group("/reservations", flush)
		reservations.POST("", handler.CreateReservation)
		reservations.PUT("/:id/room", handler.AssignReservationRoom)
		reservations.PUT("/:id/status", handler.UpdateReservationStatus)

		api.POST("/tasks", handler.CreateTask)
		api.GET("/tasks", handler.ListTasks)
		api.GET("/tasks/:id", handler.GetTask)
		api.PUT("/tasks/:id/assignee", handler.AssignTask)
		api.PUT("/tasks/:id/status", handler.UpdateTaskStatus)
		api.DELETE("/tasks/:id", handler.DeleteTask)

		api.PUT("/rooms/:id/maintenance", handler.StartMaintenance)
		api.DELETE("/rooms/:id/maintenance", handler.EndMaintenance)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

