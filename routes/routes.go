package routes

import (
	"time"

	"wanderly/handlers"
	"wanderly/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// AuthConfig carries the secrets the route guards need.
type AuthConfig struct {
	JWTSecret  string
	AdminToken string
}

// RegisterBookingRoutes sets up the confirmation endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth AuthConfig) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.Use(middleware.JWTAuthMiddleware(auth.JWTSecret, auth.AdminToken))
		bookingGroup.POST("/confirm", hb.Booking.ConfirmBooking)
		bookingGroup.POST("/confirm-fallback", middleware.RequireUser(), hb.Booking.ConfirmFallback)
	}
}

// RegisterGuideRoutes registers the guide's own calendar endpoints.
func RegisterGuideRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth AuthConfig) {
	guideGroup := r.Group("/api/guides/me")
	{
		guideGroup.Use(middleware.JWTAuthMiddleware(auth.JWTSecret, ""), middleware.RequireUser())
		guideGroup.GET("/availability", hb.Availability.GetMyAvailability)
		guideGroup.PUT("/availability", hb.Availability.UpdateMyAvailability)
	}
}

// RegisterPaymentRoutes registers provider callbacks. They authenticate by
// signature, not by bearer token.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	paymentGroup := r.Group("/api/payments")
	{
		paymentGroup.POST("/webhook", hb.Webhook.StripeWebhook)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth AuthConfig) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthAdminMiddleware(auth.AdminToken))
		adminGroup.POST("/guides/:guideID/reconcile", hb.Admin.ReconcileGuide)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth AuthConfig) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterBookingRoutes(r, hb, auth)
	RegisterGuideRoutes(r, hb, auth)
	RegisterPaymentRoutes(r, hb)
	RegisterAdminRoutes(r, hb, auth)
}
