package routes

import (
	"net/http"
	"time"

	"tradepost/handlers"
	"tradepost/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle aggregates the HTTP handlers wired at startup.
type HandlerBundle struct {
	Auth          *handlers.AuthHandler
	Listings      *handlers.ListingHandler
	Notifications *handlers.NotificationHandler
}

// RegisterAuthRoutes registers account endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/register", hb.Auth.RegisterHandler)
		api.POST("/login", hb.Auth.LoginHandler)
	}
}

// RegisterListingRoutes registers listing lifecycle endpoints.
func RegisterListingRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/listings")
	{
		// Public feed; single-listing reads widen for owners and moderators.
		api.GET("", hb.Listings.GetListingsHandler)

		// Protected routes (Require Authentication)
		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.POST("", hb.Listings.CreateListingHandler)
		protected.GET("/my-listings", hb.Listings.GetMyListingsHandler)
		protected.PUT("/:id", hb.Listings.UpdateListingHandler)
		protected.DELETE("/:id", hb.Listings.DeleteListingHandler)
		protected.PUT("/:id/sold", hb.Listings.MarkSoldHandler)
		protected.PUT("/:id/cancel", hb.Listings.CancelListingHandler)

		// Moderator-only routes.
		moderation := api.Group("")
		moderation.Use(middleware.JWTAuthMiddleware(), middleware.ModeratorOnlyMiddleware())
		moderation.GET("/pending", hb.Listings.GetPendingListingsHandler)
		moderation.GET("/:id/archive", hb.Listings.GetArchivedListingHandler)
		moderation.PUT("/:id/approve", hb.Listings.ApproveListingHandler)

		// Single listing last so it doesn't shadow the named routes.
		api.GET("/:id", middleware.OptionalJWTAuthMiddleware(), hb.Listings.GetListingByIDHandler)
	}
}

// RegisterNotificationRoutes registers notification inbox endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.Notifications.GetNotificationsHandler)
		api.PUT("/read-all", hb.Notifications.MarkAllReadHandler)
		api.PUT("/:id/read", hb.Notifications.MarkReadHandler)
		api.DELETE("/:id", hb.Notifications.DeleteNotificationHandler)

		api.GET("/pool", middleware.ModeratorOnlyMiddleware(), hb.Notifications.GetModerationQueueHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Tradepost"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAuthRoutes(r, hb)
	RegisterListingRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterHealthRoute(r)
}
