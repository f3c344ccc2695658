// File: tradepost/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradepost/config"
	"tradepost/cron"
	"tradepost/database"
	archiveRepo "tradepost/database/repository/archive"
	listingRepo "tradepost/database/repository/listing"
	notificationRepo "tradepost/database/repository/notification"
	userRepoPkg "tradepost/database/repository/user"
	"tradepost/handlers"
	"tradepost/middleware"
	"tradepost/routes"
	"tradepost/services/listing"
	"tradepost/services/notification"
	"tradepost/services/storage"
	"tradepost/services/sweeper"
	"tradepost/services/user"
	"tradepost/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	imageStorage, err := storage.NewCloudinaryStorageService()
	if err != nil {
		// Image hosting is optional: listings degrade to text-only.
		logger.Sugar().Warnf("main: cloudinary storage unavailable: %v", err)
		imageStorage = nil
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	listings := listingRepo.NewMongoListingRepo()
	archives := archiveRepo.NewMongoArchiveRepo()
	notifications := notificationRepo.NewMongoNotificationRepo()
	users := userRepoPkg.NewMongoUserRepo()

	// services.
	notificationService := &notification.DefaultNotificationService{
		Repo: notifications,
	}
	listingService := &listing.DefaultListingService{
		Repo:      listings,
		Archive:   archives,
		Notifier:  notificationService,
		Images:    imageStorage,
		TTL:       config.ListingTTL(),
		MaxActive: int64(config.AppConfig.MaxActiveListings),
	}
	userService := &user.DefaultUserService{
		Repo: users,
	}
	sweepService := &sweeper.Sweeper{
		Source:    listings,
		Lifecycle: listingService,
		TTL:       config.ListingTTL(),
	}

	// Assemble the handler bundle and register routes.
	handlerBundle := &routes.HandlerBundle{
		Auth:          handlers.NewAuthHandler(userService),
		Listings:      handlers.NewListingHandler(listingService),
		Notifications: handlers.NewNotificationHandler(notificationService),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the expiration sweep worker.
	stopSweeper := cron.InitSweepWorker(sweepService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
