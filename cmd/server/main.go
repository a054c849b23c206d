package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ElanScarton/leilao-api/internal/auction"
	"github.com/ElanScarton/leilao-api/internal/auth"
	"github.com/ElanScarton/leilao-api/internal/bidding"
	"github.com/ElanScarton/leilao-api/internal/database"
	"github.com/ElanScarton/leilao-api/internal/monitor"
	"github.com/ElanScarton/leilao-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

const jwtSecret = "leilao-secret-key"

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the auction API server with graceful shutdown support
// It sets up all required services, database connections, and API routes
func main() {
	// Initialize database
	db, err := database.NewDatabase()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(jwtSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestRequesterKey, auth.TestRequesterSecret, auth.RoleRequester)
	authService.RegisterAPICredentials(auth.TestSupplierKey, auth.TestSupplierSecret, auth.RoleSupplier)

	auctionService := auction.NewService(db)
	auctionHandlers := auction.NewGinHandlers(auctionService)

	minDecrement := 0.0
	if raw := os.Getenv("MIN_DECREMENT"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			minDecrement = parsed
		}
	}
	biddingService := bidding.NewService(db, auctionService.GetDB(), bidding.NewValidator(minDecrement))
	biddingHandlers := bidding.NewGinHandlers(biddingService)

	monitorService := monitor.NewService(biddingService.BuildView, monitor.DefaultInterval)
	monitorHandlers := monitor.NewGinHandlers(monitorService)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, authHandlers, auctionHandlers, biddingHandlers, monitorHandlers)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Auction routes: Protected by JWT authentication; write operations are
//   restricted per role (requesters publish and decide, suppliers bid)
// Parameters:
//   - router: The main Gin router instance
//   - authHandlers: Handlers for authentication endpoints
//   - auctionHandlers: Handlers for auction lifecycle commands
//   - biddingHandlers: Handlers for bids, views and winner arbitration
//   - monitorHandlers: Handlers for the live websocket stream
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	auctionHandlers *auction.GinHandlers,
	biddingHandlers *bidding.GinHandlers,
	monitorHandlers *monitor.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Auction routes
		auctions := v1.Group("/auctions")
		auctions.Use(middleware.JWTAuth(jwtSecret))
		{
			auctions.GET("", auctionHandlers.ListAuctionsHandler())
			auctions.GET("/:auction_id", biddingHandlers.GetAuctionHandler())
			auctions.GET("/:auction_id/bids", biddingHandlers.ListBidsHandler())
			auctions.GET("/:auction_id/live", monitorHandlers.LiveHandler())

			requester := auctions.Group("")
			requester.Use(middleware.RequireRole(auth.RoleRequester))
			{
				requester.POST("", auctionHandlers.CreateAuctionHandler())
				requester.POST("/:auction_id/cancel", auctionHandlers.CancelAuctionHandler())
				requester.POST("/:auction_id/suppliers", auctionHandlers.AssignSuppliersHandler())
				requester.POST("/:auction_id/winner/:bid_id", biddingHandlers.SelectWinnerHandler())
			}

			supplier := auctions.Group("")
			supplier.Use(middleware.RequireRole(auth.RoleSupplier))
			{
				supplier.POST("/:auction_id/bids", biddingHandlers.SubmitBidHandler())
			}
		}
	}
}
