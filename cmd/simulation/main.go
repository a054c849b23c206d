package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ElanScarton/leilao-api/internal/auction"
	"github.com/ElanScarton/leilao-api/internal/auth"
	"github.com/ElanScarton/leilao-api/internal/bidding"
	"github.com/ElanScarton/leilao-api/internal/database"
	"github.com/ElanScarton/leilao-api/internal/monitor"
	"github.com/ElanScarton/leilao-api/internal/types"
	"github.com/ElanScarton/leilao-api/pkg/middleware"
)

const (
	numSuppliers   = 5
	bidsPerWorker  = 10
	referencePrice = 1000.0
	biddingWindow  = 15 * time.Second
	serverAddress  = "http://localhost:8080"
	jwtSecret      = "leilao-secret-key"
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the auction API
type simulationClient struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	stats map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
func newSimulationClient() *simulationClient {
	return &simulationClient{
		baseURL: serverAddress,
		client:  &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"auth":    {name: "Authentication"},
			"create":  {name: "Create Auction"},
			"assign":  {name: "Assign Suppliers"},
			"bid":     {name: "Submit Bid"},
			"bids":    {name: "List Bids"},
			"winner":  {name: "Select Winner"},
			"auction": {name: "Get Auction"},
		},
	}
}

func (sc *simulationClient) record(route string, start time.Time, failed bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.stats[route].addDuration(time.Since(start))
	if failed {
		sc.stats[route].failures++
	}
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate(apiKey, apiSecret string) (string, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("auth", start, failed) }()

	credentials := map[string]string{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		failed = true
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		failed = true
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		failed = true
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		failed = true
		return "", err
	}

	return result.Data.Token, nil
}

// doJSON issues an authenticated request and decodes the standard envelope
// into out (when out is non-nil).
func (sc *simulationClient) doJSON(method, url, token string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("response", string(respBody)).Str("url", url).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, url, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(envelope.Data, out)
}

// createAuction publishes a new auction and returns its ID
func (sc *simulationClient) createAuction(token string, supplierIDs []string) (string, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("create", start, failed) }()

	req := auction.CreateRequest{
		Title:          "Simulated procurement run",
		Description:    "Load simulation auction",
		ReferencePrice: referencePrice,
		StartTime:      time.Now().Add(2 * time.Second),
		EndTime:        time.Now().Add(2*time.Second + biddingWindow),
		DeliveryTime:   time.Now().Add(30 * 24 * time.Hour),
		ProductID:      "SKU-SIM-001",
		SupplierIDs:    supplierIDs,
	}

	var created types.Auction
	if err := sc.doJSON("POST", fmt.Sprintf("%s/api/v1/auctions", sc.baseURL), token, req, &created); err != nil {
		failed = true
		return "", err
	}
	if created.AuctionID == "" {
		failed = true
		return "", fmt.Errorf("no auction ID in response")
	}
	return created.AuctionID, nil
}

// submitBid places one bid as a supplier, returning the rejection status
func (sc *simulationClient) submitBid(token, auctionID, value string) error {
	start := time.Now()
	failed := false
	defer func() { sc.record("bid", start, failed) }()

	req := bidding.SubmitRequest{
		Value:        value,
		Note:         "Can deliver within 30 days",
		DeliveryDate: time.Now().Add(30 * 24 * time.Hour),
	}
	err := sc.doJSON("POST", fmt.Sprintf("%s/api/v1/auctions/%s/bids", sc.baseURL, auctionID), token, req, nil)
	if err != nil {
		failed = true
	}
	return err
}

// listBids fetches the auction's bids and statistics
func (sc *simulationClient) listBids(token, auctionID string) ([]types.Bid, *types.Statistics, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("bids", start, failed) }()

	var out struct {
		Bids       []types.Bid      `json:"bids"`
		Statistics types.Statistics `json:"statistics"`
	}
	err := sc.doJSON("GET", fmt.Sprintf("%s/api/v1/auctions/%s/bids", sc.baseURL, auctionID), token, nil, &out)
	if err != nil {
		failed = true
		return nil, nil, err
	}
	return out.Bids, &out.Statistics, nil
}

// selectWinner confirms the winning bid as the requester
func (sc *simulationClient) selectWinner(token, auctionID, bidID string) (*types.ArbitrationResponse, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("winner", start, failed) }()

	var out types.ArbitrationResponse
	err := sc.doJSON("POST", fmt.Sprintf("%s/api/v1/auctions/%s/winner/%s", sc.baseURL, auctionID, bidID), token, nil, &out)
	if err != nil {
		failed = true
		return nil, err
	}
	return &out, nil
}

// getAuction fetches the auction view with effective status
func (sc *simulationClient) getAuction(token, auctionID string) (*types.AuctionView, error) {
	start := time.Now()
	failed := false
	defer func() { sc.record("auction", start, failed) }()

	var view types.AuctionView
	err := sc.doJSON("GET", fmt.Sprintf("%s/api/v1/auctions/%s", sc.baseURL, auctionID), token, nil, &view)
	if err != nil {
		failed = true
		return nil, err
	}
	return &view, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// supplierWorker submits a stream of undercutting bids for one supplier
func supplierWorker(sc *simulationClient, token, auctionID string, workerID int, wg *sync.WaitGroup) {
	defer wg.Done()

	for i := 0; i < bidsPerWorker; i++ {
		// Random value strictly below the reference price
		value := fmt.Sprintf("%.2f", referencePrice*(0.5+rand.Float64()*0.45))
		if err := sc.submitBid(token, auctionID, value); err != nil {
			log.Warn().Err(err).
				Int("worker_id", workerID).
				Str("value", value).
				Msg("Bid rejected")
		} else {
			log.Info().
				Int("worker_id", workerID).
				Str("value", value).
				Msg("Bid accepted")
		}

		// Random sleep between bids
		time.Sleep(time.Duration(rand.Intn(800)) * time.Millisecond)
	}
}

// main runs the auction simulation
// It starts a local API server, publishes an auction, floods it with
// concurrent supplier bids, and confirms the winning bid
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	sc := newSimulationClient()

	// Authenticate the requester and every supplier
	requesterToken, err := sc.authenticate(auth.TestRequesterKey, auth.TestRequesterSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to authenticate requester")
	}

	supplierIDs := make([]string, numSuppliers)
	supplierTokens := make([]string, numSuppliers)
	for i := 0; i < numSuppliers; i++ {
		supplierIDs[i] = fmt.Sprintf("supplier-%d-key", i)
		token, err := sc.authenticate(supplierIDs[i], fmt.Sprintf("supplier-%d-secret", i))
		if err != nil {
			log.Fatal().Err(err).Int("supplier", i).Msg("Failed to authenticate supplier")
		}
		supplierTokens[i] = token
	}

	// Publish the auction with the supplier allow-list
	auctionID, err := sc.createAuction(requesterToken, supplierIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auction")
	}
	log.Info().Str("auction_id", auctionID).Msg("Auction published, waiting for bidding to open")

	// Wait for the bidding window to open
	time.Sleep(3 * time.Second)

	// Start supplier workers
	var wg sync.WaitGroup
	for i := 0; i < numSuppliers; i++ {
		wg.Add(1)
		go supplierWorker(sc, supplierTokens[i], auctionID, i, &wg)
	}
	wg.Wait()

	// Pick the best bid and confirm it
	bids, stats, err := sc.listBids(requesterToken, auctionID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list bids")
	}
	log.Info().
		Int("bid_count", stats.Count).
		Float64("best_value", stats.Min).
		Float64("savings", stats.Savings).
		Float64("savings_percent", stats.SavingsPercent).
		Msg("Bidding closed")

	if len(bids) == 0 {
		log.Fatal().Msg("No bids were accepted, nothing to arbitrate")
	}

	// Bids come back best value first
	decision, err := sc.selectWinner(requesterToken, auctionID, bids[0].BidID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to select winner")
	}
	log.Info().
		Str("bid_id", decision.BidID).
		Str("supplier_id", decision.SupplierID).
		Float64("final_price", decision.FinalPrice).
		Msg("Winner confirmed")

	// Verify the auction finalized
	view, err := sc.getAuction(requesterToken, auctionID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch final auction view")
	}
	log.Info().
		Str("effective_status", string(view.EffectiveStatus)).
		Msg("Simulation complete")

	sc.printPerformanceStats()
}

// startServer initializes and starts the auction API server
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	authService := auth.NewService(jwtSecret)
	auctionService := auction.NewService(db)
	biddingService := bidding.NewService(db, auctionService.GetDB(), bidding.NewValidator(0))
	monitorService := monitor.NewService(biddingService.BuildView, monitor.DefaultInterval)

	// Register test credentials
	authService.RegisterAPICredentials(auth.TestRequesterKey, auth.TestRequesterSecret, auth.RoleRequester)
	for i := 0; i < numSuppliers; i++ {
		authService.RegisterAPICredentials(
			fmt.Sprintf("supplier-%d-key", i),
			fmt.Sprintf("supplier-%d-secret", i),
			auth.RoleSupplier,
		)
	}

	// Initialize router
	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	auctionHandlers := auction.NewGinHandlers(auctionService)
	biddingHandlers := bidding.NewGinHandlers(biddingService)
	monitorHandlers := monitor.NewGinHandlers(monitorService)

	// Setup routes
	setupRoutes(router, authHandlers, auctionHandlers, biddingHandlers, monitorHandlers)

	// Start the server
	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Groups routes by functionality and applies appropriate middleware
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	auctionHandlers *auction.GinHandlers,
	biddingHandlers *bidding.GinHandlers,
	monitorHandlers *monitor.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

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
