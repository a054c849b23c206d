package auction

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ElanScarton/leilao-api/internal/types"
	"github.com/ElanScarton/leilao-api/pkg/response"
)

// Service handles auction creation, listing and lifecycle commands.
type Service struct {
	db *Database
}

// NewService creates a new auction service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// GetDB returns the underlying database wrapper for collaborating services
func (s *Service) GetDB() *Database {
	return s.db
}

// CreateAuction validates and persists a new auction in DRAFT status.
// The time window is validated here once; ResolveStatus assumes it holds.
func (s *Service) CreateAuction(requesterID string, req *CreateRequest) (*types.Auction, error) {
	now := time.Now()
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}
	if !req.StartTime.After(now) {
		return nil, ErrStartNotFuture
	}
	if req.ReferencePrice <= 0 {
		return nil, ErrInvalidReference
	}

	auction := &types.Auction{
		AuctionID:      uuid.New().String(),
		Title:          req.Title,
		Description:    req.Description,
		ReferencePrice: req.ReferencePrice,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		DeliveryTime:   req.DeliveryTime,
		Status:         types.StatusDraft,
		RequesterID:    requesterID,
		ProductID:      req.ProductID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.CreateAuctionWithAssignments(auction, req.SupplierIDs); err != nil {
		return nil, err
	}

	log.Info().
		Str("auction_id", auction.AuctionID).
		Str("requester_id", requesterID).
		Float64("reference_price", auction.ReferencePrice).
		Time("start_time", auction.StartTime).
		Time("end_time", auction.EndTime).
		Int("assigned_suppliers", len(req.SupplierIDs)).
		Msg("auction created")

	return auction, nil
}

// ListAuctions returns auctions, optionally filtered by effective status.
// The filter is applied after status resolution so a time-expired auction is
// matched as FINISHED even though its stored status still says otherwise.
func (s *Service) ListAuctions(status types.Status, now time.Time) ([]types.Auction, error) {
	auctions, err := s.db.ListAuctions("")
	if err != nil {
		return nil, err
	}
	if status == "" {
		return auctions, nil
	}
	filtered := make([]types.Auction, 0, len(auctions))
	for _, a := range auctions {
		if ResolveStatus(a.Status, a.StartTime, a.EndTime, now) == status {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// GetAuction retrieves a single auction by ID, or ErrAuctionNotFound.
func (s *Service) GetAuction(auctionID string) (*types.Auction, error) {
	auction, err := s.db.GetAuction(auctionID)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}
	return auction, nil
}

// CancelAuction moves a non-terminal auction to CANCELLED. Only the owning
// requester may cancel, and an auction whose time window has already elapsed
// counts as FINISHED and can no longer be cancelled.
func (s *Service) CancelAuction(requesterID, auctionID string) (*types.Auction, error) {
	auction, err := s.GetAuction(auctionID)
	if err != nil {
		return nil, err
	}
	if auction.RequesterID != requesterID {
		return nil, ErrNotOwner
	}
	effective := ResolveStatus(auction.Status, auction.StartTime, auction.EndTime, time.Now())
	if effective.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	if err := s.db.CancelAuction(auctionID); err != nil {
		return nil, err
	}
	auction.Status = types.StatusCancelled

	log.Info().
		Str("auction_id", auctionID).
		Str("requester_id", requesterID).
		Msg("auction cancelled")

	return auction, nil
}

// AssignSuppliers replaces the auction's supplier allow-list. The list is
// frozen once bidding opens.
func (s *Service) AssignSuppliers(requesterID, auctionID string, supplierIDs []string) error {
	auction, err := s.GetAuction(auctionID)
	if err != nil {
		return err
	}
	if auction.RequesterID != requesterID {
		return ErrNotOwner
	}
	effective := ResolveStatus(auction.Status, auction.StartTime, auction.EndTime, time.Now())
	if effective != types.StatusPublished {
		return ErrAuctionNotOpen
	}

	if err := s.db.ReplaceAssignments(auctionID, supplierIDs); err != nil {
		return err
	}

	log.Info().
		Str("auction_id", auctionID).
		Int("assigned_suppliers", len(supplierIDs)).
		Msg("supplier allow-list replaced")

	return nil
}

// GinHandlers contains HTTP handlers for auction endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for auction endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateAuctionHandler handles POST requests to create auctions.
// Requires the requester role.
func (h *GinHandlers) CreateAuctionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID := c.GetString("clientID")

		var req CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		auction, err := h.service.CreateAuction(requesterID, &req)
		switch err {
		case nil:
			response.Success(c, auction)
		case ErrInvalidTimeRange, ErrStartNotFuture, ErrInvalidReference:
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
	}
}

// ListAuctionsHandler handles GET requests for the auction list.
// Optional query parameter: status (matched against the effective status).
func (h *GinHandlers) ListAuctionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := types.Status(c.Query("status"))
		auctions, err := h.service.ListAuctions(status, time.Now())
		response.Handle(c, auctions, err)
	}
}

// CancelAuctionHandler handles POST requests to cancel an auction.
// URL parameter: auction_id. Requires the owning requester.
func (h *GinHandlers) CancelAuctionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID := c.GetString("clientID")
		auctionID := c.Param("auction_id")

		auction, err := h.service.CancelAuction(requesterID, auctionID)
		switch err {
		case nil:
			response.Success(c, auction)
		case ErrAuctionNotFound:
			response.NotFound(c, err.Error())
		case ErrNotOwner:
			response.Forbidden(c, err.Error())
		case ErrAlreadyTerminal:
			response.Conflict(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
	}
}

// AssignSuppliersHandler handles POST requests to replace an auction's
// supplier allow-list. URL parameter: auction_id.
func (h *GinHandlers) AssignSuppliersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID := c.GetString("clientID")
		auctionID := c.Param("auction_id")

		var req AssignSuppliersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		err := h.service.AssignSuppliers(requesterID, auctionID, req.SupplierIDs)
		switch err {
		case nil:
			response.Success(c, gin.H{"auction_id": auctionID, "supplier_ids": req.SupplierIDs})
		case ErrAuctionNotFound:
			response.NotFound(c, err.Error())
		case ErrNotOwner:
			response.Forbidden(c, err.Error())
		case ErrAuctionNotOpen:
			response.Conflict(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
	}
}
