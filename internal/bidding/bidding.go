package bidding

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ElanScarton/leilao-api/internal/auction"
	"github.com/ElanScarton/leilao-api/internal/types"
	"github.com/ElanScarton/leilao-api/pkg/response"
)

// Service handles bid submission, auction views and winner arbitration.
type Service struct {
	db        *Database
	auctions  *auction.Database
	validator *Validator
	arbiter   *Arbiter
}

// NewService creates a new bidding service sharing the auction store.
func NewService(gormDB *gorm.DB, auctions *auction.Database, validator *Validator) *Service {
	db := NewDatabase(gormDB)
	return &Service{
		db:        db,
		auctions:  auctions,
		validator: validator,
		arbiter:   NewArbiter(db, auctions),
	}
}

// SubmitBid validates and persists a supplier's bid against an auction
// snapshot read at validation time. A stale reference price window of one
// read is acceptable because the reference price is immutable post-creation.
func (s *Service) SubmitBid(supplierID, auctionID string, req *SubmitRequest) (*types.Bid, *Rejection, error) {
	snapshot, err := s.auctions.GetAuction(auctionID)
	if err != nil {
		return nil, nil, err
	}
	if snapshot == nil {
		return nil, nil, auction.ErrAuctionNotFound
	}

	assigned, err := s.auctions.IsSupplierAssigned(auctionID, supplierID)
	if err != nil {
		return nil, nil, err
	}
	if !assigned {
		return nil, nil, ErrSupplierNotAssigned
	}

	value, rejection := s.validator.Validate(req, supplierID, snapshot, time.Now())
	if rejection != nil {
		log.Debug().
			Str("auction_id", auctionID).
			Str("supplier_id", supplierID).
			Str("reason", rejection.Reason).
			Msg("bid rejected")
		return nil, rejection, nil
	}

	bid := &types.Bid{
		BidID:        uuid.New().String(),
		AuctionID:    auctionID,
		SupplierID:   supplierID,
		Value:        value,
		Note:         req.Note,
		DeliveryDate: req.DeliveryDate,
		CreatedAt:    time.Now(),
	}
	if err := s.db.CreateBid(bid); err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("auction_id", auctionID).
		Str("bid_id", bid.BidID).
		Str("supplier_id", supplierID).
		Float64("value", bid.Value).
		Msg("bid accepted")

	return bid, nil, nil
}

// ListBids returns an auction's bids, best value first.
func (s *Service) ListBids(auctionID string) ([]types.Bid, error) {
	return s.db.ListBids(auctionID)
}

// BuildView assembles the read-time projection of one auction: the stored
// record, its effective status at now, its bids and their statistics. This is
// the refresh unit the monitor re-computes on every tick.
func (s *Service) BuildView(auctionID string, now time.Time) (*types.AuctionView, error) {
	snapshot, err := s.auctions.GetAuction(auctionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, auction.ErrAuctionNotFound
	}

	bids, err := s.db.ListBids(auctionID)
	if err != nil {
		return nil, err
	}

	return &types.AuctionView{
		Auction:         *snapshot,
		EffectiveStatus: auction.ResolveStatus(snapshot.Status, snapshot.StartTime, snapshot.EndTime, now),
		Statistics:      Summarize(bids, snapshot.ReferencePrice),
		Bids:            bids,
		AsOf:            now,
	}, nil
}

// SelectWinner delegates to the arbiter.
func (s *Service) SelectWinner(requesterID, auctionID, bidID string) (*types.Bid, error) {
	return s.arbiter.SelectWinner(requesterID, auctionID, bidID)
}

// GinHandlers contains HTTP handlers for bid and auction-view endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for bidding endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetAuctionHandler handles GET requests for a single auction view with
// effective status and bid statistics. URL parameter: auction_id.
func (h *GinHandlers) GetAuctionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		auctionID := c.Param("auction_id")

		view, err := h.service.BuildView(auctionID, time.Now())
		if err == auction.ErrAuctionNotFound {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, view, err)
	}
}

// ListBidsHandler handles GET requests for an auction's bid list and
// statistics. URL parameter: auction_id.
func (h *GinHandlers) ListBidsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		auctionID := c.Param("auction_id")

		view, err := h.service.BuildView(auctionID, time.Now())
		if err == auction.ErrAuctionNotFound {
			response.NotFound(c, err.Error())
			return
		}
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, gin.H{
			"bids":       view.Bids,
			"statistics": view.Statistics,
		})
	}
}

// SubmitBidHandler handles POST requests to place a bid. Requires the
// supplier role; the supplier must be on the auction's allow-list.
// URL parameter: auction_id.
func (h *GinHandlers) SubmitBidHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		supplierID := c.GetString("clientID")
		auctionID := c.Param("auction_id")

		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		bid, rejection, err := h.service.SubmitBid(supplierID, auctionID, &req)
		switch {
		case err == auction.ErrAuctionNotFound:
			response.NotFound(c, err.Error())
		case err == ErrSupplierNotAssigned:
			response.Forbidden(c, err.Error())
		case err != nil:
			response.InternalError(c, err.Error())
		case rejection != nil:
			response.Rejected(c, rejection.Reason, rejection.Message)
		default:
			response.Success(c, bid)
		}
	}
}

// SelectWinnerHandler handles POST requests to confirm the winning bid.
// Requires the owning requester. URL parameters: auction_id, bid_id.
func (h *GinHandlers) SelectWinnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID := c.GetString("clientID")
		auctionID := c.Param("auction_id")
		bidID := c.Param("bid_id")

		bid, err := h.service.SelectWinner(requesterID, auctionID, bidID)
		switch err {
		case nil:
			response.Success(c, types.ArbitrationResponse{
				AuctionID:  auctionID,
				BidID:      bid.BidID,
				SupplierID: bid.SupplierID,
				FinalPrice: bid.Value,
				DecidedAt:  time.Now(),
			})
		case auction.ErrAuctionNotFound:
			response.NotFound(c, err.Error())
		case ErrBidNotFound:
			response.NotFound(c, err.Error())
		case auction.ErrNotOwner:
			response.Forbidden(c, err.Error())
		case ErrAlreadyDecided, ErrAuctionNotEligible:
			response.Conflict(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
	}
}
