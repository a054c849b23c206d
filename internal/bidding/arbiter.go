package bidding

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ElanScarton/leilao-api/internal/auction"
	"github.com/ElanScarton/leilao-api/internal/types"
)

// Arbiter confirms exactly one winning bid per auction. Confirmation is
// serialized per auction: an in-process lock orders overlapping calls and the
// store transaction re-checks the winner flag, so the losing call always gets
// ErrAlreadyDecided and never a second flagged bid.
//
// Re-selection is not permitted: once a winner is confirmed the decision is
// final and the auction is finalized (FinalPrice written, status FINISHED) in
// the same transaction.
type Arbiter struct {
	bids     *Database
	auctions *auction.Database

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewArbiter(bids *Database, auctions *auction.Database) *Arbiter {
	return &Arbiter{
		bids:     bids,
		auctions: auctions,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (a *Arbiter) auctionLock(auctionID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, exists := a.locks[auctionID]
	if !exists {
		lock = &sync.Mutex{}
		a.locks[auctionID] = lock
	}
	return lock
}

// SelectWinner confirms bidID as the winner of auctionID on behalf of the
// owning requester.
//
// Eligible windows: the auction is IN_PROGRESS, or its time has expired
// (effective FINISHED) but no winner was confirmed yet. A cancelled auction
// or one with a confirmed winner is not eligible.
func (a *Arbiter) SelectWinner(requesterID, auctionID, bidID string) (*types.Bid, error) {
	lock := a.auctionLock(auctionID)
	lock.Lock()
	defer lock.Unlock()

	snapshot, err := a.auctions.GetAuction(auctionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, auction.ErrAuctionNotFound
	}
	if snapshot.RequesterID != requesterID {
		return nil, auction.ErrNotOwner
	}

	now := time.Now()
	effective := auction.ResolveStatus(snapshot.Status, snapshot.StartTime, snapshot.EndTime, now)
	switch {
	case snapshot.FinalPrice != nil:
		return nil, ErrAlreadyDecided
	case effective == types.StatusInProgress:
		// winner may be confirmed while bidding is open
	case effective == types.StatusFinished:
		// time expired, confirmation still pending; a stored CANCELLED never
		// resolves to FINISHED so it cannot reach this arm
	default:
		return nil, ErrAuctionNotEligible
	}

	bid, err := a.bids.GetBidForAuction(auctionID, bidID)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, ErrBidNotFound
	}

	if err := a.bids.ConfirmWinner(auctionID, bid, now); err != nil {
		return nil, err
	}
	bid.Winner = true

	log.Info().
		Str("auction_id", auctionID).
		Str("bid_id", bidID).
		Str("supplier_id", bid.SupplierID).
		Float64("final_price", bid.Value).
		Msg("winner confirmed, auction finalized")

	return bid, nil
}
