package bidding

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ElanScarton/leilao-api/internal/auction"
	"github.com/ElanScarton/leilao-api/internal/database"
	"github.com/ElanScarton/leilao-api/internal/types"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.NewTestDatabase()
	require.NoError(t, err)
	svc := NewService(db, auction.NewDatabase(db), NewValidator(0))
	return svc, db
}

// seedAuction writes an auction row directly so tests can place its time
// window anywhere, including the past.
func seedAuction(t *testing.T, db *gorm.DB, requesterID string, start, end time.Time) *types.Auction {
	t.Helper()
	a := &types.Auction{
		AuctionID:      uuid.New().String(),
		Title:          "seeded auction",
		ReferencePrice: 1000,
		StartTime:      start,
		EndTime:        end,
		Status:         types.StatusPublished,
		RequesterID:    requesterID,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func seedBid(t *testing.T, db *gorm.DB, auctionID string, value float64) *types.Bid {
	t.Helper()
	b := &types.Bid{
		BidID:      uuid.New().String(),
		AuctionID:  auctionID,
		SupplierID: "supplier-" + uuid.New().String()[:8],
		Value:      value,
		Note:       "seeded",
		CreatedAt:  time.Now(),
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestSelectWinnerFinalizesAuction(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now()
	a := seedAuction(t, db, "requester-1", now.Add(-time.Hour), now.Add(time.Hour))
	bid := seedBid(t, db, a.AuctionID, 800)

	won, err := svc.SelectWinner("requester-1", a.AuctionID, bid.BidID)
	require.NoError(t, err)
	assert.True(t, won.Winner)

	var stored types.Auction
	require.NoError(t, db.Where("auction_id = ?", a.AuctionID).First(&stored).Error)
	assert.Equal(t, types.StatusFinished, stored.Status)
	require.NotNil(t, stored.FinalPrice)
	assert.Equal(t, 800.0, *stored.FinalPrice)
}

// Scenario: two bids, the requester confirms 750 first. The later attempt to
// confirm 800 is a conflict and the 750 bid keeps the flag.
func TestSelectWinnerNoReselection(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now()
	a := seedAuction(t, db, "requester-1", now.Add(-time.Hour), now.Add(time.Hour))
	bid800 := seedBid(t, db, a.AuctionID, 800)
	bid750 := seedBid(t, db, a.AuctionID, 750)

	_, err := svc.SelectWinner("requester-1", a.AuctionID, bid750.BidID)
	require.NoError(t, err)

	_, err = svc.SelectWinner("requester-1", a.AuctionID, bid800.BidID)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	var winners []types.Bid
	require.NoError(t, db.Where("auction_id = ? AND winner = ?", a.AuctionID, true).Find(&winners).Error)
	require.Len(t, winners, 1)
	assert.Equal(t, bid750.BidID, winners[0].BidID)
}

// Concurrent confirmations of different bids: exactly one commits, the other
// observes the conflict, and a single winner flag exists afterwards.
func TestSelectWinnerConcurrent(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now()
	a := seedAuction(t, db, "requester-1", now.Add(-time.Hour), now.Add(time.Hour))
	bid800 := seedBid(t, db, a.AuctionID, 800)
	bid750 := seedBid(t, db, a.AuctionID, 750)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, bidID := range []string{bid800.BidID, bid750.BidID} {
		wg.Add(1)
		go func(slot int, id string) {
			defer wg.Done()
			_, errs[slot] = svc.SelectWinner("requester-1", a.AuctionID, id)
		}(i, bidID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyDecided)
		}
	}
	assert.Equal(t, 1, succeeded)

	var winners int64
	require.NoError(t, db.Model(&types.Bid{}).
		Where("auction_id = ? AND winner = ?", a.AuctionID, true).
		Count(&winners).Error)
	assert.EqualValues(t, 1, winners)
}

func TestSelectWinnerAfterTimeExpiry(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now()
	// Window already elapsed, no winner confirmed: arbitration still allowed.
	a := seedAuction(t, db, "requester-1", now.Add(-2*time.Hour), now.Add(-time.Hour))
	bid := seedBid(t, db, a.AuctionID, 700)

	won, err := svc.SelectWinner("requester-1", a.AuctionID, bid.BidID)
	require.NoError(t, err)
	assert.True(t, won.Winner)
}

func TestSelectWinnerRejections(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now()

	t.Run("unknown auction", func(t *testing.T) {
		_, err := svc.SelectWinner("requester-1", "no-such-auction", "any-bid")
		assert.ErrorIs(t, err, auction.ErrAuctionNotFound)
	})

	t.Run("bid from another auction", func(t *testing.T) {
		a := seedAuction(t, db, "requester-1", now.Add(-time.Hour), now.Add(time.Hour))
		other := seedAuction(t, db, "requester-1", now.Add(-time.Hour), now.Add(time.Hour))
		foreign := seedBid(t, db, other.AuctionID, 600)

		_, err := svc.SelectWinner("requester-1", a.AuctionID, foreign.BidID)
		assert.ErrorIs(t, err, ErrBidNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		a := seedAuction(t, db, "requester-1", now.Add(-time.Hour), now.Add(time.Hour))
		bid := seedBid(t, db, a.AuctionID, 600)

		_, err := svc.SelectWinner("requester-2", a.AuctionID, bid.BidID)
		assert.ErrorIs(t, err, auction.ErrNotOwner)
	})

	t.Run("cancelled auction is not eligible", func(t *testing.T) {
		a := seedAuction(t, db, "requester-1", now.Add(-time.Hour), now.Add(time.Hour))
		bid := seedBid(t, db, a.AuctionID, 600)
		require.NoError(t, db.Model(&types.Auction{}).
			Where("auction_id = ?", a.AuctionID).
			Update("status", types.StatusCancelled).Error)

		_, err := svc.SelectWinner("requester-1", a.AuctionID, bid.BidID)
		assert.ErrorIs(t, err, ErrAuctionNotEligible)
	})

	t.Run("not yet open", func(t *testing.T) {
		a := seedAuction(t, db, "requester-1", now.Add(time.Hour), now.Add(2*time.Hour))
		bid := seedBid(t, db, a.AuctionID, 600)

		_, err := svc.SelectWinner("requester-1", a.AuctionID, bid.BidID)
		assert.ErrorIs(t, err, ErrAuctionNotEligible)
	})
}
