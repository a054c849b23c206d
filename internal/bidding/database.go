package bidding

import (
	"errors"
	"time"

	"github.com/ElanScarton/leilao-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateBid(bid *types.Bid) error {
	return d.db.Create(bid).Error
}

func (d *Database) GetBidForAuction(auctionID, bidID string) (*types.Bid, error) {
	var bid types.Bid
	if err := d.db.Where("bid_id = ? AND auction_id = ?", bidID, auctionID).First(&bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// ListBids returns bids, scoped to one auction when auctionID is non-empty,
// ordered by value ascending (best bid first in a reverse auction).
func (d *Database) ListBids(auctionID string) ([]types.Bid, error) {
	var bids []types.Bid
	query := d.db.Order("value asc")
	if auctionID != "" {
		query = query.Where("auction_id = ?", auctionID)
	}
	if err := query.Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

func (d *Database) GetWinningBid(auctionID string) (*types.Bid, error) {
	var bid types.Bid
	if err := d.db.Where("auction_id = ? AND winner = ?", auctionID, true).First(&bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// ConfirmWinner flags bidID as the auction's winner, clears any sibling flag
// and finalizes the auction, all in one transaction. The transaction re-checks
// for an existing winner so two overlapping confirmations cannot both commit;
// the loser gets ErrAlreadyDecided.
func (d *Database) ConfirmWinner(auctionID string, bid *types.Bid, decidedAt time.Time) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var winners int64
		if err := tx.Model(&types.Bid{}).
			Where("auction_id = ? AND winner = ?", auctionID, true).
			Count(&winners).Error; err != nil {
			return err
		}
		if winners > 0 {
			return ErrAlreadyDecided
		}

		if err := tx.Model(&types.Bid{}).
			Where("auction_id = ?", auctionID).
			Update("winner", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&types.Bid{}).
			Where("bid_id = ?", bid.BidID).
			Update("winner", true).Error; err != nil {
			return err
		}

		// Closing is atomic with confirmation: the final price is written once
		// and the auction moves to FINISHED. A concurrently cancelled auction
		// must not be finalized.
		result := tx.Model(&types.Auction{}).
			Where("auction_id = ? AND status <> ? AND final_price IS NULL", auctionID, types.StatusCancelled).
			Updates(map[string]interface{}{
				"status":      types.StatusFinished,
				"final_price": bid.Value,
				"updated_at":  decidedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAuctionNotEligible
		}
		return nil
	})
}
