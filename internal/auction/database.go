package auction

import (
	"errors"

	"github.com/ElanScarton/leilao-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// CreateAuctionWithAssignments persists a new auction together with its
// supplier allow-list in a single transaction.
func (d *Database) CreateAuctionWithAssignments(auction *types.Auction, supplierIDs []string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(auction).Error; err != nil {
			return err
		}
		for _, supplierID := range supplierIDs {
			assignment := types.SupplierAssignment{
				AuctionID:  auction.AuctionID,
				SupplierID: supplierID,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Database) GetAuction(auctionID string) (*types.Auction, error) {
	var auction types.Auction
	if err := d.db.Where("auction_id = ?", auctionID).First(&auction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auction, nil
}

func (d *Database) ListAuctions(status types.Status) ([]types.Auction, error) {
	var auctions []types.Auction
	query := d.db.Order("start_time desc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&auctions).Error; err != nil {
		return nil, err
	}
	return auctions, nil
}

// CancelAuction writes the CANCELLED status, guarded against terminal states
// at the database level so a concurrent finalize and cancel cannot both win.
// Returns ErrAlreadyTerminal when no row was updated.
func (d *Database) CancelAuction(auctionID string) error {
	result := d.db.Model(&types.Auction{}).
		Where("auction_id = ? AND status NOT IN ?", auctionID, []types.Status{types.StatusFinished, types.StatusCancelled}).
		Update("status", types.StatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyTerminal
	}
	return nil
}

// ReplaceAssignments swaps the auction's supplier allow-list in a transaction.
func (d *Database) ReplaceAssignments(auctionID string, supplierIDs []string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("auction_id = ?", auctionID).Delete(&types.SupplierAssignment{}).Error; err != nil {
			return err
		}
		for _, supplierID := range supplierIDs {
			assignment := types.SupplierAssignment{
				AuctionID:  auctionID,
				SupplierID: supplierID,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Database) ListAssignedSuppliers(auctionID string) ([]string, error) {
	var supplierIDs []string
	err := d.db.Model(&types.SupplierAssignment{}).
		Where("auction_id = ?", auctionID).
		Pluck("supplier_id", &supplierIDs).Error
	if err != nil {
		return nil, err
	}
	return supplierIDs, nil
}

func (d *Database) IsSupplierAssigned(auctionID, supplierID string) (bool, error) {
	var count int64
	err := d.db.Model(&types.SupplierAssignment{}).
		Where("auction_id = ? AND supplier_id = ?", auctionID, supplierID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
