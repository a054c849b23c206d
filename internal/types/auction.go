package types

import (
	"time"

	"gorm.io/gorm"
)

// Status is the stored lifecycle status of an auction.
// Transitions are monotonic: DRAFT, PUBLISHED, IN_PROGRESS, then FINISHED or
// CANCELLED. There is no backward transition.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPublished  Status = "PUBLISHED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
	StatusCancelled  Status = "CANCELLED"
)

// Terminal reports whether the status can never change again.
// A terminal stored status is never overridden by time-derived resolution.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

type Auction struct {
	gorm.Model     `json:"-"`
	AuctionID      string     `gorm:"uniqueIndex" json:"auction_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ReferencePrice float64    `json:"reference_price"`
	FinalPrice     *float64   `json:"final_price,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	DeliveryTime   time.Time  `json:"delivery_time"`
	Status         Status     `json:"status"`
	RequesterID    string     `json:"requester_id"`
	ProductID      string     `json:"product_id"`
	Bids           []Bid      `json:"bids,omitempty" gorm:"foreignKey:AuctionID;references:AuctionID"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Bid struct {
	gorm.Model   `json:"-"`
	BidID        string    `gorm:"uniqueIndex" json:"bid_id"`
	AuctionID    string    `gorm:"index" json:"auction_id"`
	SupplierID   string    `json:"supplier_id"`
	Value        float64   `json:"value"`
	Winner       bool      `json:"winner"`
	Note         string    `json:"note"`
	DeliveryDate time.Time `json:"delivery_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// SupplierAssignment is one row of an auction's supplier allow-list.
// Only assigned suppliers may submit bids against the auction.
type SupplierAssignment struct {
	gorm.Model `json:"-"`
	AuctionID  string    `gorm:"index:idx_assignment,unique" json:"auction_id"`
	SupplierID string    `gorm:"index:idx_assignment,unique" json:"supplier_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Statistics is the aggregate summary of an auction's bid set.
type Statistics struct {
	Count          int     `json:"count"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Mean           float64 `json:"mean"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savings_percent"`
}
