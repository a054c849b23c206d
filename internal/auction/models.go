package auction

import (
	"errors"
	"time"
)

var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrAuctionNotOpen   = errors.New("auction is not open for this operation")
	ErrNotOwner         = errors.New("auction belongs to a different requester")
	ErrAlreadyTerminal  = errors.New("auction is already in a terminal status")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrStartNotFuture   = errors.New("start time must be in the future")
	ErrInvalidReference = errors.New("reference price must be positive")
)

// CreateRequest is the payload for creating an auction. The auction starts in
// DRAFT; ProductID is an opaque reference to an external catalog entry.
type CreateRequest struct {
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description"`
	ReferencePrice float64   `json:"reference_price" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	DeliveryTime   time.Time `json:"delivery_time"`
	ProductID      string    `json:"product_id"`
	SupplierIDs    []string  `json:"supplier_ids"`
}

// AssignSuppliersRequest replaces an auction's supplier allow-list.
type AssignSuppliersRequest struct {
	SupplierIDs []string `json:"supplier_ids" binding:"required"`
}
