package bidding

import (
	"errors"
	"time"
)

var (
	ErrBidNotFound         = errors.New("bid not found for auction")
	ErrAlreadyDecided      = errors.New("auction winner already decided")
	ErrAuctionNotEligible  = errors.New("auction is not eligible for winner selection")
	ErrSupplierNotAssigned = errors.New("supplier is not assigned to this auction")
)

// Rejection reason codes, reported by the validator in check order.
const (
	ReasonMissingField          = "MISSING_FIELD"
	ReasonInvalidValue          = "INVALID_VALUE"
	ReasonAuctionClosed         = "AUCTION_CLOSED"
	ReasonOutOfRange            = "OUT_OF_RANGE"
	ReasonBelowMinimumDecrement = "BELOW_MINIMUM_DECREMENT"
)

// Rejection describes why a candidate bid was refused. A nil *Rejection
// means the bid passed every check.
type Rejection struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// SubmitRequest is the payload for submitting a bid. Value arrives as a
// string and is parsed as a decimal so malformed client input is reported as
// a validation rejection rather than a JSON binding error.
type SubmitRequest struct {
	Value        string    `json:"value"`
	Note         string    `json:"note"`
	DeliveryDate time.Time `json:"delivery_date"`
}
