package types

import "time"

// AuctionView is the read-time projection of an auction returned to callers:
// the stored record plus its effective status and the aggregate over its bids.
type AuctionView struct {
	Auction         Auction    `json:"auction"`
	EffectiveStatus Status     `json:"effective_status"`
	Statistics      Statistics `json:"statistics"`
	Bids            []Bid      `json:"bids,omitempty"`
	AsOf            time.Time  `json:"as_of"`
}

// ArbitrationResponse is returned by the winner-confirmation endpoint.
type ArbitrationResponse struct {
	AuctionID  string    `json:"auction_id"`
	BidID      string    `json:"bid_id"`
	SupplierID string    `json:"supplier_id"`
	FinalPrice float64   `json:"final_price"`
	DecidedAt  time.Time `json:"decided_at"`
}
