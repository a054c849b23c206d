package bidding

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ElanScarton/leilao-api/internal/auction"
	"github.com/ElanScarton/leilao-api/internal/types"
)

// Validator runs the bid acceptance checks against an auction snapshot.
// It is stateless apart from its configuration and performs no writes;
// persistence is the caller's concern.
type Validator struct {
	// MinDecrement is the minimum amount a bid must undercut the reference
	// price by. Zero disables the rule.
	MinDecrement float64
}

func NewValidator(minDecrement float64) *Validator {
	return &Validator{MinDecrement: minDecrement}
}

// Validate checks a candidate bid against the auction snapshot at the given
// instant. Checks run in a fixed order and the first failure determines the
// reported reason. Returns nil when the bid is acceptable, together with the
// parsed value.
func (v *Validator) Validate(candidate *SubmitRequest, supplierID string, snapshot *types.Auction, now time.Time) (float64, *Rejection) {
	// 1. Required fields
	switch {
	case candidate.Value == "":
		return 0, &Rejection{Reason: ReasonMissingField, Message: "value is required"}
	case candidate.Note == "":
		return 0, &Rejection{Reason: ReasonMissingField, Message: "note is required"}
	case supplierID == "":
		return 0, &Rejection{Reason: ReasonMissingField, Message: "supplier id is required"}
	case candidate.DeliveryDate.IsZero():
		return 0, &Rejection{Reason: ReasonMissingField, Message: "delivery date is required"}
	}

	// 2. Value must parse as a finite decimal
	parsed, err := decimal.NewFromString(candidate.Value)
	if err != nil {
		return 0, &Rejection{Reason: ReasonInvalidValue, Message: fmt.Sprintf("value %q is not a valid number", candidate.Value)}
	}
	value, _ := parsed.Float64()

	// 3. Auction must be accepting bids
	if !auction.AcceptingBids(snapshot.Status, snapshot.StartTime, snapshot.EndTime, now) {
		return 0, &Rejection{Reason: ReasonAuctionClosed, Message: "auction is not accepting bids"}
	}

	// 4. Strict reverse-auction range, offending bound named
	if value <= 0 {
		return 0, &Rejection{Reason: ReasonOutOfRange, Message: "value must be positive"}
	}
	if value >= snapshot.ReferencePrice {
		return 0, &Rejection{
			Reason:  ReasonOutOfRange,
			Message: fmt.Sprintf("value %.2f must be strictly below the reference price %.2f", value, snapshot.ReferencePrice),
		}
	}

	// 5. Optional minimum decrement below the reference price
	if v.MinDecrement > 0 && value > snapshot.ReferencePrice-v.MinDecrement {
		return 0, &Rejection{
			Reason:  ReasonBelowMinimumDecrement,
			Message: fmt.Sprintf("value must undercut the reference price by at least %.2f", v.MinDecrement),
		}
	}

	return value, nil
}
