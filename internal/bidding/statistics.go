package bidding

import "github.com/ElanScarton/leilao-api/internal/types"

// Summarize aggregates a bid set into display statistics. The winner flag is
// irrelevant here; every bid value participates. The result depends only on
// the multiset of values, not their order.
//
// An empty bid set yields a zero Statistics. Savings are measured from the
// reference price down to the best (lowest) bid; a zero reference price
// yields a zero savings percentage rather than a division error.
func Summarize(bids []types.Bid, referencePrice float64) types.Statistics {
	stats := types.Statistics{Count: len(bids)}
	if len(bids) == 0 {
		return stats
	}

	stats.Min = bids[0].Value
	stats.Max = bids[0].Value
	sum := 0.0
	for _, bid := range bids {
		if bid.Value < stats.Min {
			stats.Min = bid.Value
		}
		if bid.Value > stats.Max {
			stats.Max = bid.Value
		}
		sum += bid.Value
	}
	stats.Mean = sum / float64(len(bids))

	stats.Savings = referencePrice - stats.Min
	if referencePrice > 0 {
		stats.SavingsPercent = stats.Savings / referencePrice * 100
	}
	return stats
}
