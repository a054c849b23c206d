package bidding

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ElanScarton/leilao-api/internal/types"
)

func bidsWithValues(values ...float64) []types.Bid {
	bids := make([]types.Bid, len(values))
	for i, v := range values {
		bids[i] = types.Bid{Value: v}
	}
	return bids
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, 1000)

	assert.Equal(t, 0, stats.Count)
	assert.Zero(t, stats.Min)
	assert.Zero(t, stats.Max)
	assert.Zero(t, stats.Mean)
	assert.Zero(t, stats.Savings)
	assert.Zero(t, stats.SavingsPercent)
}

func TestSummarizeSingleBid(t *testing.T) {
	stats := Summarize(bidsWithValues(800), 1000)

	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 800.0, stats.Min)
	assert.Equal(t, 800.0, stats.Max)
	assert.Equal(t, 800.0, stats.Mean)
	assert.Equal(t, 200.0, stats.Savings)
	assert.Equal(t, 20.0, stats.SavingsPercent)
}

func TestSummarizeMultipleBids(t *testing.T) {
	stats := Summarize(bidsWithValues(800, 750, 900, 850), 1000)

	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, 750.0, stats.Min)
	assert.Equal(t, 900.0, stats.Max)
	assert.Equal(t, 825.0, stats.Mean)
	assert.Equal(t, 250.0, stats.Savings)
	assert.Equal(t, 25.0, stats.SavingsPercent)
}

func TestSummarizeZeroReferencePrice(t *testing.T) {
	stats := Summarize(bidsWithValues(800), 0)

	assert.Equal(t, -800.0, stats.Savings)
	assert.Zero(t, stats.SavingsPercent)
}

// The winner flag does not influence the aggregate.
func TestSummarizeIgnoresWinnerFlag(t *testing.T) {
	bids := bidsWithValues(800, 750)
	bids[1].Winner = true

	assert.Equal(t, Summarize(bidsWithValues(800, 750), 1000), Summarize(bids, 1000))
}

func TestSummarizeOrderInvariant(t *testing.T) {
	values := []float64{812.5, 750, 990, 800.25, 870, 765}
	expected := Summarize(bidsWithValues(values...), 1000)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]float64(nil), values...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, expected, Summarize(bidsWithValues(shuffled...), 1000))
	}
}
