package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollis/wagersim/internal/session"
)

func mkResult(profit float64, hands int, reason session.StopReason) session.Result {
	return session.Result{
		Outcome:      outcomeOf(profit),
		StopReason:   reason,
		HandsPlayed:  hands,
		Profit:       profit,
		TotalWagered: float64(hands) * 20,
		BonusWagered: float64(hands) * 2,
	}
}

func outcomeOf(profit float64) session.Outcome {
	switch {
	case profit > 0:
		return session.OutcomeWin
	case profit < 0:
		return session.OutcomeLoss
	default:
		return session.OutcomePush
	}
}

func sampleResults() []session.Result {
	return []session.Result{
		mkResult(100, 10, session.StopWinLimit),
		mkResult(-50, 20, session.StopLossLimit),
		mkResult(0, 30, session.StopMaxHands),
		mkResult(25, 15, session.StopWinLimit),
		mkResult(-75, 40, session.StopInsufficientFunds),
		mkResult(10, 5, session.StopMaxHands),
	}
}

func TestComputeEmptyFails(t *testing.T) {
	_, err := Compute(nil)
	assert.Error(t, err)
}

func TestComputeCountsAndSums(t *testing.T) {
	agg, err := Compute(sampleResults())
	require.NoError(t, err)

	assert.Equal(t, 6, agg.Sessions)
	assert.Equal(t, 3, agg.Wins)
	assert.Equal(t, 2, agg.Losses)
	assert.Equal(t, 1, agg.Pushes)
	assert.Equal(t, 120, agg.TotalHands)
	assert.InDelta(t, 2400.0, agg.TotalWagered, 1e-9)
	assert.InDelta(t, 240.0, agg.TotalBonusWagered, 1e-9)
	assert.InDelta(t, 10.0, agg.NetProfit, 1e-9)
	assert.InDelta(t, 135.0, agg.TotalWon, 1e-9)
	assert.InDelta(t, 125.0, agg.TotalLost, 1e-9)
	assert.InDelta(t, 0.5, agg.WinRate, 1e-9)
	assert.InDelta(t, 10.0/120.0, agg.EVPerHand, 1e-9)
}

func TestComputeDistribution(t *testing.T) {
	agg, err := Compute(sampleResults())
	require.NoError(t, err)

	assert.InDelta(t, 10.0/6.0, agg.MeanProfit, 1e-9)
	assert.InDelta(t, -75.0, agg.MinProfit, 1e-9)
	assert.InDelta(t, 100.0, agg.MaxProfit, 1e-9)
	assert.InDelta(t, 5.0, agg.MedianProfit, 1e-9)
	assert.Greater(t, agg.StdDevProfit, 0.0)
	require.Len(t, agg.Percentiles, 4)
	assert.LessOrEqual(t, agg.Percentiles[5], agg.Percentiles[25])
	assert.LessOrEqual(t, agg.Percentiles[25], agg.Percentiles[75])
	assert.LessOrEqual(t, agg.Percentiles[75], agg.Percentiles[95])
}

func TestComputeStopReasonRates(t *testing.T) {
	agg, err := Compute(sampleResults())
	require.NoError(t, err)

	assert.Equal(t, 2, agg.StopReasons[session.StopWinLimit])
	assert.Equal(t, 2, agg.StopReasons[session.StopMaxHands])
	assert.Equal(t, 1, agg.StopReasons[session.StopLossLimit])
	assert.Equal(t, 1, agg.StopReasons[session.StopInsufficientFunds])
	assert.InDelta(t, 2.0/6.0, agg.StopReasonRates[session.StopWinLimit], 1e-9)
}

func TestMergeMatchesDirectAggregation(t *testing.T) {
	all := sampleResults()

	// Split every possible way into a prefix and a suffix; merging the two
	// partial aggregates must reproduce the direct aggregate exactly.
	want, err := Compute(all)
	require.NoError(t, err)
	for cut := 1; cut < len(all); cut++ {
		left, err := Compute(all[:cut])
		require.NoError(t, err)
		right, err := Compute(all[cut:])
		require.NoError(t, err)

		got := Merge(left, right)
		assert.Equal(t, want.Sessions, got.Sessions, "cut %d", cut)
		assert.Equal(t, want.StopReasons, got.StopReasons, "cut %d", cut)
		assert.Equal(t, want.Profits, got.Profits, "cut %d", cut)

		// Distributional stats are recomputed from the same ordered raw
		// values on both paths, so they match bit for bit.
		assert.Equal(t, want.NetProfit, got.NetProfit, "cut %d", cut)
		assert.Equal(t, want.TotalWon, got.TotalWon, "cut %d", cut)
		assert.Equal(t, want.TotalLost, got.TotalLost, "cut %d", cut)
		assert.Equal(t, want.MeanProfit, got.MeanProfit, "cut %d", cut)
		assert.Equal(t, want.StdDevProfit, got.StdDevProfit, "cut %d", cut)
		assert.Equal(t, want.MedianProfit, got.MedianProfit, "cut %d", cut)
		assert.Equal(t, want.Percentiles, got.Percentiles, "cut %d", cut)

		assert.InDelta(t, want.TotalWagered, got.TotalWagered, 1e-9, "cut %d", cut)
		assert.InDelta(t, want.EVPerHand, got.EVPerHand, 1e-9, "cut %d", cut)
	}
}

func TestMergeRetainsRawProfits(t *testing.T) {
	a, err := Compute(sampleResults()[:2])
	require.NoError(t, err)
	b, err := Compute(sampleResults()[2:])
	require.NoError(t, err)

	merged := Merge(a, b)
	assert.Len(t, merged.Profits, 6)
	assert.Equal(t, append(append([]float64{}, a.Profits...), b.Profits...), merged.Profits)
}

func TestSingleSessionAggregate(t *testing.T) {
	agg, err := Compute([]session.Result{mkResult(42, 10, session.StopMaxHands)})
	require.NoError(t, err)
	assert.Zero(t, agg.StdDevProfit)
	assert.InDelta(t, 42.0, agg.MedianProfit, 1e-9)
	assert.InDelta(t, 42.0, agg.MeanProfit, 1e-9)
}

func TestComputeTableFlattensSeats(t *testing.T) {
	tables := []session.TableResult{
		{Seats: []session.Result{mkResult(10, 5, session.StopMaxHands), mkResult(-10, 5, session.StopMaxHands)}},
		{Seats: []session.Result{mkResult(30, 5, session.StopWinLimit)}},
	}
	agg, err := ComputeTable(tables)
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Sessions)
	assert.InDelta(t, 30.0, agg.NetProfit, 1e-9)
}
