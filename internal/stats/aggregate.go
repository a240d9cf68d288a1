// Package stats reduces per-session results to summary statistics and
// provides the merge operator for combining partial aggregates computed by
// independent workers. Merged aggregates recompute every non-additive
// statistic from the retained raw profits, so merging commutes with
// aggregation no matter how the result set was partitioned.
package stats

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/hollis/wagersim/internal/session"
)

var (
	loggerMu sync.RWMutex
	logger   = zerolog.Nop()
)

// SetLogger installs a logger for degenerate-input warnings. The default is
// a no-op logger.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func getLogger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Aggregate summarizes a collection of session results. Profits retains the
// raw per-session values: medians, percentiles and standard deviation are
// not additive across shards, so merges must re-derive them from raw data
// rather than combining the partial statistics.
type Aggregate struct {
	Sessions int `json:"sessions"`
	Wins     int `json:"wins"`
	Losses   int `json:"losses"`
	Pushes   int `json:"pushes"`

	TotalHands        int     `json:"total_hands"`
	TotalWagered      float64 `json:"total_wagered"`
	TotalBonusWagered float64 `json:"total_bonus_wagered"`
	TotalWon          float64 `json:"total_won"`
	TotalLost         float64 `json:"total_lost"`
	NetProfit         float64 `json:"net_profit"`

	WinRate   float64 `json:"win_rate"`
	EVPerHand float64 `json:"ev_per_hand"`

	MeanProfit   float64 `json:"mean_profit"`
	StdDevProfit float64 `json:"std_dev_profit"`
	MedianProfit float64 `json:"median_profit"`
	MinProfit    float64 `json:"min_profit"`
	MaxProfit    float64 `json:"max_profit"`

	// Percentiles holds the profit distribution at the standard cut points
	// (5, 25, 75, 95).
	Percentiles map[int]float64 `json:"percentiles"`

	StopReasons     map[session.StopReason]int     `json:"stop_reasons"`
	StopReasonRates map[session.StopReason]float64 `json:"stop_reason_rates"`

	Profits []float64 `json:"-"`
}

var percentileCuts = []int{5, 25, 75, 95}

// Compute reduces results in a single pass. It fails on an empty collection:
// an aggregate over nothing has no meaningful rates.
func Compute(results []session.Result) (*Aggregate, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("cannot aggregate empty result set")
	}

	agg := &Aggregate{
		Sessions:    len(results),
		Profits:     make([]float64, 0, len(results)),
		StopReasons: make(map[session.StopReason]int),
	}
	for _, r := range results {
		switch r.Outcome {
		case session.OutcomeWin:
			agg.Wins++
		case session.OutcomeLoss:
			agg.Losses++
		default:
			agg.Pushes++
		}
		agg.TotalHands += r.HandsPlayed
		agg.TotalWagered += r.TotalWagered
		agg.TotalBonusWagered += r.BonusWagered
		agg.StopReasons[r.StopReason]++
		agg.Profits = append(agg.Profits, r.Profit)
	}

	agg.finalize()
	return agg, nil
}

// Merge combines two independently computed aggregates. Counts and sums add
// directly; everything distributional is recomputed from the concatenated
// raw profits.
func Merge(a, b *Aggregate) *Aggregate {
	merged := &Aggregate{
		Sessions:          a.Sessions + b.Sessions,
		Wins:              a.Wins + b.Wins,
		Losses:            a.Losses + b.Losses,
		Pushes:            a.Pushes + b.Pushes,
		TotalHands:        a.TotalHands + b.TotalHands,
		TotalWagered:      a.TotalWagered + b.TotalWagered,
		TotalBonusWagered: a.TotalBonusWagered + b.TotalBonusWagered,
		StopReasons:       make(map[session.StopReason]int, len(a.StopReasons)+len(b.StopReasons)),
		Profits:           make([]float64, 0, len(a.Profits)+len(b.Profits)),
	}
	for reason, n := range a.StopReasons {
		merged.StopReasons[reason] += n
	}
	for reason, n := range b.StopReasons {
		merged.StopReasons[reason] += n
	}
	merged.Profits = append(merged.Profits, a.Profits...)
	merged.Profits = append(merged.Profits, b.Profits...)

	merged.finalize()
	return merged
}

// finalize derives every non-additive statistic from the raw profits and the
// rate denominators from the summed counts.
func (a *Aggregate) finalize() {
	// Profit sums come from the raw values in slice order so that a merged
	// aggregate and a direct aggregate of the union produce the same floats.
	a.TotalWon, a.TotalLost, a.NetProfit = 0, 0, 0
	for _, p := range a.Profits {
		a.NetProfit += p
		if p > 0 {
			a.TotalWon += p
		} else {
			a.TotalLost -= p
		}
	}

	a.WinRate = float64(a.Wins) / float64(a.Sessions)
	if a.TotalHands > 0 {
		a.EVPerHand = a.NetProfit / float64(a.TotalHands)
	} else {
		l := getLogger()
		l.Warn().Int("sessions", a.Sessions).Msg("aggregate has zero hands; ev_per_hand undefined")
		a.EVPerHand = 0
	}

	a.StopReasonRates = make(map[session.StopReason]float64, len(a.StopReasons))
	for reason, n := range a.StopReasons {
		a.StopReasonRates[reason] = float64(n) / float64(a.Sessions)
	}

	sorted := make([]float64, len(a.Profits))
	copy(sorted, a.Profits)
	sort.Float64s(sorted)

	a.MeanProfit = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		a.StdDevProfit = stat.StdDev(sorted, nil)
	} else {
		l := getLogger()
		l.Warn().Msg("single-session aggregate; std dev undefined")
		a.StdDevProfit = 0
	}
	a.MedianProfit = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	a.MinProfit = sorted[0]
	a.MaxProfit = sorted[len(sorted)-1]

	a.Percentiles = make(map[int]float64, len(percentileCuts))
	for _, p := range percentileCuts {
		a.Percentiles[p] = stat.Quantile(float64(p)/100, stat.LinInterp, sorted, nil)
	}
}

// ComputeTable flattens per-seat results from table sessions and aggregates
// them as individual seat-sessions.
func ComputeTable(results []session.TableResult) (*Aggregate, error) {
	var flat []session.Result
	for _, tr := range results {
		flat = append(flat, tr.Seats...)
	}
	return Compute(flat)
}
