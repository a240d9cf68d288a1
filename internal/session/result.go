package session

import "fmt"

// StopReason is the condition that terminated a session or a seat.
type StopReason int

const (
	StopNone StopReason = iota
	StopWinLimit
	StopLossLimit
	StopMaxHands
	StopInsufficientFunds
)

func (r StopReason) String() string {
	switch r {
	case StopWinLimit:
		return "win_limit"
	case StopLossLimit:
		return "loss_limit"
	case StopMaxHands:
		return "max_hands"
	case StopInsufficientFunds:
		return "insufficient_funds"
	default:
		return "none"
	}
}

// MarshalText renders the reason as its snake_case name so maps keyed by
// StopReason serialize readably.
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses the snake_case name produced by MarshalText.
func (r *StopReason) UnmarshalText(text []byte) error {
	switch string(text) {
	case "win_limit":
		*r = StopWinLimit
	case "loss_limit":
		*r = StopLossLimit
	case "max_hands":
		*r = StopMaxHands
	case "insufficient_funds":
		*r = StopInsufficientFunds
	case "none":
		*r = StopNone
	default:
		return fmt.Errorf("unknown stop reason %q", text)
	}
	return nil
}

// Outcome classifies a finished session by the sign of its final profit.
type Outcome int

const (
	OutcomePush Outcome = iota
	OutcomeWin
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "push"
	}
}

func classify(profit float64) Outcome {
	switch {
	case profit > 0:
		return OutcomeWin
	case profit < 0:
		return OutcomeLoss
	default:
		return OutcomePush
	}
}

// Result is the immutable outcome of one completed session (or one seat of a
// completed table session).
type Result struct {
	Outcome        Outcome
	StopReason     StopReason
	HandsPlayed    int
	Profit         float64
	FinalBankroll  float64
	TotalWagered   float64
	BonusWagered   float64
	PeakBankroll   float64
	MaxDrawdown    float64
	MaxDrawdownPct float64
}

// TableResult is the outcome of a completed table session. Seats holds one
// Result per seat in seat order; TotalRounds counts rounds actually dealt,
// which can exceed any individual seat's hand count once seats start
// stopping.
type TableResult struct {
	Seats       []Result
	TotalRounds int
	StopReason  StopReason
}
