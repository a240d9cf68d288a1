// Package game provides the built-in hand-outcome functions consumed by
// sessions. Outcomes are pure functions of the wager, the bonus wager and
// the random source's state; there is no hidden global state, which is what
// makes whole simulation runs replayable from a seed.
package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/hollis/wagersim/internal/session"
)

// Rules parameterizes the single-seat house game: a straight win/push/loss
// draw over the amount at risk, plus an optional long-shot bonus side bet.
type Rules struct {
	// WinProb is the probability the player's hand wins.
	WinProb float64
	// PushProb is the probability the hand pushes. Loss probability is the
	// remainder.
	PushProb float64
	// WinPayout is the multiple of the amount risked paid on a win.
	WinPayout float64
	// RiskMultiple is how many units of the wager end up at risk each hand.
	// The session minimum wager assumes it never exceeds 3.
	RiskMultiple float64
	// BonusWinProb and BonusPayout describe the bonus side bet.
	BonusWinProb float64
	BonusPayout  float64
}

// DefaultRules is a mildly house-favored game: roughly a 2.4% edge on the
// amount risked.
func DefaultRules() Rules {
	return Rules{
		WinProb:      0.478,
		PushProb:     0.020,
		WinPayout:    1.0,
		RiskMultiple: 2.0,
		BonusWinProb: 0.25,
		BonusPayout:  3.0,
	}
}

// Validate checks the rule invariants.
func (r Rules) Validate() error {
	if r.WinProb < 0 || r.PushProb < 0 || r.WinProb+r.PushProb > 1 {
		return fmt.Errorf("win/push probabilities must be non-negative and sum to at most 1")
	}
	if r.WinPayout <= 0 {
		return fmt.Errorf("win payout must be positive, got %v", r.WinPayout)
	}
	if r.RiskMultiple <= 0 || r.RiskMultiple > 3 {
		return fmt.Errorf("risk multiple must be in (0, 3], got %v", r.RiskMultiple)
	}
	if r.BonusWinProb < 0 || r.BonusWinProb > 1 {
		return fmt.Errorf("bonus win probability must be in [0, 1], got %v", r.BonusWinProb)
	}
	if r.BonusPayout < 0 {
		return fmt.Errorf("bonus payout must be non-negative, got %v", r.BonusPayout)
	}
	return nil
}

// HouseGame implements session.HandDealer over Rules.
type HouseGame struct {
	rules Rules
}

// NewHouseGame validates the rules and returns the dealer.
func NewHouseGame(rules Rules) (*HouseGame, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game rules: %w", err)
	}
	return &HouseGame{rules: rules}, nil
}

// Deal resolves one hand. The main wager draw always happens first so the
// per-hand draw order is stable; the bonus draw only happens when a bonus
// wager is up.
func (g *HouseGame) Deal(wager, bonus float64, src *rand.Rand) session.HandOutcome {
	risk := wager * g.rules.RiskMultiple
	f := src.Float64()

	var net float64
	switch {
	case f < g.rules.WinProb:
		net = risk * g.rules.WinPayout
	case f < g.rules.WinProb+g.rules.PushProb:
		net = 0
	default:
		net = -risk
	}

	out := session.HandOutcome{Net: net, AmountRisked: risk}
	if bonus > 0 {
		fb := src.Float64()
		if fb < g.rules.BonusWinProb {
			out.Net += bonus * g.rules.BonusPayout
		} else {
			out.Net -= bonus
		}
		out.AmountRisked += bonus
		out.BonusWagered = bonus
	}
	return out
}
