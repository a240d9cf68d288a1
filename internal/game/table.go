package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/hollis/wagersim/internal/session"
)

// TableRules parameterizes the multi-seat round game. One dealer strength is
// drawn per round (the shared community state); each seat then draws its own
// hand strength against it.
type TableRules struct {
	// HouseMargin shifts the comparison in the dealer's favor: a seat wins
	// only when its strength exceeds the dealer's by more than the margin.
	HouseMargin float64
	// PushWindow is the band around the margin boundary that resolves as a
	// push.
	PushWindow float64
	// WinPayout is the multiple of the amount risked paid on a win.
	WinPayout float64
	// RiskMultiple is how many units of the seat's wager are at risk.
	RiskMultiple float64
	// BonusWinProb and BonusPayout describe the per-seat bonus side bet.
	BonusWinProb float64
	BonusPayout  float64
}

// DefaultTableRules mirrors DefaultRules' house edge in round form.
func DefaultTableRules() TableRules {
	return TableRules{
		HouseMargin:  0.030,
		PushWindow:   0.015,
		WinPayout:    1.0,
		RiskMultiple: 2.0,
		BonusWinProb: 0.25,
		BonusPayout:  3.0,
	}
}

// Validate checks the rule invariants.
func (r TableRules) Validate() error {
	if r.HouseMargin < 0 || r.HouseMargin >= 1 {
		return fmt.Errorf("house margin must be in [0, 1), got %v", r.HouseMargin)
	}
	if r.PushWindow < 0 || r.PushWindow >= 1 {
		return fmt.Errorf("push window must be in [0, 1), got %v", r.PushWindow)
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

// TableGame implements session.RoundDealer over TableRules.
type TableGame struct {
	rules TableRules
}

// NewTableGame validates the rules and returns the round dealer.
func NewTableGame(rules TableRules) (*TableGame, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table game rules: %w", err)
	}
	return &TableGame{rules: rules}, nil
}

// DealRound resolves one round for every active seat: first the shared
// dealer draw, then one strength draw per seat in bet order, plus one bonus
// draw per seat with a bonus up. The draw order is fixed so a round is a
// pure function of the source state and the bet list.
func (g *TableGame) DealRound(bets []session.SeatBet, src *rand.Rand) []session.HandOutcome {
	dealer := src.Float64()

	outcomes := make([]session.HandOutcome, len(bets))
	for i, bet := range bets {
		strength := src.Float64()
		risk := bet.Wager * g.rules.RiskMultiple

		edge := strength - dealer - g.rules.HouseMargin
		var net float64
		switch {
		case edge > g.rules.PushWindow:
			net = risk * g.rules.WinPayout
		case edge >= -g.rules.PushWindow:
			net = 0
		default:
			net = -risk
		}

		out := session.HandOutcome{Net: net, AmountRisked: risk}
		if bet.Bonus > 0 {
			fb := src.Float64()
			if fb < g.rules.BonusWinProb {
				out.Net += bet.Bonus * g.rules.BonusPayout
			} else {
				out.Net -= bet.Bonus
			}
			out.AmountRisked += bet.Bonus
			out.BonusWagered = bet.Bonus
		}
		outcomes[i] = out
	}
	return outcomes
}
