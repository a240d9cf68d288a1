// Package session implements the per-player and per-table state machines:
// a Session plays hands against an opaque dealer until a stop condition
// fires; a TableSession generalizes that to multiple seats sharing one dealt
// round per tick.
package session

import (
	"fmt"
	rand "math/rand/v2"
)

// Config is the immutable per-session configuration. Zero values disable the
// optional limits; at least one stop condition (or the insufficient-funds
// rule) must be active.
type Config struct {
	StartingBankroll float64
	BaseBet          float64
	// WinLimit stops the session once session profit reaches this amount.
	WinLimit float64
	// LossLimit stops the session once session profit reaches -LossLimit.
	LossLimit float64
	// MaxHands stops the session after this many hands.
	MaxHands int
	// StopOnBroke stops the session when the bankroll cannot cover the next
	// minimum wager.
	StopOnBroke bool
	// BonusBet is an optional side wager placed every hand.
	BonusBet float64
}

// MinWager is the smallest bankroll needed to play one hand: the base bet
// can be called up to three units deep, plus the bonus wager.
func (c Config) MinWager() float64 {
	return c.BaseBet*3 + c.BonusBet
}

// Validate checks the configuration invariants. Errors here are user
// configuration defects, detected eagerly and never retried.
func (c Config) Validate() error {
	if c.BaseBet <= 0 {
		return fmt.Errorf("base bet must be positive, got %v", c.BaseBet)
	}
	if c.BonusBet < 0 {
		return fmt.Errorf("bonus bet must be non-negative, got %v", c.BonusBet)
	}
	if c.WinLimit < 0 || c.LossLimit < 0 {
		return fmt.Errorf("win limit and loss limit must be non-negative")
	}
	if c.MaxHands < 0 {
		return fmt.Errorf("max hands must be non-negative, got %d", c.MaxHands)
	}
	if c.WinLimit == 0 && c.LossLimit == 0 && c.MaxHands == 0 && !c.StopOnBroke {
		return fmt.Errorf("at least one stop condition must be active")
	}
	if c.StartingBankroll < c.MinWager() {
		return fmt.Errorf("starting bankroll %v cannot cover one minimum wager %v", c.StartingBankroll, c.MinWager())
	}
	return nil
}

// TableConfig extends Config with a seat count.
type TableConfig struct {
	Config
	Seats int
}

// Validate checks the table configuration invariants.
func (c TableConfig) Validate() error {
	if c.Seats < 1 {
		return fmt.Errorf("seat count must be at least 1, got %d", c.Seats)
	}
	return c.Config.Validate()
}

// HandOutcome is the structured result of one dealt hand: the player's net
// profit or loss, the total amount that was at risk, and how much of that
// was the bonus side wager.
type HandOutcome struct {
	Net          float64
	AmountRisked float64
	BonusWagered float64
}

// HandDealer resolves a single-seat hand. Implementations must be pure
// functions of their arguments and the source's state.
type HandDealer interface {
	Deal(wager, bonus float64, src *rand.Rand) HandOutcome
}

// SeatBet is one active seat's wager going into a table round.
type SeatBet struct {
	Seat  int
	Wager float64
	Bonus float64
}

// RoundDealer resolves one table round for all active seats at once: shared
// community state, independent per-seat cards. The returned slice is
// parallel to bets.
type RoundDealer interface {
	DealRound(bets []SeatBet, src *rand.Rand) []HandOutcome
}

// BettingContext is everything a bet-sizing strategy may observe when
// choosing the next wager.
type BettingContext struct {
	Bankroll         float64
	StartingBankroll float64
	SessionProfit    float64
	LastResult       float64
	Streak           int
	HandsPlayed      int
}

// BetStrategy sizes wagers. NextBet must return a non-negative amount;
// RecordResult is called after every hand and Reset at session start.
type BetStrategy interface {
	NextBet(ctx BettingContext) float64
	RecordResult(net float64)
	Reset()
}
