package session

import (
	"fmt"
	rand "math/rand/v2"
)

// seatState is the mutable run state shared by a single-seat Session and one
// seat of a TableSession.
type seatState struct {
	hands        int
	bankroll     float64
	profit       float64
	streak       int
	lastResult   float64
	peak         float64
	maxDrawdown  float64
	totalWagered float64
	totalBonus   float64
	strat        BetStrategy
	stopped      bool
	reason       StopReason
}

func newSeatState(cfg Config, strat BetStrategy) *seatState {
	strat.Reset()
	return &seatState{
		bankroll: cfg.StartingBankroll,
		peak:     cfg.StartingBankroll,
		strat:    strat,
	}
}

func (s *seatState) context(cfg Config) BettingContext {
	return BettingContext{
		Bankroll:         s.bankroll,
		StartingBankroll: cfg.StartingBankroll,
		SessionProfit:    s.profit,
		LastResult:       s.lastResult,
		Streak:           s.streak,
		HandsPlayed:      s.hands,
	}
}

// apply folds one hand outcome into the seat: bankroll, profit, wager
// totals, peak/drawdown, and the signed streak counter. A push leaves the
// streak untouched.
func (s *seatState) apply(out HandOutcome) {
	s.bankroll += out.Net
	s.profit += out.Net
	s.totalWagered += out.AmountRisked
	s.totalBonus += out.BonusWagered
	s.hands++
	s.lastResult = out.Net

	if s.bankroll > s.peak {
		s.peak = s.bankroll
	}
	if dd := s.peak - s.bankroll; dd > s.maxDrawdown {
		s.maxDrawdown = dd
	}

	switch {
	case out.Net > 0:
		if s.streak <= 0 {
			s.streak = 1
		} else {
			s.streak++
		}
	case out.Net < 0:
		if s.streak >= 0 {
			s.streak = -1
		} else {
			s.streak--
		}
	}

	s.strat.RecordResult(out.Net)
}

// evaluateStop checks the stop conditions in their fixed priority order.
// The first satisfied condition is the recorded reason, even when several
// hold at once; the ordering is policy, not derivable from the conditions.
func (s *seatState) evaluateStop(cfg Config) (StopReason, bool) {
	if cfg.WinLimit > 0 && s.profit >= cfg.WinLimit {
		return StopWinLimit, true
	}
	if cfg.LossLimit > 0 && s.profit <= -cfg.LossLimit {
		return StopLossLimit, true
	}
	if cfg.MaxHands > 0 && s.hands >= cfg.MaxHands {
		return StopMaxHands, true
	}
	if cfg.StopOnBroke && s.bankroll < cfg.MinWager() {
		return StopInsufficientFunds, true
	}
	return StopNone, false
}

func (s *seatState) result(cfg Config) Result {
	pct := 0.0
	if s.peak > 0 {
		pct = s.maxDrawdown / s.peak * 100
	}
	return Result{
		Outcome:        classify(s.profit),
		StopReason:     s.reason,
		HandsPlayed:    s.hands,
		Profit:         s.profit,
		FinalBankroll:  s.bankroll,
		TotalWagered:   s.totalWagered,
		BonusWagered:   s.totalBonus,
		PeakBankroll:   s.peak,
		MaxDrawdown:    s.maxDrawdown,
		MaxDrawdownPct: pct,
	}
}

// Session plays one simulated player from a starting bankroll until a stop
// condition fires. It is a strictly sequential state machine; all
// randomness flows through the source it was constructed with.
type Session struct {
	cfg    Config
	dealer HandDealer
	src    *rand.Rand
	seat   *seatState
}

// New validates cfg and builds a session around the dealer, strategy and
// random source. The strategy is reset for the new session.
func New(cfg Config, dealer HandDealer, strat BetStrategy, src *rand.Rand) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	return &Session{
		cfg:    cfg,
		dealer: dealer,
		src:    src,
		seat:   newSeatState(cfg, strat),
	}, nil
}

// PlayHand plays exactly one hand. Calling it after the session reached a
// terminal state is a programming error and panics.
func (s *Session) PlayHand() {
	if s.seat.stopped {
		panic("session: PlayHand called after session stopped")
	}
	wager := s.seat.strat.NextBet(s.seat.context(s.cfg))
	out := s.dealer.Deal(wager, s.cfg.BonusBet, s.src)
	s.seat.apply(out)
}

// ShouldStop reports whether a stop condition holds for the current state.
func (s *Session) ShouldStop() bool {
	_, stop := s.seat.evaluateStop(s.cfg)
	return stop
}

// StopReason returns the recorded reason once the session is terminal, or
// StopNone while it is still running.
func (s *Session) StopReason() StopReason { return s.seat.reason }

// HandsPlayed returns the number of hands played so far.
func (s *Session) HandsPlayed() int { return s.seat.hands }

// Bankroll returns the current bankroll.
func (s *Session) Bankroll() float64 { return s.seat.bankroll }

// Profit returns the running session profit.
func (s *Session) Profit() float64 { return s.seat.profit }

// Streak returns the signed streak counter: positive for consecutive wins,
// negative for consecutive losses, zero for none.
func (s *Session) Streak() int { return s.seat.streak }

// RunToCompletion plays hands until a stop condition fires and returns the
// immutable session result.
func (s *Session) RunToCompletion() Result {
	for {
		s.PlayHand()
		if reason, stop := s.seat.evaluateStop(s.cfg); stop {
			s.seat.stopped = true
			s.seat.reason = reason
			break
		}
	}
	return s.seat.result(s.cfg)
}
