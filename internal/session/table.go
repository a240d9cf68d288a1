package session

import (
	"fmt"
	rand "math/rand/v2"
)

// seatStatus makes the frozen-seat invariant structural: a stopped seat is
// excluded from a round's update before any wager or bankroll delta is
// recorded for it.
type seatStatus int

const (
	seatActive seatStatus = iota
	seatStopped
)

// TableSession runs N seats against one dealt round per tick. Each seat has
// an independent bankroll and stop state; the round loop continues until
// every seat has stopped.
type TableSession struct {
	cfg    TableConfig
	dealer RoundDealer
	src    *rand.Rand
	seats  []*seatState
	status []seatStatus
	rounds int
	done   bool
	reason StopReason
}

// NewTable validates cfg and builds a table session. strats must hold either
// one strategy shared by every seat or exactly one strategy per seat; each
// is reset for the new session.
func NewTable(cfg TableConfig, dealer RoundDealer, strats []BetStrategy, src *rand.Rand) (*TableSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table config: %w", err)
	}
	if len(strats) != 1 && len(strats) != cfg.Seats {
		return nil, fmt.Errorf("need 1 shared strategy or %d seat strategies, got %d", cfg.Seats, len(strats))
	}

	seats := make([]*seatState, cfg.Seats)
	status := make([]seatStatus, cfg.Seats)
	for i := range seats {
		strat := strats[0]
		if len(strats) == cfg.Seats {
			strat = strats[i]
		}
		seats[i] = newSeatState(cfg.Config, strat)
	}
	return &TableSession{
		cfg:    cfg,
		dealer: dealer,
		src:    src,
		seats:  seats,
		status: status,
	}, nil
}

// PlayRound deals one round to every active seat. Stopped seats are frozen:
// no wager, no bankroll delta, no streak update. Calling PlayRound after the
// table session terminated is a programming error and panics.
func (t *TableSession) PlayRound() {
	if t.done {
		panic("session: PlayRound called after table session stopped")
	}

	bets := make([]SeatBet, 0, t.cfg.Seats)
	for i, seat := range t.seats {
		if t.status[i] != seatActive {
			continue
		}
		bets = append(bets, SeatBet{
			Seat:  i,
			Wager: seat.strat.NextBet(seat.context(t.cfg.Config)),
			Bonus: t.cfg.BonusBet,
		})
	}

	outcomes := t.dealer.DealRound(bets, t.src)
	for j, bet := range bets {
		t.seats[bet.Seat].apply(outcomes[j])
	}
	t.rounds++

	stoppedThisRound := make([]bool, t.cfg.Seats)
	remaining := 0
	for i := range t.seats {
		if t.status[i] != seatActive {
			continue
		}
		if reason, stop := t.seats[i].evaluateStop(t.cfg.Config); stop {
			t.status[i] = seatStopped
			t.seats[i].stopped = true
			t.seats[i].reason = reason
			stoppedThisRound[i] = true
		} else {
			remaining++
		}
	}

	if remaining == 0 {
		t.done = true
		// The table-level reason comes from the highest-index seat that
		// stopped in this finishing round. This tie-break matches the
		// long-standing behavior downstream consumers rely on; it is not a
		// ranking of reasons.
		for i := t.cfg.Seats - 1; i >= 0; i-- {
			if stoppedThisRound[i] {
				t.reason = t.seats[i].reason
				break
			}
		}
	}
}

// Done reports whether every seat has stopped.
func (t *TableSession) Done() bool { return t.done }

// Rounds returns the number of rounds dealt so far.
func (t *TableSession) Rounds() int { return t.rounds }

// StopReason returns the table-level stop reason once the session is done.
func (t *TableSession) StopReason() StopReason { return t.reason }

// RunToCompletion deals rounds until every seat has stopped and returns the
// per-seat results plus the shared round count.
func (t *TableSession) RunToCompletion() TableResult {
	for !t.done {
		t.PlayRound()
	}
	results := make([]Result, len(t.seats))
	for i, seat := range t.seats {
		results[i] = seat.result(t.cfg.Config)
	}
	return TableResult{
		Seats:       results,
		TotalRounds: t.rounds,
		StopReason:  t.reason,
	}
}
