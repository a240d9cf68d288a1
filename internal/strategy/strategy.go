// Package strategy ships the built-in bet-sizing strategies. Each one
// implements session.BetStrategy and is selected by name; sessions hold the
// interface, never a concrete type.
package strategy

import (
	"fmt"
	"math"

	"github.com/hollis/wagersim/internal/session"
)

// New returns the named strategy sized around baseBet.
func New(name string, baseBet float64) (session.BetStrategy, error) {
	switch name {
	case "flat", "":
		return NewFlat(baseBet), nil
	case "martingale":
		return NewMartingale(baseBet), nil
	case "paroli":
		return NewParoli(baseBet, 3), nil
	case "dalembert":
		return NewDAlembert(baseBet), nil
	case "streak":
		return NewStreakPress(baseBet, 2), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Names lists the selectable strategy names.
func Names() []string {
	return []string{"flat", "martingale", "paroli", "dalembert", "streak"}
}

// Flat always wagers the base bet.
type Flat struct {
	base float64
}

func NewFlat(base float64) *Flat { return &Flat{base: base} }

func (f *Flat) NextBet(ctx session.BettingContext) float64 {
	return clampToBankroll(f.base, ctx)
}
func (f *Flat) RecordResult(net float64) {}
func (f *Flat) Reset()                   {}

// Martingale doubles the wager after every loss and resets to the base bet
// after a win or push.
type Martingale struct {
	base    float64
	current float64
}

func NewMartingale(base float64) *Martingale {
	return &Martingale{base: base, current: base}
}

func (m *Martingale) NextBet(ctx session.BettingContext) float64 {
	return clampToBankroll(m.current, ctx)
}

func (m *Martingale) RecordResult(net float64) {
	if net < 0 {
		m.current *= 2
	} else {
		m.current = m.base
	}
}

func (m *Martingale) Reset() { m.current = m.base }

// Paroli doubles after a win up to a fixed number of presses, then resets.
// A loss or push also resets.
type Paroli struct {
	base       float64
	maxPresses int
	presses    int
}

func NewParoli(base float64, maxPresses int) *Paroli {
	return &Paroli{base: base, maxPresses: maxPresses}
}

func (p *Paroli) NextBet(ctx session.BettingContext) float64 {
	bet := p.base * math.Pow(2, float64(p.presses))
	return clampToBankroll(bet, ctx)
}

func (p *Paroli) RecordResult(net float64) {
	if net > 0 && p.presses < p.maxPresses {
		p.presses++
	} else if net <= 0 {
		p.presses = 0
	}
}

func (p *Paroli) Reset() { p.presses = 0 }

// DAlembert adds one base unit after a loss and removes one after a win,
// never dropping below a single unit.
type DAlembert struct {
	base  float64
	units int
}

func NewDAlembert(base float64) *DAlembert {
	return &DAlembert{base: base, units: 1}
}

func (d *DAlembert) NextBet(ctx session.BettingContext) float64 {
	return clampToBankroll(d.base*float64(d.units), ctx)
}

func (d *DAlembert) RecordResult(net float64) {
	switch {
	case net < 0:
		d.units++
	case net > 0 && d.units > 1:
		d.units--
	}
}

func (d *DAlembert) Reset() { d.units = 1 }

// StreakPress wagers the base bet until the win streak reaches the trigger,
// then doubles for as long as the streak holds.
type StreakPress struct {
	base    float64
	trigger int
}

func NewStreakPress(base float64, trigger int) *StreakPress {
	return &StreakPress{base: base, trigger: trigger}
}

func (s *StreakPress) NextBet(ctx session.BettingContext) float64 {
	bet := s.base
	if ctx.Streak >= s.trigger {
		bet = s.base * 2
	}
	return clampToBankroll(bet, ctx)
}

func (s *StreakPress) RecordResult(net float64) {}
func (s *StreakPress) Reset()                   {}

// clampToBankroll keeps the wager coverable: the hand can put up to three
// units of the wager at risk, so cap the unit at a third of the bankroll.
func clampToBankroll(bet float64, ctx session.BettingContext) float64 {
	if max := ctx.Bankroll / 3; bet > max {
		bet = max
	}
	if bet < 0 {
		bet = 0
	}
	return bet
}
