package session

import (
	rand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptRoundDealer replays per-seat net results by round. It also records
// which seats wagered each round so tests can assert stopped seats are
// excluded.
type scriptRoundDealer struct {
	rounds   [][]float64 // indexed [round][seat]
	r        int
	betSeats [][]int
}

func (d *scriptRoundDealer) DealRound(bets []SeatBet, src *rand.Rand) []HandOutcome {
	seats := make([]int, len(bets))
	outs := make([]HandOutcome, len(bets))
	for i, bet := range bets {
		seats[i] = bet.Seat
		outs[i] = HandOutcome{
			Net:          d.rounds[d.r][bet.Seat],
			AmountRisked: bet.Wager * 2,
		}
	}
	d.betSeats = append(d.betSeats, seats)
	d.r++
	return outs
}

func tableConfig(seats int) TableConfig {
	return TableConfig{
		Config: Config{
			StartingBankroll: 1000,
			BaseBet:          10,
			MaxHands:         100,
		},
		Seats: seats,
	}
}

func TestNewTableValidation(t *testing.T) {
	dealer := &scriptRoundDealer{}

	cfg := tableConfig(0)
	_, err := NewTable(cfg, dealer, []BetStrategy{fixedBet{10}}, nil)
	assert.Error(t, err)

	cfg = tableConfig(3)
	_, err = NewTable(cfg, dealer, []BetStrategy{fixedBet{10}, fixedBet{10}}, nil)
	assert.Error(t, err, "strategy count must be 1 or match seats")

	_, err = NewTable(cfg, dealer, []BetStrategy{fixedBet{10}}, nil)
	assert.NoError(t, err)
}

func TestStoppedSeatsAreFrozen(t *testing.T) {
	cfg := tableConfig(2)
	cfg.LossLimit = 50
	cfg.WinLimit = 30

	// Seat 0 hits the loss limit in round 1; seat 1 grinds to the win limit
	// in round 3. Rounds 2 and 3 must not touch seat 0.
	dealer := &scriptRoundDealer{rounds: [][]float64{
		{-50, 10},
		{999, 10}, // seat 0 value unreachable once frozen
		{999, 10},
	}}
	ts, err := NewTable(cfg, dealer, []BetStrategy{fixedBet{10}}, nil)
	require.NoError(t, err)

	res := ts.RunToCompletion()
	assert.Equal(t, 3, res.TotalRounds)
	assert.Equal(t, [][]int{{0, 1}, {1}, {1}}, dealer.betSeats)

	seat0 := res.Seats[0]
	assert.Equal(t, StopLossLimit, seat0.StopReason)
	assert.Equal(t, 1, seat0.HandsPlayed)
	assert.Equal(t, -50.0, seat0.Profit)
	assert.Equal(t, 20.0, seat0.TotalWagered, "a frozen seat wagers nothing")

	seat1 := res.Seats[1]
	assert.Equal(t, StopWinLimit, seat1.StopReason)
	assert.Equal(t, 3, seat1.HandsPlayed)
	assert.Equal(t, 30.0, seat1.Profit)
}

func TestTableStopReasonHighestSeatWins(t *testing.T) {
	cfg := tableConfig(2)
	cfg.LossLimit = 50
	cfg.WinLimit = 50

	// Both seats stop in the same round for different reasons; the reason
	// from the highest-index seat is reported for the table.
	dealer := &scriptRoundDealer{rounds: [][]float64{
		{-50, 50},
	}}
	ts, err := NewTable(cfg, dealer, []BetStrategy{fixedBet{10}}, nil)
	require.NoError(t, err)

	res := ts.RunToCompletion()
	assert.Equal(t, StopWinLimit, res.StopReason)
	assert.Equal(t, StopLossLimit, res.Seats[0].StopReason)
	assert.Equal(t, StopWinLimit, res.Seats[1].StopReason)
}

func TestTableStopReasonFromFinishingRoundOnly(t *testing.T) {
	cfg := tableConfig(3)
	cfg.LossLimit = 50
	cfg.WinLimit = 30

	// Seat 2 stops first (round 1), then seats 0 and 1 stop together in
	// round 2. Seat 2's earlier reason must not win the tie-break: only
	// seats stopping in the finishing round count, highest index first.
	dealer := &scriptRoundDealer{rounds: [][]float64{
		{0, 0, 30},
		{-50, 30, 0},
	}}
	ts, err := NewTable(cfg, dealer, []BetStrategy{fixedBet{10}}, nil)
	require.NoError(t, err)

	res := ts.RunToCompletion()
	assert.Equal(t, 2, res.TotalRounds)
	assert.Equal(t, StopWinLimit, res.StopReason, "seat 1 outranks seat 0 in the finishing round")
	assert.Equal(t, StopWinLimit, res.Seats[2].StopReason)
	assert.Equal(t, StopLossLimit, res.Seats[0].StopReason)
}

func TestPlayRoundAfterDonePanics(t *testing.T) {
	cfg := tableConfig(1)
	cfg.MaxHands = 1

	dealer := &scriptRoundDealer{rounds: [][]float64{{5}, {5}}}
	ts, err := NewTable(cfg, dealer, []BetStrategy{fixedBet{10}}, nil)
	require.NoError(t, err)

	ts.RunToCompletion()
	assert.True(t, ts.Done())
	assert.Panics(t, func() { ts.PlayRound() })
}

func TestPerSeatStrategies(t *testing.T) {
	cfg := tableConfig(2)
	cfg.MaxHands = 1

	var sawWagers []float64
	dealer := &recordingRoundDealer{record: &sawWagers}
	ts, err := NewTable(cfg, dealer, []BetStrategy{fixedBet{10}, fixedBet{25}}, nil)
	require.NoError(t, err)

	ts.RunToCompletion()
	assert.Equal(t, []float64{10, 25}, sawWagers)
}

type recordingRoundDealer struct {
	record *[]float64
}

func (d *recordingRoundDealer) DealRound(bets []SeatBet, src *rand.Rand) []HandOutcome {
	outs := make([]HandOutcome, len(bets))
	for i, bet := range bets {
		*d.record = append(*d.record, bet.Wager)
		outs[i] = HandOutcome{Net: 0, AmountRisked: bet.Wager * 2}
	}
	return outs
}
