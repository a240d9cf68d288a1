package session

import (
	rand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptDealer replays a fixed sequence of net results, cycling when it runs
// out. AmountRisked is twice the wager, matching the built-in game.
type scriptDealer struct {
	nets []float64
	i    int
}

func (d *scriptDealer) Deal(wager, bonus float64, src *rand.Rand) HandOutcome {
	net := d.nets[d.i%len(d.nets)]
	d.i++
	out := HandOutcome{Net: net, AmountRisked: wager * 2}
	if bonus > 0 {
		out.AmountRisked += bonus
		out.BonusWagered = bonus
	}
	return out
}

// fixedBet wagers a constant amount and ignores feedback.
type fixedBet struct{ bet float64 }

func (f fixedBet) NextBet(ctx BettingContext) float64 { return f.bet }
func (f fixedBet) RecordResult(net float64)           {}
func (f fixedBet) Reset()                             {}

func baseConfig() Config {
	return Config{
		StartingBankroll: 1000,
		BaseBet:          10,
		MaxHands:         100,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero base bet", func(c *Config) { c.BaseBet = 0 }, true},
		{"negative bonus", func(c *Config) { c.BonusBet = -1 }, true},
		{"negative win limit", func(c *Config) { c.WinLimit = -10 }, true},
		{"negative max hands", func(c *Config) { c.MaxHands = -1 }, true},
		{"no stop condition", func(c *Config) { c.MaxHands = 0 }, true},
		{"bankroll below min wager", func(c *Config) { c.StartingBankroll = 29 }, true},
		{"bankroll exactly min wager", func(c *Config) { c.StartingBankroll = 30 }, false},
		{"stop on broke alone suffices", func(c *Config) { c.MaxHands = 0; c.StopOnBroke = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMinWagerIncludesBonus(t *testing.T) {
	cfg := Config{BaseBet: 10, BonusBet: 5}
	assert.Equal(t, 35.0, cfg.MinWager())
}

func TestStreakTracking(t *testing.T) {
	dealer := &scriptDealer{nets: []float64{50, 50, -25, 50}}
	s, err := New(baseConfig(), dealer, fixedBet{10}, nil)
	require.NoError(t, err)

	want := []int{1, 2, -1, 1}
	for i, expected := range want {
		s.PlayHand()
		assert.Equal(t, expected, s.Streak(), "after hand %d", i+1)
	}
}

func TestPushLeavesStreakUntouched(t *testing.T) {
	dealer := &scriptDealer{nets: []float64{50, 0, 0, -25, 0}}
	s, err := New(baseConfig(), dealer, fixedBet{10}, nil)
	require.NoError(t, err)

	want := []int{1, 1, 1, -1, -1}
	for i, expected := range want {
		s.PlayHand()
		assert.Equal(t, expected, s.Streak(), "after hand %d", i+1)
	}
}

func TestWinLimitBeatsMaxHands(t *testing.T) {
	cfg := baseConfig()
	cfg.WinLimit = 50
	cfg.MaxHands = 1

	dealer := &scriptDealer{nets: []float64{60}}
	s, err := New(cfg, dealer, fixedBet{10}, nil)
	require.NoError(t, err)

	res := s.RunToCompletion()
	assert.Equal(t, StopWinLimit, res.StopReason)
	assert.Equal(t, 1, res.HandsPlayed)
	assert.Equal(t, OutcomeWin, res.Outcome)
}

func TestLossLimitBeatsInsufficientFunds(t *testing.T) {
	cfg := Config{
		StartingBankroll: 100,
		BaseBet:          10,
		LossLimit:        80,
		StopOnBroke:      true,
	}

	// One hand loses 80: profit hits the loss limit and the remaining 20
	// cannot cover the 30 minimum wager at the same time.
	dealer := &scriptDealer{nets: []float64{-80}}
	s, err := New(cfg, dealer, fixedBet{10}, nil)
	require.NoError(t, err)

	res := s.RunToCompletion()
	assert.Equal(t, StopLossLimit, res.StopReason)
	assert.Equal(t, 20.0, res.FinalBankroll)
}

func TestInsufficientFundsStop(t *testing.T) {
	cfg := Config{
		StartingBankroll: 100,
		BaseBet:          10,
		StopOnBroke:      true,
	}

	dealer := &scriptDealer{nets: []float64{-75}}
	s, err := New(cfg, dealer, fixedBet{10}, nil)
	require.NoError(t, err)

	res := s.RunToCompletion()
	assert.Equal(t, StopInsufficientFunds, res.StopReason)
	assert.Equal(t, 25.0, res.FinalBankroll)
	assert.Equal(t, 1, res.HandsPlayed)
}

func TestMaxHandsStop(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxHands = 7

	dealer := &scriptDealer{nets: []float64{5, -5}}
	s, err := New(cfg, dealer, fixedBet{10}, nil)
	require.NoError(t, err)

	res := s.RunToCompletion()
	assert.Equal(t, StopMaxHands, res.StopReason)
	assert.Equal(t, 7, res.HandsPlayed)
}

func TestPlayHandAfterStopPanics(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxHands = 1

	dealer := &scriptDealer{nets: []float64{5}}
	s, err := New(cfg, dealer, fixedBet{10}, nil)
	require.NoError(t, err)
	s.RunToCompletion()

	assert.Panics(t, func() { s.PlayHand() })
}

func TestDrawdownTracking(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxHands = 2

	dealer := &scriptDealer{nets: []float64{100, -50}}
	s, err := New(cfg, dealer, fixedBet{10}, nil)
	require.NoError(t, err)

	res := s.RunToCompletion()
	assert.Equal(t, 1100.0, res.PeakBankroll)
	assert.Equal(t, 50.0, res.MaxDrawdown)
	assert.InDelta(t, 50.0/1100.0*100, res.MaxDrawdownPct, 1e-9)
}

func TestResultAccounting(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxHands = 3
	cfg.BonusBet = 2

	dealer := &scriptDealer{nets: []float64{10, -10, 0}}
	s, err := New(cfg, dealer, fixedBet{10}, nil)
	require.NoError(t, err)

	res := s.RunToCompletion()
	assert.Equal(t, OutcomePush, res.Outcome)
	assert.Equal(t, 0.0, res.Profit)
	assert.Equal(t, 3*(20.0+2.0), res.TotalWagered)
	assert.Equal(t, 6.0, res.BonusWagered)
}

func TestOutcomeClassification(t *testing.T) {
	assert.Equal(t, OutcomeWin, classify(0.01))
	assert.Equal(t, OutcomeLoss, classify(-0.01))
	assert.Equal(t, OutcomePush, classify(0))
}

func TestStopReasonText(t *testing.T) {
	for _, reason := range []StopReason{StopNone, StopWinLimit, StopLossLimit, StopMaxHands, StopInsufficientFunds} {
		text, err := reason.MarshalText()
		require.NoError(t, err)
		var parsed StopReason
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, reason, parsed)
	}
	var bad StopReason
	assert.Error(t, bad.UnmarshalText([]byte("jackpot")))
}
