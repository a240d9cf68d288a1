// Package config loads run configuration from HCL files. A run file fully
// describes a simulation, which makes a run reproducible from the file plus
// the reported seed alone.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/hollis/wagersim/internal/game"
	"github.com/hollis/wagersim/internal/session"
	"github.com/hollis/wagersim/internal/sim"
)

// RunConfig represents a complete run file.
type RunConfig struct {
	Simulation SimulationSettings `hcl:"simulation,block"`
	Session    SessionSettings    `hcl:"session,block"`
	Table      *TableSettings     `hcl:"table,block"`
	Game       *GameSettings      `hcl:"game,block"`
	Strategy   *StrategySettings  `hcl:"strategy,block"`
}

// SimulationSettings contains run-level configuration.
type SimulationSettings struct {
	Sessions int   `hcl:"sessions"`
	Workers  int   `hcl:"workers,optional"`
	Seed     int64 `hcl:"seed,optional"`
	Crypto   bool  `hcl:"crypto,optional"`
}

// SessionSettings contains the per-session stop conditions and sizing.
type SessionSettings struct {
	Bankroll    float64 `hcl:"bankroll"`
	BaseBet     float64 `hcl:"base_bet"`
	WinLimit    float64 `hcl:"win_limit,optional"`
	LossLimit   float64 `hcl:"loss_limit,optional"`
	MaxHands    int     `hcl:"max_hands,optional"`
	StopOnBroke bool    `hcl:"stop_on_broke,optional"`
	BonusBet    float64 `hcl:"bonus_bet,optional"`
}

// TableSettings enables multi-seat table mode.
type TableSettings struct {
	Seats int `hcl:"seats"`
}

// GameSettings overrides the built-in game probabilities and payouts.
type GameSettings struct {
	WinProb      float64 `hcl:"win_prob,optional"`
	PushProb     float64 `hcl:"push_prob,optional"`
	WinPayout    float64 `hcl:"win_payout,optional"`
	RiskMultiple float64 `hcl:"risk_multiple,optional"`
	BonusWinProb float64 `hcl:"bonus_win_prob,optional"`
	BonusPayout  float64 `hcl:"bonus_payout,optional"`
}

// StrategySettings selects the bet-sizing strategy.
type StrategySettings struct {
	Name string `hcl:"name"`
}

// DefaultRunConfig returns the configuration used when no run file is given:
// a flat-betting bankroll-survival run over the default game.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Simulation: SimulationSettings{Sessions: 10000},
		Session: SessionSettings{
			Bankroll:    1000,
			BaseBet:     10,
			MaxHands:    100,
			StopOnBroke: true,
		},
		Strategy: &StrategySettings{Name: "flat"},
	}
}

// Load parses an HCL run file. A missing file yields the defaults, matching
// how the rest of the tooling treats optional config.
func Load(filename string) (*RunConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultRunConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg RunConfig
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if cfg.Strategy == nil {
		cfg.Strategy = &StrategySettings{Name: "flat"}
	}
	return &cfg, nil
}

// SimConfig converts the file representation into the controller's config.
func (c *RunConfig) SimConfig() sim.Config {
	return sim.Config{
		Session: session.Config{
			StartingBankroll: c.Session.Bankroll,
			BaseBet:          c.Session.BaseBet,
			WinLimit:         c.Session.WinLimit,
			LossLimit:        c.Session.LossLimit,
			MaxHands:         c.Session.MaxHands,
			StopOnBroke:      c.Session.StopOnBroke,
			BonusBet:         c.Session.BonusBet,
		},
		NumSessions: c.Simulation.Sessions,
		Workers:     c.Simulation.Workers,
		Seed:        c.Simulation.Seed,
		Crypto:      c.Simulation.Crypto,
	}
}

// GameRules resolves the game block over the built-in defaults. Only fields
// the file sets explicitly override the default; a zero probability in the
// file means "unset", never "impossible".
func (c *RunConfig) GameRules() game.Rules {
	rules := game.DefaultRules()
	if c.Game == nil {
		return rules
	}
	if c.Game.WinProb > 0 {
		rules.WinProb = c.Game.WinProb
	}
	if c.Game.PushProb > 0 {
		rules.PushProb = c.Game.PushProb
	}
	if c.Game.WinPayout > 0 {
		rules.WinPayout = c.Game.WinPayout
	}
	if c.Game.RiskMultiple > 0 {
		rules.RiskMultiple = c.Game.RiskMultiple
	}
	if c.Game.BonusWinProb > 0 {
		rules.BonusWinProb = c.Game.BonusWinProb
	}
	if c.Game.BonusPayout > 0 {
		rules.BonusPayout = c.Game.BonusPayout
	}
	return rules
}

// TableConfig resolves table mode, if the file enables it.
func (c *RunConfig) TableConfig() (session.TableConfig, bool) {
	if c.Table == nil {
		return session.TableConfig{}, false
	}
	return session.TableConfig{
		Config: c.SimConfig().Session,
		Seats:  c.Table.Seats,
	}, true
}

// StrategyName returns the selected strategy name.
func (c *RunConfig) StrategyName() string {
	if c.Strategy == nil {
		return "flat"
	}
	return c.Strategy.Name
}
