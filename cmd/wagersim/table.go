package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/hollis/wagersim/internal/config"
	"github.com/hollis/wagersim/internal/game"
	"github.com/hollis/wagersim/internal/session"
	"github.com/hollis/wagersim/internal/sim"
)

type TableCmd struct {
	Config   string `help:"HCL run file" type:"path"`
	Seats    int    `default:"4" help:"Seats per table (overrides the run file)"`
	Tables   int    `help:"Number of table sessions (overrides the run file)"`
	Workers  int    `help:"Worker count, 0 for one per CPU"`
	Seed     int64  `help:"Base seed, 0 to draw one from entropy"`
	Strategy string `help:"Bet strategy: flat, martingale, paroli, dalembert, streak"`
}

func (c *TableCmd) Run(logger *log.Logger) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Tables > 0 {
		cfg.Simulation.Sessions = c.Tables
	}
	if c.Workers > 0 {
		cfg.Simulation.Workers = c.Workers
	}
	if c.Seed > 0 {
		cfg.Simulation.Seed = c.Seed
	}
	if c.Strategy != "" {
		cfg.Strategy = &config.StrategySettings{Name: c.Strategy}
	}

	simCfg := cfg.SimConfig()
	tcfg, ok := cfg.TableConfig()
	if !ok {
		tcfg = session.TableConfig{Config: simCfg.Session, Seats: c.Seats}
	}

	dealer, err := game.NewTableGame(game.DefaultTableRules())
	if err != nil {
		return err
	}
	factory, err := strategyFactory(cfg.StrategyName(), simCfg.Session.BaseBet)
	if err != nil {
		return err
	}

	ctrl, err := sim.NewController(simCfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}

	fmt.Printf("Starting table run: %d tables x %d seats, %s strategy (seed: %d)\n",
		simCfg.NumSessions, tcfg.Seats, cfg.StrategyName(), ctrl.Seed())

	res, err := ctrl.RunTables(context.Background(), tcfg, dealer, factory)
	if err != nil {
		return err
	}

	var totalRounds int
	for _, tr := range res.Tables {
		totalRounds += tr.TotalRounds
	}
	fmt.Printf("Tables: %d, rounds dealt: %d\n", len(res.Tables), totalRounds)
	printSummary(res.Aggregate, res.Elapsed.String())
	return nil
}
