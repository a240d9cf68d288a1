package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/hollis/wagersim/internal/config"
	"github.com/hollis/wagersim/internal/game"
	"github.com/hollis/wagersim/internal/session"
	"github.com/hollis/wagersim/internal/sim"
	"github.com/hollis/wagersim/internal/stats"
	"github.com/hollis/wagersim/internal/store"
	"github.com/hollis/wagersim/internal/strategy"
)

type RunCmd struct {
	Config   string `help:"HCL run file" type:"path"`
	Sessions int    `help:"Number of sessions (overrides the run file)"`
	Workers  int    `help:"Worker count, 0 for one per CPU (overrides the run file)"`
	Seed     int64  `help:"Base seed, 0 to draw one from entropy (overrides the run file)"`
	Strategy string `help:"Bet strategy: flat, martingale, paroli, dalembert, streak"`
	Crypto   bool   `help:"Use OS entropy for all sources (not reproducible)"`
	DB       string `help:"Record the run in this SQLite database" type:"path"`
	State    string `help:"Write the post-run RNG checkpoint to this file" type:"path"`
}

func (c *RunCmd) Run(logger *log.Logger) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)

	simCfg := cfg.SimConfig()
	dealer, err := game.NewHouseGame(cfg.GameRules())
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

	fmt.Printf("Starting run: %d sessions, %s strategy (seed: %d)\n",
		simCfg.NumSessions, cfg.StrategyName(), ctrl.Seed())

	res, err := ctrl.Run(context.Background(), dealer, factory)
	if err != nil {
		return err
	}
	printSummary(res.Aggregate, res.Elapsed.String())

	if c.State != "" {
		if err := ctrl.Manager().SaveStateFile(c.State); err != nil {
			return err
		}
		fmt.Printf("RNG checkpoint written to %s\n", c.State)
	}
	if c.DB != "" {
		db, err := store.Open(c.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.SaveRun(context.Background(), res, cfg.StrategyName())
		if err != nil {
			return err
		}
		fmt.Printf("Run saved as %s\n", id)
	}
	return nil
}

func (c *RunCmd) applyOverrides(cfg *config.RunConfig) {
	if c.Sessions > 0 {
		cfg.Simulation.Sessions = c.Sessions
	}
	if c.Workers > 0 {
		cfg.Simulation.Workers = c.Workers
	}
	if c.Seed > 0 {
		cfg.Simulation.Seed = c.Seed
	}
	if c.Crypto {
		cfg.Simulation.Crypto = true
	}
	if c.Strategy != "" {
		cfg.Strategy = &config.StrategySettings{Name: c.Strategy}
	}
}

// strategyFactory validates the name once, then hands out fresh instances.
func strategyFactory(name string, baseBet float64) (sim.StrategyFactory, error) {
	if _, err := strategy.New(name, baseBet); err != nil {
		return nil, err
	}
	return func() session.BetStrategy {
		s, _ := strategy.New(name, baseBet)
		return s
	}, nil
}

func printSummary(agg *stats.Aggregate, elapsed string) {
	fmt.Printf("\n=== RESULTS ===\n")
	fmt.Printf("Sessions: %d (%d wins, %d losses, %d pushes)\n",
		agg.Sessions, agg.Wins, agg.Losses, agg.Pushes)
	fmt.Printf("Win rate: %.2f%%\n", agg.WinRate*100)
	fmt.Printf("Hands: %d, total wagered: %.2f\n", agg.TotalHands, agg.TotalWagered)
	fmt.Printf("Net profit: %.2f (EV %.4f/hand)\n", agg.NetProfit, agg.EVPerHand)
	fmt.Printf("Profit per session: mean %.2f, median %.2f, std dev %.2f\n",
		agg.MeanProfit, agg.MedianProfit, agg.StdDevProfit)
	fmt.Printf("Profit range: [%.2f, %.2f]\n", agg.MinProfit, agg.MaxProfit)

	cuts := make([]int, 0, len(agg.Percentiles))
	for p := range agg.Percentiles {
		cuts = append(cuts, p)
	}
	sort.Ints(cuts)
	for _, p := range cuts {
		fmt.Printf("  p%d: %.2f\n", p, agg.Percentiles[p])
	}

	fmt.Printf("Stop reasons:\n")
	for reason, n := range agg.StopReasons {
		fmt.Printf("  %s: %d (%.1f%%)\n", reason, n, agg.StopReasonRates[reason]*100)
	}
	fmt.Printf("Elapsed: %s\n", elapsed)
}
