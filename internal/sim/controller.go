// Package sim runs large batches of sessions across a worker pool while
// keeping the output bit-identical to a sequential run. The controller
// derives every per-session seed from the master generator before any worker
// starts, so worker count and completion order can never influence a result.
package sim

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/hollis/wagersim/internal/rng"
	"github.com/hollis/wagersim/internal/session"
	"github.com/hollis/wagersim/internal/stats"
)

// Config drives one simulation run.
type Config struct {
	// Session is the per-session configuration shared by every session.
	Session session.Config
	// NumSessions is the number of independent sessions to simulate.
	NumSessions int
	// Workers is the parallelism degree. Zero means one worker per CPU.
	Workers int
	// Seed is the deterministic base seed. Zero draws a seed from OS entropy;
	// the drawn value is reported in the results so the run can be replayed.
	Seed int64
	// Crypto switches every derived source to OS entropy. The run is then
	// intentionally not reproducible.
	Crypto bool
}

// Validate checks the run invariants that are not covered by the session
// config's own validation.
func (c Config) Validate() error {
	if c.NumSessions < 1 {
		return fmt.Errorf("session count must be at least 1, got %d", c.NumSessions)
	}
	if c.Workers < 0 {
		return fmt.Errorf("worker count must be non-negative, got %d", c.Workers)
	}
	if c.Seed < 0 {
		return fmt.Errorf("seed must be non-negative, got %d", c.Seed)
	}
	return c.Session.Validate()
}

// Results is the immutable outcome of a completed run. Sessions is ordered
// by session index, never by completion order.
type Results struct {
	Config     Config
	Sessions   []session.Result
	Aggregate  *stats.Aggregate
	Seed       int64
	Workers    int
	TotalHands int
	StartedAt  time.Time
	FinishedAt time.Time
	Elapsed    time.Duration
}

// StrategyFactory builds a fresh bet strategy. The controller calls it once
// per worker; strategies are stateful, so a single instance must never be
// shared across concurrently running sessions.
type StrategyFactory func() session.BetStrategy

// Controller owns the random-source manager for a run and fans sessions out
// across workers. It is single-use: construct, Run (or RunTables), read the
// results.
type Controller struct {
	cfg     Config
	manager *rng.Manager
	clock   quartz.Clock
	logger  *log.Logger
}

// ControllerOption configures a Controller at construction.
type ControllerOption func(*Controller)

// WithClock injects the time source. Tests use a mock clock; production uses
// the real one.
func WithClock(clk quartz.Clock) ControllerOption {
	return func(c *Controller) { c.clock = clk }
}

// WithLogger injects the run logger.
func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// NewController validates cfg and builds the controller plus its owned
// source manager.
func NewController(cfg Config, opts ...ControllerOption) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	var mopts []rng.Option
	if cfg.Crypto {
		mopts = append(mopts, rng.WithCrypto())
	}
	var manager *rng.Manager
	var err error
	if cfg.Seed == 0 {
		manager, err = rng.NewManagerFromEntropy(mopts...)
	} else {
		manager, err = rng.NewManager(cfg.Seed, mopts...)
	}
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:     cfg,
		manager: manager,
		clock:   quartz.NewReal(),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Seed returns the base seed in effect, including one drawn from entropy.
func (c *Controller) Seed() int64 { return c.manager.BaseSeed() }

// Manager exposes the controller's source manager for checkpointing.
func (c *Controller) Manager() *rng.Manager { return c.manager }

// Run simulates cfg.NumSessions independent sessions of dealer under the
// strategies produced by newStrategy and returns the aggregated results.
// Any worker error aborts the whole run.
func (c *Controller) Run(ctx context.Context, dealer session.HandDealer, newStrategy StrategyFactory) (*Results, error) {
	workers := c.workerCount()
	startedAt := c.clock.Now()

	// All seeds come out of the master generator before the index range is
	// split into shards. This is the determinism linchpin.
	seeds, err := c.manager.SessionSeeds(c.cfg.NumSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to derive session seeds: %w", err)
	}

	c.logger.Info("starting run",
		"sessions", c.cfg.NumSessions,
		"workers", workers,
		"seed", c.manager.BaseSeed(),
		"crypto", c.cfg.Crypto,
	)

	results := make([]session.Result, c.cfg.NumSessions)
	g, gctx := errgroup.WithContext(ctx)
	for _, shard := range partition(c.cfg.NumSessions, workers) {
		g.Go(func() error {
			strat := newStrategy()
			for i := shard.start; i < shard.end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := session.New(c.cfg.Session, dealer, strat, rng.SourceForSeed(seeds[i]))
				if err != nil {
					return fmt.Errorf("session %d: %w", i, err)
				}
				results[i] = s.RunToCompletion()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run aborted: %w", err)
	}

	agg, err := stats.Compute(results)
	if err != nil {
		return nil, err
	}

	finishedAt := c.clock.Now()
	res := &Results{
		Config:     c.cfg,
		Sessions:   results,
		Aggregate:  agg,
		Seed:       c.manager.BaseSeed(),
		Workers:    workers,
		TotalHands: agg.TotalHands,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Elapsed:    finishedAt.Sub(startedAt),
	}
	c.logger.Info("run complete",
		"sessions", res.Aggregate.Sessions,
		"hands", res.TotalHands,
		"net_profit", res.Aggregate.NetProfit,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// TableResults is the outcome of a completed table-mode run, ordered by
// table index.
type TableResults struct {
	Config      Config
	TableConfig session.TableConfig

	Tables     []session.TableResult
	Aggregate  *stats.Aggregate
	Seed       int64
	Workers    int
	StartedAt  time.Time
	FinishedAt time.Time
	Elapsed    time.Duration
}

// RunTables simulates cfg.NumSessions independent table sessions. Each table
// gets one seed and one source; seats on a table share the source through
// the round dealer, which is what keeps the shared community draw coherent.
func (c *Controller) RunTables(ctx context.Context, tcfg session.TableConfig, dealer session.RoundDealer, newStrategy StrategyFactory) (*TableResults, error) {
	if err := tcfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table config: %w", err)
	}
	workers := c.workerCount()
	startedAt := c.clock.Now()

	seeds, err := c.manager.SessionSeeds(c.cfg.NumSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to derive table seeds: %w", err)
	}

	c.logger.Info("starting table run",
		"tables", c.cfg.NumSessions,
		"seats", tcfg.Seats,
		"workers", workers,
		"seed", c.manager.BaseSeed(),
	)

	results := make([]session.TableResult, c.cfg.NumSessions)
	g, gctx := errgroup.WithContext(ctx)
	for _, shard := range partition(c.cfg.NumSessions, workers) {
		g.Go(func() error {
			strats := make([]session.BetStrategy, tcfg.Seats)
			for s := range strats {
				strats[s] = newStrategy()
			}
			for i := shard.start; i < shard.end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				t, err := session.NewTable(tcfg, dealer, strats, rng.SourceForSeed(seeds[i]))
				if err != nil {
					return fmt.Errorf("table %d: %w", i, err)
				}
				results[i] = t.RunToCompletion()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("table run aborted: %w", err)
	}

	agg, err := stats.ComputeTable(results)
	if err != nil {
		return nil, err
	}

	finishedAt := c.clock.Now()
	res := &TableResults{
		Config:      c.cfg,
		TableConfig: tcfg,
		Tables:      results,
		Aggregate:   agg,
		Seed:        c.manager.BaseSeed(),
		Workers:     workers,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Elapsed:     finishedAt.Sub(startedAt),
	}
	c.logger.Info("table run complete",
		"tables", len(res.Tables),
		"seat_sessions", res.Aggregate.Sessions,
		"net_profit", res.Aggregate.NetProfit,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

func (c *Controller) workerCount() int {
	if c.cfg.Workers > 0 {
		return c.cfg.Workers
	}
	return runtime.NumCPU()
}

// shard is a half-open contiguous range of session indices.
type shard struct {
	start, end int
}

// partition splits n indices into at most workers contiguous shards, the
// first n%workers of them one element larger. Contiguity keeps each worker's
// writes to the results slice disjoint and cache-friendly.
func partition(n, workers int) []shard {
	if workers > n {
		workers = n
	}
	shards := make([]shard, 0, workers)
	base := n / workers
	rem := n % workers
	start := 0
	for w := 0; w < workers; w++ {
		size := base
		if w < rem {
			size++
		}
		shards = append(shards, shard{start: start, end: start + size})
		start += size
	}
	return shards
}
