package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"

	"github.com/hollis/wagersim/internal/stats"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Verbose bool             `help:"Verbose logging"`

	Run      RunCmd      `cmd:"" help:"Run a batch of single-seat sessions"`
	Table    TableCmd    `cmd:"" help:"Run a batch of multi-seat table sessions"`
	CheckRNG CheckRNGCmd `cmd:"check-rng" help:"Run statistical quality checks on the random sources"`
	Runs     RunsCmd     `cmd:"" help:"List runs saved to the database"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("wagersim"),
		kong.Description("Deterministic parallel Monte Carlo simulator for wagering sessions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	level := log.WarnLevel
	if cli.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})
	if cli.Verbose {
		stats.SetLogger(zerolog.New(os.Stderr).With().Timestamp().Logger())
	}

	err := ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}
