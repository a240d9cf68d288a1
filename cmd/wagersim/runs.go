package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/hollis/wagersim/internal/store"
)

type RunsCmd struct {
	DB    string `required:"" help:"SQLite database to read" type:"path"`
	Limit int    `default:"20" help:"Maximum number of runs to list"`
}

func (c *RunsCmd) Run(logger *log.Logger) error {
	db, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %10s  %8s  %10s  %8s  %s\n",
		"ID", "STARTED", "SESSIONS", "WIN%", "NET", "EV/HAND", "STRATEGY")
	for _, run := range runs {
		fmt.Printf("%-36s  %-19s  %10d  %7.2f%%  %10.2f  %8.4f  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Sessions,
			run.WinRate*100,
			run.NetProfit,
			run.EVPerHand,
			run.Strategy)
	}
	return nil
}
