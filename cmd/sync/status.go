package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	synclogadapters "stock_sync/internal/feature/synclog/adapters"
	"stock_sync/internal/platform/db"
)

type statusCmd struct {
	limit int
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show the most recent runs of each job" }
func (*statusCmd) Usage() string {
	return `sync [-config <file>] status [-n <count>] [job...]

  Lists recent job log entries, newest first. Without arguments every job is shown.
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 5, "number of runs per job")
}

func (c *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	names := f.Args()
	if len(names) == 0 {
		for _, jc := range jobCommands {
			names = append(names, jc.job)
		}
	}

	gdb, err := db.OpenDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	runs := synclogadapters.NewSyncRunRepository(gdb)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tSTATUS\tSTARTED\tDURATION\tRECORDS\tERROR")
	for _, name := range names {
		rows, err := runs.Latest(ctx, name, c.limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		for _, r := range rows {
			duration, message := "-", ""
			if r.CompletedAt != nil {
				duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
			}
			if r.ErrorMessage != nil {
				message = *r.ErrorMessage
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				r.JobName, r.Status, r.StartedAt.Format(time.RFC3339), duration, r.RecordsProcessed, message)
		}
	}
	if err := w.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
