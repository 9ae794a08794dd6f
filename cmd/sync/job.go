package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"stock_sync/internal/app/di"
	eodusecase "stock_sync/internal/feature/eod/usecase"
	finusecase "stock_sync/internal/feature/financials/usecase"
	"stock_sync/internal/feature/jobs/transport/http/dto"
	logosusecase "stock_sync/internal/feature/logos/usecase"
	pricesusecase "stock_sync/internal/feature/prices/usecase"
	syncusecase "stock_sync/internal/feature/synclog/usecase"
	universeusecase "stock_sync/internal/feature/universe/usecase"
)

// jobCmd runs one sync job through the same runner the trigger endpoints use.
type jobCmd struct {
	name     string
	job      string
	synopsis string
}

var jobCommands = []*jobCmd{
	{name: "prices", job: pricesusecase.JobName, synopsis: "refresh live quotes (trading hours only)"},
	{name: "eod", job: eodusecase.JobName, synopsis: "record daily bars and derived metrics"},
	{name: "profiles", job: universeusecase.JobName, synopsis: "reconcile listings and refresh profiles"},
	{name: "financials", job: finusecase.JobName, synopsis: "sync statements, key metrics, peers and fund data"},
	{name: "logos", job: logosusecase.JobName, synopsis: "mirror external logos into object storage"},
}

func (c *jobCmd) Name() string     { return c.name }
func (c *jobCmd) Synopsis() string { return c.synopsis }
func (c *jobCmd) Usage() string {
	return fmt.Sprintf(`sync [-config <file>] %s

  Runs %s once and prints the result.
`, c.name, c.job)
}

func (c *jobCmd) SetFlags(f *flag.FlagSet) {}

func (c *jobCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	infra, err := di.OpenInfra(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer infra.Close()

	jobs, err := di.NewJobs(cfg, infra.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	job, ok := jobs.ByName(c.job)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown job %q\n", c.job)
		return subcommands.ExitFailure
	}

	out, err := di.NewRunner(infra.DB, infra.Redis, cfg.Jobs).Run(ctx, job)
	if err != nil {
		_ = json.NewEncoder(os.Stdout).Encode(dto.ErrorResponse{Error: err.Error()})
		return subcommands.ExitFailure
	}
	result := dto.JobResult{Status: out.Status, Message: out.Message}
	if out.Status == syncusecase.StatusOK {
		records := out.Records
		result.Records = &records
	}
	_ = json.NewEncoder(os.Stdout).Encode(result)
	return subcommands.ExitSuccess
}
