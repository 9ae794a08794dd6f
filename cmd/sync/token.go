package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"stock_sync/internal/platform/triggerauth"
)

type tokenCmd struct {
	ttl    time.Duration
	issuer string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "mint a short-lived trigger token" }
func (*tokenCmd) Usage() string {
	return `sync [-config <file>] token [-ttl <duration>] [-issuer <name>]

  Prints a bearer token accepted by the /api/cron endpoints, signed with the trigger secret.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.ttl, "ttl", 0, "token lifetime (defaults to trigger.token_ttl)")
	f.StringVar(&c.issuer, "issuer", "sync-cli", "issuer claim")
}

func (c *tokenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.Trigger.Secret == "" {
		fmt.Fprintln(os.Stderr, "Error: trigger.secret (CRON_SECRET) is not set")
		return subcommands.ExitUsageError
	}

	ttl := c.ttl
	if ttl <= 0 {
		ttl = cfg.Trigger.TokenTTL
	}
	token, err := triggerauth.NewGenerator(cfg.Trigger.Secret, ttl).GenerateToken(c.issuer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}
