// Command sync runs a single sync job in-process, mints trigger tokens and shows recent runs.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"
	_ "time/tzdata"

	"github.com/google/subcommands"

	"stock_sync/internal/platform/config"
	"stock_sync/internal/platform/logging"
)

var configPath = flag.String("config", os.Getenv("CONFIG_FILE"), "path to config file (optional)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range jobCommands {
		commander.Register(c, "jobs")
	}
	commander.Register(&statusCmd{}, "")
	commander.Register(&tokenCmd{}, "")
	commander.ImportantFlag("config")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commander.Execute(ctx)
	stop()
	os.Exit(int(code))
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(os.Stderr, cfg.Log.Level)
	return cfg, nil
}
