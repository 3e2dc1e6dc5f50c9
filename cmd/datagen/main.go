// Command datagen regenerates the sales and inventory tables wholesale in the
// configured storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ceo-dashboard/internal/config"
	"ceo-dashboard/internal/generator"
	"ceo-dashboard/internal/observability"
	"ceo-dashboard/internal/services"
	"ceo-dashboard/internal/storage"
)

type options struct {
	configPath string
	days       int
	baseVolume float64
	seed       int64
	dir        string
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("datagen", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.configPath, "config", os.Getenv("CONFIG_FILE"), "path to a TOML config file")
	fs.IntVar(&o.days, "days", 0, "days of history to generate (default from config)")
	fs.Float64Var(&o.baseVolume, "base-volume", 0, "base daily revenue volume (default from config)")
	fs.Int64Var(&o.seed, "seed", 0, "random seed, 0 for time-based (default from config)")
	fs.StringVar(&o.dir, "dir", "", "output directory for the fs backend (default from config)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.days < 0 || o.baseVolume < 0 {
		return o, fmt.Errorf("days and base-volume must not be negative")
	}
	return o, nil
}

// apply overrides cfg with the flags that were set.
func (o options) apply(cfg *config.Config) {
	if o.days > 0 {
		cfg.Data.Days = o.days
	}
	if o.baseVolume > 0 {
		cfg.Data.BaseVolume = o.baseVolume
	}
	if o.seed != 0 {
		cfg.Data.Seed = o.seed
	}
	if o.dir != "" {
		cfg.Data.Dir = o.dir
	}
}

func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	opts.apply(cfg)

	logger := observability.NewLogger(cfg.Logger)

	backend, err := storage.OpenBackend(ctx, cfg.Data)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	start := time.Now()
	tables, err := storage.NewStore(backend, logger).Regenerate(ctx, generator.New(cfg.Data.Seed, time.Now), storage.GenerateOptions{
		Days:       cfg.Data.Days,
		BaseVolume: cfg.Data.BaseVolume,
	})
	if err != nil {
		return err
	}

	overview := services.Overview(tables.Transactions)
	logger.Info("tables regenerated",
		"backend", backend.Name(),
		"transactions", overview.Records,
		"inventory", len(tables.Inventory),
		"first_date", overview.FirstDate.Format(time.DateOnly),
		"last_date", overview.LastDate.Format(time.DateOnly),
		"total_revenue", overview.TotalRevenue,
		"duration", time.Since(start),
	)
	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("datagen failed", "error", err)
		os.Exit(1)
	}
}
