package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bluess1/Troulette/cmd/troulette/shared"
	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/bluess1/Troulette/internal/server"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ServerCmd runs one table behind the websocket server
type ServerCmd struct {
	Config        string         `short:"c" default:"troulette-server.hcl" help:"Path to HCL configuration file"`
	Addr          string         `short:"a" help:"Address to bind to (overrides config)"`
	Port          int            `short:"p" help:"Port to listen on (overrides config)"`
	LogLevel      string         `short:"l" help:"Log level (overrides config)"`
	Debug         bool           `help:"Enable debug logging"`
	BettingWindow *time.Duration `help:"Betting window, 0 for manual spins only (overrides config)"`
	Seed          *int64         `help:"Deterministic wheel seed (overrides config)"`
	Monitor       string         `default:"none" enum:"none,dots" help:"Round monitor to print to stdout (none, dots)"`
	Stats         bool           `help:"Collect table statistics and serve them on /stats"`
	StatsFile     string         `help:"Write the statistics summary to this file on shutdown (implies --stats)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Apply command line overrides
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.BettingWindow != nil {
		cfg.Table.BettingWindow = c.BettingWindow.String()
	}
	if c.Seed != nil {
		cfg.Table.Seed = *c.Seed
	}

	tableCfg, err := cfg.CoordinatorConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := shared.SetupLogger(os.Stderr, cfg.Server.LogLevel, c.Debug)

	srv, err := server.NewServer(cfg.GetServerAddress(), logger)
	if err != nil {
		return err
	}

	opts := []coordinator.Option{coordinator.WithPublisher(srv)}
	if cfg.Table.Seed != 0 {
		logger.Info("Using deterministic seed", "seed", cfg.Table.Seed)
		opts = append(opts, coordinator.WithOutcomeSource(roulette.NewSeededWheel(cfg.Table.Seed)))
	}
	coord := coordinator.New(tableCfg, logger, opts...)
	srv.SetCoordinator(coord)

	var monitors []server.RoundMonitor
	if c.Monitor == "dots" {
		monitors = append(monitors, server.NewDotsMonitor(os.Stdout))
	}
	var stats *server.StatsMonitor
	if c.Stats || c.StatsFile != "" {
		stats = server.NewStatsMonitor()
		monitors = append(monitors, stats)
	}
	srv.SetMonitor(monitors...)

	logger.Info("Starting Troulette server",
		"addr", cfg.GetServerAddress(),
		"startingBalance", tableCfg.StartingBalance,
		"window", tableCfg.BettingWindow,
		"spin", tableCfg.SpinDuration,
		"historySize", tableCfg.HistorySize)

	ctx := shared.SetupSignalHandler(logger)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return coord.Run(ctx)
	})
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	err = g.Wait()
	if stats != nil {
		c.reportStats(logger, stats)
	}
	return err
}

func (c *ServerCmd) reportStats(logger *log.Logger, stats *server.StatsMonitor) {
	summary := stats.Summary()
	logger.Info("Table statistics",
		"rounds", summary.Rounds,
		"bets", summary.Bets,
		"staked", summary.TotalStaked,
		"paid", summary.TotalPaid,
		"houseEdge", fmt.Sprintf("%.4f", summary.HouseEdge),
		"hot", summary.HotNumbers)
	if err := stats.Validate(); err != nil {
		logger.Error("Statistics inconsistent", "error", err)
	}
	if c.StatsFile == "" {
		return
	}
	if err := stats.WriteSummary(c.StatsFile); err != nil {
		logger.Error("Failed to write statistics", "file", c.StatsFile, "error", err)
		return
	}
	logger.Info("Wrote statistics", "file", c.StatsFile)
}
