package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bluess1/Troulette/cmd/troulette/shared"
	"github.com/bluess1/Troulette/internal/bot"
	"github.com/bluess1/Troulette/internal/client"
	"github.com/bluess1/Troulette/internal/roulette"
)

// BotsCmd seats scripted players at a running table
type BotsCmd struct {
	Server   string `short:"s" default:"http://localhost:3000" help:"Server URL to connect to"`
	Count    int    `short:"n" default:"3" help:"Number of bots"`
	Rounds   int    `short:"r" default:"0" help:"Rounds to play before leaving, 0 to play until interrupted"`
	Strategy string `default:"random" enum:"random,martingale" help:"Betting strategy (random, martingale)"`
	Stake    int    `default:"10" help:"Base stake per bet"`
	Seed     *int64 `help:"Deterministic RNG seed for bot choices (optional)"`
	Leader   bool   `default:"true" negatable:"" help:"Let the first bot request spins"`
	Debug    bool   `help:"Enable debug logging"`
}

func (c *BotsCmd) Run() error {
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	logger := shared.SetupLogger(os.Stderr, "info", c.Debug)
	ctx := shared.SetupSignalHandler(logger)

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Info("Starting bots", "count", c.Count, "strategy", c.Strategy, "stake", c.Stake, "seed", seed)

	bots := make([]*bot.Bot, 0, c.Count)
	for i := range c.Count {
		strategy, err := bot.NewStrategy(c.Strategy, c.Stake)
		if err != nil {
			return err
		}

		wsClient := client.NewClient(c.Server, logger)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = wsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("bot %d failed to connect: %w", i, err)
		}
		defer func() { _ = wsClient.Disconnect() }()

		bots = append(bots, bot.New(wsClient, fmt.Sprintf("%s-%d", c.Strategy, i+1), strategy,
			roulette.NewRand(seed+int64(i)), bot.Options{Leader: c.Leader && i == 0, Rounds: c.Rounds}, logger))
	}

	return bot.RunAll(ctx, bots)
}
