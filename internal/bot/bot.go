// Package bot provides scripted table participants used for demos and soak
// runs against a live server.
package bot

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/bluess1/Troulette/internal/client"
	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/protocol"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ErrDisconnected is returned when the server closes the connection before
// the bot finished its rounds.
var ErrDisconnected = errors.New("disconnected from table")

// Bot joins a table over a client connection and bets every round.
type Bot struct {
	client   *client.Client
	name     string
	strategy Strategy
	rng      *rand.Rand
	leader   bool
	rounds   int
	logger   *log.Logger

	// Dispatch-goroutine state
	round    int
	betRound int
	spun     int
	balance  int
	last     *Result
	settled  int
	broke    bool
	finished chan struct{}
}

// Options tune a bot.
type Options struct {
	// Leader bots request the spin once the round has a bet.
	Leader bool
	// Rounds is how many settlements to watch before returning. Zero means
	// run until the context is cancelled.
	Rounds int
}

// New creates a bot using an already connected client.
func New(c *client.Client, name string, strategy Strategy, rng *rand.Rand, opts Options, logger *log.Logger) *Bot {
	return &Bot{
		client:   c,
		name:     name,
		strategy: strategy,
		rng:      rng,
		leader:   opts.Leader,
		rounds:   opts.Rounds,
		logger:   logger.WithPrefix("bot").With("name", name),
		finished: make(chan struct{}),
	}
}

// Run joins the table and plays until the round limit is reached, the
// context is cancelled or the connection drops.
func (b *Bot) Run(ctx context.Context) error {
	removers := []func(){
		b.client.AddEventHandler(protocol.MessageTypeJoined, b.onJoined),
		b.client.AddEventHandler(protocol.MessageTypeBettingStarted, b.onBettingStarted),
		b.client.AddEventHandler(protocol.MessageTypeBetPlaced, b.onBetPlaced),
		b.client.AddEventHandler(protocol.MessageTypeSpinResult, b.onSpinResult),
		b.client.AddEventHandler(protocol.MessageTypeError, b.onError),
	}
	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()

	if _, err := b.client.Join(b.name, ""); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	select {
	case <-b.finished:
		b.logger.Info("Finished", "rounds", b.settled, "balance", b.balance)
		return nil
	case <-ctx.Done():
		return nil
	case <-b.client.Done():
		return ErrDisconnected
	}
}

func (b *Bot) onJoined(msg *protocol.Message) {
	var ev coordinator.JoinedEvent
	if err := msg.Decode(&ev); err != nil {
		b.logger.Error("Failed to parse joined", "error", err)
		return
	}
	b.balance = ev.Player.Balance
	b.round = ev.Round.Round
	if ev.Round.Phase == coordinator.PhaseBetting {
		b.bet()
	}
}

func (b *Bot) onBettingStarted(msg *protocol.Message) {
	var ev coordinator.BettingStartedEvent
	if err := msg.Decode(&ev); err != nil {
		b.logger.Error("Failed to parse bettingStarted", "error", err)
		return
	}
	b.round = ev.Round
	b.bet()
}

func (b *Bot) bet() {
	if b.betRound == b.round || b.isFinished() {
		return
	}
	b.betRound = b.round

	wager, ok := b.strategy.NextWager(b.rng, b.balance, b.last)
	b.last = nil
	if !ok {
		if !b.broke {
			b.logger.Info("Sitting out", "balance", b.balance)
		}
		b.broke = true
		return
	}
	b.broke = false

	if _, err := b.client.PlaceBet(wager); err != nil {
		b.logger.Warn("Failed to send bet", "error", err)
		return
	}
	b.logger.Debug("Bet", "round", b.round, "type", wager.Type, "amount", wager.Amount)
}

func (b *Bot) onBetPlaced(msg *protocol.Message) {
	if !b.leader || b.spun == b.round {
		return
	}
	var ev coordinator.BetPlacedEvent
	if err := msg.Decode(&ev); err != nil {
		b.logger.Error("Failed to parse betPlaced", "error", err)
		return
	}
	// Wait for our own bet unless we have nothing to stake.
	if ev.Bet.PlayerID != b.client.PlayerID() && !b.broke {
		return
	}
	b.spun = b.round
	if _, err := b.client.Spin(); err != nil {
		b.logger.Warn("Failed to request spin", "error", err)
	}
}

func (b *Bot) onSpinResult(msg *protocol.Message) {
	if b.isFinished() {
		return
	}
	var ev coordinator.SpinResultEvent
	if err := msg.Decode(&ev); err != nil {
		b.logger.Error("Failed to parse spinResult", "error", err)
		return
	}

	id := b.client.PlayerID()
	result := &Result{}
	for _, r := range ev.Results {
		if r.PlayerID != id {
			continue
		}
		result.Staked += r.Staked
		result.Won = result.Won || r.Won
	}
	b.last = result
	for _, p := range ev.UpdatedPlayers {
		if p.ID == id {
			b.balance = p.Balance
		}
	}

	b.settled++
	b.logger.Debug("Settled", "round", ev.Round, "number", ev.Outcome.Number, "balance", b.balance)
	if b.rounds > 0 && b.settled == b.rounds {
		close(b.finished)
	}
}

func (b *Bot) onError(msg *protocol.Message) {
	var data protocol.ErrorData
	if err := msg.Decode(&data); err != nil {
		return
	}
	// Losing the race against the leader's spin is routine.
	b.logger.Debug("Rejected", "code", data.Code, "message", data.Message)
}

func (b *Bot) isFinished() bool {
	select {
	case <-b.finished:
		return true
	default:
		return false
	}
}

// RunAll runs bots concurrently and returns the first error.
func RunAll(ctx context.Context, bots []*Bot) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range bots {
		g.Go(func() error {
			return b.Run(ctx)
		})
	}
	return g.Wait()
}
