package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// OutcomeSource draws one winning pocket per round.
type OutcomeSource interface {
	Spin() roulette.Outcome
}

type timerKind int

const (
	timerWindow timerKind = iota
	timerSpin
)

func (k timerKind) String() string {
	if k == timerSpin {
		return "spin"
	}
	return "window"
}

type timerEvent struct {
	kind timerKind
	gen  uint64
}

type command struct {
	ctx   context.Context
	name  string
	fn    func() (any, error)
	reply chan commandResult
}

type commandResult struct {
	value any
	err   error
}

// Coordinator runs the table. A single goroutine (Run) owns the ledgers, the
// phase and the timers; every public method is a command funneled through it.
type Coordinator struct {
	cfg       Config
	logger    *log.Logger
	clock     quartz.Clock
	outcomes  OutcomeSource
	publisher Publisher
	stash     *stash

	commands chan command
	timers   chan timerEvent
	done     chan struct{}
	runOnce  sync.Once

	// Owned by the loop goroutine.
	phase          Phase
	round          int
	roundStartedAt time.Time
	windowEndsAt   time.Time
	players        *roulette.PlayerLedger
	bets           *roulette.BetLedger
	history        *roulette.History
	lastOutcome    *roulette.Outcome
	departed       map[string]struct{}
	forfeited      map[string]string
	bank           int
	timer          *quartz.Timer
	timerGen       uint64

	haltMu  sync.RWMutex
	haltErr error

	// timerHandled receives every timer event once the loop has processed
	// it. Only set by tests.
	timerHandled chan timerKind
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock replaces the real clock, typically with quartz.NewMock in tests.
func WithClock(clock quartz.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithOutcomeSource replaces the random wheel.
func WithOutcomeSource(src OutcomeSource) Option {
	return func(c *Coordinator) { c.outcomes = src }
}

// WithPublisher sets where events are delivered.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// New creates a coordinator in the IDLE phase. Call Run to start processing.
func New(cfg Config, logger *log.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:       cfg,
		logger:    logger.WithPrefix("coordinator"),
		clock:     quartz.NewReal(),
		publisher: nopPublisher{},
		stash:     newStash(cfg.ReconnectGrace),
		commands:  make(chan command, 64),
		timers:    make(chan timerEvent, 8),
		done:      make(chan struct{}),
		phase:     PhaseIdle,
		players:   roulette.NewPlayerLedger(),
		bets:      roulette.NewBetLedger(),
		history:   roulette.NewHistory(cfg.HistorySize),
		departed:  make(map[string]struct{}),
		forfeited: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.outcomes == nil {
		c.outcomes = roulette.NewWheel(nil)
	}
	return c
}

// SetPublisher sets the event sink. It must be called before Run.
func (c *Coordinator) SetPublisher(p Publisher) {
	c.publisher = p
}

// Run processes commands and timer events until ctx is cancelled. It must be
// called at most once.
func (c *Coordinator) Run(ctx context.Context) error {
	ran := false
	c.runOnce.Do(func() { ran = true })
	if !ran {
		return errors.New("coordinator: already run")
	}
	defer close(c.done)
	defer c.stopTimer()

	c.logger.Info("Coordinator started",
		"window", c.cfg.BettingWindow,
		"spin", c.cfg.SpinDuration,
		"departedPolicy", c.cfg.DepartedPolicy,
		"wagerPolicy", c.cfg.WagerPolicy)

	for {
		// Pending commands always go first, so a manual spin that lands in
		// the same tick as the window expiry wins.
		select {
		case cmd := <-c.commands:
			c.execute(cmd)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			c.logger.Info("Coordinator stopping", "round", c.round, "phase", c.phase)
			return nil
		case cmd := <-c.commands:
			c.execute(cmd)
		case ev := <-c.timers:
			c.handleTimer(ev)
			if c.timerHandled != nil {
				c.timerHandled <- ev.kind
			}
		}
	}
}

func (c *Coordinator) execute(cmd command) {
	// A caller that gave up before its turn must see no effect.
	if err := cmd.ctx.Err(); err != nil {
		c.logger.Debug("Command abandoned", "command", cmd.name, "error", err)
		cmd.reply <- commandResult{err: err}
		return
	}
	value, err := cmd.fn()
	if err != nil {
		c.logger.Debug("Command rejected", "command", cmd.name, "error", err)
	}
	cmd.reply <- commandResult{value: value, err: err}
}

func (c *Coordinator) submit(ctx context.Context, name string, fn func() (any, error)) (any, error) {
	cmd := command{ctx: ctx, name: name, fn: fn, reply: make(chan commandResult, 1)}
	select {
	case c.commands <- cmd:
	case <-c.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	// Once queued the command either runs or is abandoned by the loop, so
	// the reply is the only source of truth about its effect.
	select {
	case res := <-cmd.reply:
		return res.value, res.err
	case <-c.done:
		select {
		case res := <-cmd.reply:
			return res.value, res.err
		default:
			return nil, ErrStopped
		}
	}
}

// Err returns the invariant violation that halted the table, if any.
func (c *Coordinator) Err() error {
	c.haltMu.RLock()
	defer c.haltMu.RUnlock()
	return c.haltErr
}

func (c *Coordinator) checkHalted() error {
	if err := c.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrHalted, err)
	}
	return nil
}

// JoinResult is returned to the session that joined.
type JoinResult struct {
	Player   roulette.Player
	Snapshot Snapshot
	Resumed  bool
}

// Join seats playerID with the starting balance, or with the stashed entry of
// resumeID when one is still held. Joining an idle table opens betting.
func (c *Coordinator) Join(ctx context.Context, playerID, displayName, resumeID string) (JoinResult, error) {
	v, err := c.submit(ctx, "join", func() (any, error) {
		return c.join(playerID, displayName, resumeID)
	})
	if err != nil {
		return JoinResult{}, err
	}
	return v.(JoinResult), nil
}

func (c *Coordinator) join(playerID, displayName, resumeID string) (JoinResult, error) {
	if err := c.checkHalted(); err != nil {
		return JoinResult{}, err
	}
	if playerID == "" {
		return JoinResult{}, fmt.Errorf("%w: empty id", roulette.ErrUnknownPlayer)
	}
	if c.players.Has(playerID) {
		return JoinResult{}, fmt.Errorf("%w: %s already joined", roulette.ErrPhaseViolation, playerID)
	}
	if resumeID != "" && c.players.Has(resumeID) {
		if _, gone := c.departed[resumeID]; gone {
			return JoinResult{}, fmt.Errorf("%w: %s is released after round %d settles", ErrResumePending, resumeID, c.round)
		}
		return JoinResult{}, fmt.Errorf("%w: %s is still seated", roulette.ErrPhaseViolation, resumeID)
	}

	displayName = strings.TrimSpace(displayName)
	player := roulette.Player{ID: playerID, DisplayName: displayName, Balance: c.cfg.StartingBalance}
	resumed := false
	if prev, ok := c.stash.take(resumeID); ok {
		player.Balance = prev.Balance
		player.TotalWon = prev.TotalWon
		player.TotalLost = prev.TotalLost
		if player.DisplayName == "" {
			player.DisplayName = prev.DisplayName
		}
		resumed = true
	}
	if player.DisplayName == "" {
		player.DisplayName = "Player-" + shortID(playerID)
	}

	if err := c.players.Add(player); err != nil {
		return JoinResult{}, err
	}
	c.bank += player.Balance
	if err := c.checkInvariants("join"); err != nil {
		return JoinResult{}, err
	}

	opened := false
	if c.phase == PhaseIdle {
		c.openBetting()
		opened = true
	}

	c.logger.Info("Player joined",
		"player", playerID,
		"name", player.DisplayName,
		"balance", player.Balance,
		"resumed", resumed,
		"round", c.round)

	result := JoinResult{Player: player, Snapshot: c.snapshot(), Resumed: resumed}
	c.publisher.Unicast(playerID, JoinedEvent{
		PlayerID: playerID,
		Player:   player,
		Round:    result.Snapshot,
		Resumed:  resumed,
	})
	c.publisher.Broadcast(PlayerJoinedEvent{Player: player})
	if opened {
		c.publishBettingStarted()
	}
	return result, nil
}

// PlaceBet escrows the wager and records it, merging with an earlier bet on
// the same selection.
func (c *Coordinator) PlaceBet(ctx context.Context, playerID string, w roulette.Wager) (roulette.Bet, error) {
	v, err := c.submit(ctx, "placeBet", func() (any, error) {
		return c.placeBet(playerID, w)
	})
	if err != nil {
		return roulette.Bet{}, err
	}
	return v.(roulette.Bet), nil
}

func (c *Coordinator) placeBet(playerID string, w roulette.Wager) (roulette.Bet, error) {
	if err := c.checkHalted(); err != nil {
		return roulette.Bet{}, err
	}
	if err := c.requireSeated(playerID); err != nil {
		return roulette.Bet{}, err
	}
	if c.phase != PhaseBetting {
		return roulette.Bet{}, fmt.Errorf("%w: cannot bet while %s", roulette.ErrPhaseViolation, c.phase)
	}
	normalized, err := w.Normalize(c.cfg.WagerPolicy)
	if err != nil {
		return roulette.Bet{}, err
	}

	if _, err := c.players.Debit(playerID, normalized.Amount); err != nil {
		return roulette.Bet{}, err
	}
	bet, err := c.bets.Place(playerID, normalized, c.clock.Now())
	if err != nil {
		if _, cerr := c.players.Credit(playerID, normalized.Amount); cerr != nil {
			return roulette.Bet{}, c.halt("placeBet", cerr)
		}
		return roulette.Bet{}, err
	}
	if err := c.checkInvariants("placeBet"); err != nil {
		return roulette.Bet{}, err
	}

	player, _ := c.players.Get(playerID)
	c.logger.Debug("Bet placed",
		"player", playerID,
		"type", bet.WagerType,
		"numbers", bet.CoveredNumbers,
		"amount", normalized.Amount,
		"total", bet.Amount,
		"balance", player.Balance)
	c.publisher.Broadcast(BetPlacedEvent{Bet: bet, Player: player})
	return bet, nil
}

// ClearBets refunds all of the player's bets in the current round and
// returns the refunded amount.
func (c *Coordinator) ClearBets(ctx context.Context, playerID string) (int, error) {
	v, err := c.submit(ctx, "clearBets", func() (any, error) {
		return c.clearBets(playerID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (c *Coordinator) clearBets(playerID string) (int, error) {
	if err := c.checkHalted(); err != nil {
		return 0, err
	}
	if err := c.requireSeated(playerID); err != nil {
		return 0, err
	}
	if c.phase != PhaseBetting {
		return 0, fmt.Errorf("%w: cannot clear bets while %s", roulette.ErrPhaseViolation, c.phase)
	}

	refund, err := c.refund(playerID)
	if err != nil {
		return 0, err
	}
	if err := c.checkInvariants("clearBets"); err != nil {
		return 0, err
	}

	player, _ := c.players.Get(playerID)
	ev := BetsClearedEvent{PlayerID: playerID, RefundedAmount: refund, Balance: player.Balance}
	if c.cfg.BroadcastClears {
		c.publisher.Broadcast(ev)
	} else {
		c.publisher.Unicast(playerID, ev)
	}
	c.logger.Debug("Bets cleared", "player", playerID, "refund", refund)
	return refund, nil
}

// refund removes the player's open bets and credits them back.
func (c *Coordinator) refund(playerID string) (int, error) {
	amount, err := c.bets.ClearPlayer(playerID)
	if err != nil {
		return 0, err
	}
	if amount > 0 {
		if _, err := c.players.Credit(playerID, amount); err != nil {
			return 0, c.halt("refund", err)
		}
	}
	return amount, nil
}

// RequestSpin closes betting early. It needs at least one bet on the table.
func (c *Coordinator) RequestSpin(ctx context.Context, playerID string) error {
	_, err := c.submit(ctx, "spin", func() (any, error) {
		return nil, c.requestSpin(playerID)
	})
	return err
}

func (c *Coordinator) requestSpin(playerID string) error {
	if err := c.checkHalted(); err != nil {
		return err
	}
	if err := c.requireSeated(playerID); err != nil {
		return err
	}
	if c.phase != PhaseBetting {
		return fmt.Errorf("%w: cannot spin while %s", roulette.ErrPhaseViolation, c.phase)
	}
	if c.bets.Len() == 0 {
		return fmt.Errorf("%w: no bets placed", roulette.ErrPhaseViolation)
	}
	c.startSpin(TriggerManual, playerID)
	return nil
}

// Leave removes the player. Open bets are refunded during BETTING; frozen bets
// are settled according to the departed policy.
func (c *Coordinator) Leave(ctx context.Context, playerID string) error {
	_, err := c.submit(ctx, "leave", func() (any, error) {
		return nil, c.leave(playerID)
	})
	return err
}

func (c *Coordinator) leave(playerID string) error {
	if err := c.checkHalted(); err != nil {
		return err
	}
	if err := c.requireSeated(playerID); err != nil {
		return err
	}

	switch c.phase {
	case PhaseSpinning, PhaseResolving:
		if c.cfg.DepartedPolicy == DepartedForfeit {
			player, _ := c.players.Get(playerID)
			c.forfeited[playerID] = player.DisplayName
			c.remove(playerID, 0, true)
		} else {
			c.departed[playerID] = struct{}{}
			c.logger.Info("Player left mid-spin, settling before removal", "player", playerID, "round", c.round)
		}
	default:
		refund, err := c.refund(playerID)
		if err != nil {
			return err
		}
		c.remove(playerID, refund, false)
	}
	if err := c.checkInvariants("leave"); err != nil {
		return err
	}

	if c.connected() > 0 {
		return nil
	}
	if c.phase == PhaseSpinning {
		c.stopTimer()
		c.resolve()
		return nil
	}
	c.goIdle()
	return nil
}

// remove takes the player out of the ledger, stashes their entry and
// announces the departure.
func (c *Coordinator) remove(playerID string, refund int, forfeited bool) {
	player, ok := c.players.Remove(playerID)
	if !ok {
		return
	}
	delete(c.departed, playerID)
	c.bank -= player.Balance
	c.stash.put(player)
	c.logger.Info("Player left",
		"player", playerID,
		"balance", player.Balance,
		"refund", refund,
		"forfeited", forfeited)
	c.publisher.Broadcast(PlayerLeftEvent{PlayerID: playerID, RefundedAmount: refund, Forfeited: forfeited})
}

// Snapshot returns a copy of the table state. It keeps working after a halt.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	v, err := c.submit(ctx, "snapshot", func() (any, error) {
		return c.snapshot(), nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (c *Coordinator) requireSeated(playerID string) error {
	if !c.players.Has(playerID) {
		return fmt.Errorf("%w: %s", roulette.ErrUnknownPlayer, playerID)
	}
	if _, gone := c.departed[playerID]; gone {
		return fmt.Errorf("%w: %s has left", roulette.ErrUnknownPlayer, playerID)
	}
	return nil
}

// connected counts seated players that have not left mid-spin.
func (c *Coordinator) connected() int {
	return c.players.Len() - len(c.departed)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type nopPublisher struct{}

func (nopPublisher) Broadcast(Event)       {}
func (nopPublisher) Unicast(string, Event) {}
