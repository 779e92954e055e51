package coordinator

import (
	"fmt"
	"time"

	"github.com/bluess1/Troulette/internal/roulette"
)

// openBetting starts a new round. Callers publish bettingStarted once any
// events describing earlier mutations have gone out.
func (c *Coordinator) openBetting() {
	c.round++
	c.phase = PhaseBetting
	c.roundStartedAt = c.clock.Now()
	c.bets.Reset()
	c.armWindow()
	c.logger.Debug("Betting opened", "round", c.round, "window", c.cfg.BettingWindow)
}

func (c *Coordinator) publishBettingStarted() {
	c.publisher.Broadcast(BettingStartedEvent{
		Round:         c.round,
		WindowSeconds: int(c.cfg.BettingWindow / time.Second),
	})
}

// armWindow (re)starts the betting window. A zero window means rounds only
// spin on request.
func (c *Coordinator) armWindow() {
	if c.cfg.BettingWindow <= 0 {
		c.stopTimer()
		c.windowEndsAt = time.Time{}
		return
	}
	c.windowEndsAt = c.clock.Now().Add(c.cfg.BettingWindow)
	c.arm(timerWindow, c.cfg.BettingWindow)
}

func (c *Coordinator) goIdle() {
	c.stopTimer()
	c.phase = PhaseIdle
	c.windowEndsAt = time.Time{}
	c.bets.Reset()
	c.logger.Info("Table idle", "round", c.round)
}

func (c *Coordinator) startSpin(trigger SpinTrigger, playerID string) {
	c.stopTimer()
	c.windowEndsAt = time.Time{}
	c.bets.Freeze()
	c.phase = PhaseSpinning
	c.arm(timerSpin, c.cfg.SpinDuration)

	c.logger.Info("Spin started",
		"round", c.round,
		"trigger", trigger,
		"bets", c.bets.Len(),
		"escrow", c.bets.TotalEscrow())
	c.publisher.Broadcast(SpinStartedEvent{Round: c.round, Trigger: trigger, PlayerID: playerID})
}

func (c *Coordinator) arm(kind timerKind, d time.Duration) {
	c.stopTimer()
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(d, func() {
		select {
		case c.timers <- timerEvent{kind: kind, gen: gen}:
		case <-c.done:
		}
	})
}

// stopTimer cancels the pending timer. Bumping the generation also voids an
// expiry that already fired but has not been handled yet.
func (c *Coordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Coordinator) handleTimer(ev timerEvent) {
	if ev.gen != c.timerGen || c.Err() != nil {
		c.logger.Debug("Ignoring stale timer", "kind", ev.kind, "round", c.round)
		return
	}
	c.timer = nil

	switch ev.kind {
	case timerWindow:
		if c.phase != PhaseBetting {
			return
		}
		if c.bets.Len() == 0 {
			c.armWindow()
			return
		}
		c.startSpin(TriggerTimer, "")
	case timerSpin:
		if c.phase != PhaseSpinning {
			return
		}
		c.resolve()
	}
}

// resolve settles the frozen round: one outcome, every bet paid, one
// spinResult, then the next round (or IDLE when nobody is left).
func (c *Coordinator) resolve() {
	c.phase = PhaseResolving
	outcome := c.outcomes.Spin()
	c.lastOutcome = &outcome

	bets := c.bets.Bets()
	results := make([]BetResult, 0, len(bets))
	staked, credited := 0, 0
	for _, bet := range bets {
		won, amount := roulette.Payout(bet, outcome)
		staked += bet.Amount

		result := BetResult{
			PlayerID:       bet.PlayerID,
			WagerType:      bet.WagerType,
			CoveredNumbers: bet.CoveredNumbers,
			Won:            won,
			Amount:         amount,
			Staked:         bet.Amount,
		}

		if name, gone := c.forfeited[bet.PlayerID]; gone {
			result.DisplayName = name
			result.Forfeited = true
			result.Amount = 0
			if amount > 0 {
				c.logger.Info("Discarding payout of forfeited player",
					"player", bet.PlayerID, "round", c.round, "amount", amount)
			}
			results = append(results, result)
			continue
		}

		player, ok := c.players.Get(bet.PlayerID)
		if !ok {
			c.halt("settle", fmt.Errorf("%w: bet owner %s missing from ledger", roulette.ErrUnknownPlayer, bet.PlayerID))
			return
		}
		result.DisplayName = player.DisplayName
		if amount > 0 {
			if _, err := c.players.Credit(bet.PlayerID, amount); err != nil {
				c.halt("settle", err)
				return
			}
			credited += amount
		}
		if err := c.players.RecordResult(bet.PlayerID, bet.Amount, amount); err != nil {
			c.halt("settle", err)
			return
		}
		results = append(results, result)
	}
	c.bank += credited - staked
	c.bets.Reset()
	c.forfeited = make(map[string]string)
	c.history.Push(outcome.Number)

	if err := c.checkInvariants("settle"); err != nil {
		return
	}

	c.logger.Info("Round settled",
		"round", c.round,
		"number", outcome.Number,
		"color", outcome.Color,
		"bets", len(bets),
		"staked", staked,
		"credited", credited)
	c.publisher.Broadcast(SpinResultEvent{
		Round:          c.round,
		Outcome:        outcome,
		Results:        results,
		UpdatedPlayers: c.players.Snapshot(),
		History:        c.history.Numbers(),
	})

	for _, p := range c.players.Snapshot() {
		if _, gone := c.departed[p.ID]; gone {
			c.remove(p.ID, 0, false)
		}
	}
	if err := c.checkInvariants("settle"); err != nil {
		return
	}

	if c.connected() > 0 {
		c.openBetting()
		c.publishBettingStarted()
		return
	}
	c.goIdle()
}

// checkInvariants verifies non-negative balances and that balances plus
// escrow match the running total of money on the table. A failure halts.
func (c *Coordinator) checkInvariants(op string) error {
	if err := c.players.Check(); err != nil {
		return c.halt(op, err)
	}
	if total := c.players.TotalBalance() + c.bets.TotalEscrow(); total != c.bank {
		return c.halt(op, fmt.Errorf("table holds %d, ledger expects %d", total, c.bank))
	}
	return nil
}

// halt stops all further mutation. Balances are left exactly as found.
func (c *Coordinator) halt(op string, cause error) error {
	invErr := &InvariantError{Round: c.round, Phase: c.phase, Op: op, Err: cause}

	c.haltMu.Lock()
	if c.haltErr == nil {
		c.haltErr = invErr
	}
	c.haltMu.Unlock()

	c.stopTimer()
	c.logger.Error("invariant violation", "round", c.round, "phase", c.phase, "op", op, "error", cause)
	return fmt.Errorf("%w: %w", ErrHalted, invErr)
}
