package coordinator

import (
	"github.com/bluess1/Troulette/internal/roulette"
)

// EventType names an outbound notification. The values double as wire
// message types.
type EventType string

const (
	EventTypeJoined         EventType = "joined"
	EventTypePlayerJoined   EventType = "playerJoined"
	EventTypePlayerLeft     EventType = "playerLeft"
	EventTypeBettingStarted EventType = "bettingStarted"
	EventTypeBetPlaced      EventType = "betPlaced"
	EventTypeBetsCleared    EventType = "betsCleared"
	EventTypeSpinStarted    EventType = "spinStarted"
	EventTypeSpinResult     EventType = "spinResult"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is anything the coordinator publishes. Events are built from value
// copies after the mutation they describe has been committed.
type Event interface {
	EventType() EventType
}

// Publisher delivers events to sessions. The coordinator calls it from its
// loop goroutine, in commit order, and never concurrently.
type Publisher interface {
	Broadcast(ev Event)
	Unicast(playerID string, ev Event)
}

// JoinedEvent is the private reply to a successful join.
type JoinedEvent struct {
	PlayerID string          `json:"playerId"`
	Player   roulette.Player `json:"player"`
	Round    Snapshot        `json:"roundSnapshot"`
	Resumed  bool            `json:"resumed"`
}

func (JoinedEvent) EventType() EventType { return EventTypeJoined }

// PlayerJoinedEvent announces a new participant
type PlayerJoinedEvent struct {
	Player roulette.Player `json:"player"`
}

func (PlayerJoinedEvent) EventType() EventType { return EventTypePlayerJoined }

// PlayerLeftEvent announces a participant's removal from the ledger.
type PlayerLeftEvent struct {
	PlayerID       string `json:"playerId"`
	RefundedAmount int    `json:"refundedAmount,omitempty"`
	Forfeited      bool   `json:"forfeited,omitempty"`
}

func (PlayerLeftEvent) EventType() EventType { return EventTypePlayerLeft }

// BettingStartedEvent opens a round
type BettingStartedEvent struct {
	Round         int `json:"round"`
	WindowSeconds int `json:"windowSeconds"`
}

func (BettingStartedEvent) EventType() EventType { return EventTypeBettingStarted }

// BetPlacedEvent carries the bet after merging and the player's balance after
// escrow.
type BetPlacedEvent struct {
	Bet    roulette.Bet    `json:"bet"`
	Player roulette.Player `json:"player"`
}

func (BetPlacedEvent) EventType() EventType { return EventTypeBetPlaced }

// BetsClearedEvent reports a refund
type BetsClearedEvent struct {
	PlayerID       string `json:"playerId"`
	RefundedAmount int    `json:"refundedAmount"`
	Balance        int    `json:"balance"`
}

func (BetsClearedEvent) EventType() EventType { return EventTypeBetsCleared }

// SpinTrigger records why a round stopped taking bets.
type SpinTrigger string

const (
	TriggerManual SpinTrigger = "manual"
	TriggerTimer  SpinTrigger = "timer"
)

// SpinStartedEvent freezes the round
type SpinStartedEvent struct {
	Round    int         `json:"round"`
	Trigger  SpinTrigger `json:"trigger"`
	PlayerID string      `json:"playerId,omitempty"`
}

func (SpinStartedEvent) EventType() EventType { return EventTypeSpinStarted }

// BetResult is the settlement of one bet. A forfeited bet keeps Won from the
// wheel but its Amount is zero, since nothing was credited.
type BetResult struct {
	PlayerID       string             `json:"playerId"`
	DisplayName    string             `json:"displayName"`
	WagerType      roulette.WagerType `json:"wagerType"`
	CoveredNumbers []int              `json:"coveredNumbers"`
	Won            bool               `json:"won"`
	Amount         int                `json:"amount"`
	Staked         int                `json:"staked"`
	Forfeited      bool               `json:"forfeited,omitempty"`
}

// SpinResultEvent is the settlement of a whole round.
type SpinResultEvent struct {
	Round          int               `json:"round"`
	Outcome        roulette.Outcome  `json:"outcome"`
	Results        []BetResult       `json:"results"`
	UpdatedPlayers []roulette.Player `json:"updatedPlayers"`
	History        []int             `json:"history"`
}

func (SpinResultEvent) EventType() EventType { return EventTypeSpinResult }
