// Package protocol defines the websocket wire format: the message envelope,
// the inbound command payloads and their JSON Schema validation, and the
// mapping of coordinator events onto outbound messages.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bluess1/Troulette/internal/coordinator"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeJoin      MessageType = "join"
	MessageTypePlaceBet  MessageType = "placeBet"
	MessageTypeClearBets MessageType = "clearBets"
	MessageTypeSpin      MessageType = "spin"

	// Server to client messages
	MessageTypeConnected      MessageType = "connected"
	MessageTypeError          MessageType = "error"
	MessageTypeJoined         = MessageType(coordinator.EventTypeJoined)
	MessageTypePlayerJoined   = MessageType(coordinator.EventTypePlayerJoined)
	MessageTypePlayerLeft     = MessageType(coordinator.EventTypePlayerLeft)
	MessageTypeBettingStarted = MessageType(coordinator.EventTypeBettingStarted)
	MessageTypeBetPlaced      = MessageType(coordinator.EventTypeBetPlaced)
	MessageTypeBetsCleared    = MessageType(coordinator.EventTypeBetsCleared)
	MessageTypeSpinStarted    = MessageType(coordinator.EventTypeSpinStarted)
	MessageTypeSpinResult     = MessageType(coordinator.EventTypeSpinResult)
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitzero"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Type)
	}
	return json.Unmarshal(m.Data, v)
}

// EventMessage wraps a coordinator event in an envelope named after it.
func EventMessage(ev coordinator.Event) (*Message, error) {
	return NewMessage(MessageType(ev.EventType()), ev)
}

// Client → Server payloads

type JoinData struct {
	DisplayName string `json:"displayName"`
	ResumeID    string `json:"resumeId,omitempty"`
}

type PlaceBetData struct {
	WagerType      string `json:"wagerType"`
	CoveredNumbers []int  `json:"coveredNumbers"`
	Amount         int    `json:"amount"`
}

// Server → Client payloads

type ConnectedData struct {
	PlayerID string `json:"playerId"`
}

type ErrorData struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Error codes sent in ErrorData.Code
const (
	CodePhaseViolation    = "phase_violation"
	CodeInsufficientFunds = "insufficient_funds"
	CodeInvalidWager      = "invalid_wager"
	CodeUnknownPlayer     = "unknown_player"
	CodeMalformedMessage  = "malformed_message"
	CodeHalted            = "halted"
	CodeUnavailable       = "unavailable"
	CodeResumePending     = "resume_pending"
)
