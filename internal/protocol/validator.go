package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

const schemaBaseURL = "https://troulette.dev/schemas/"

// ErrMalformedMessage wraps every schema or decoding failure.
var ErrMalformedMessage = roulette.ErrMalformedMessage

// Command is the tagged union of inbound messages that passed validation.
type Command interface {
	Type() MessageType
}

type JoinCommand struct {
	DisplayName string
	ResumeID    string
}

type PlaceBetCommand struct {
	Wager roulette.Wager
}

type ClearBetsCommand struct{}

type SpinCommand struct{}

func (JoinCommand) Type() MessageType      { return MessageTypeJoin }
func (PlaceBetCommand) Type() MessageType  { return MessageTypePlaceBet }
func (ClearBetsCommand) Type() MessageType { return MessageTypeClearBets }
func (SpinCommand) Type() MessageType      { return MessageTypeSpin }

// Validator checks inbound messages against the embedded JSON schemas and
// turns them into commands.
type Validator struct {
	envelope *jsonschema.Schema
	payloads map[MessageType]*jsonschema.Schema
}

// NewValidator compiles the embedded schemas
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	files := []string{"message.json", "join.json", "placeBet.json", "empty.json"}
	for _, name := range files {
		data, err := schemaFiles.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(schemaBaseURL+name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
		}
	}

	compiled := make(map[string]*jsonschema.Schema, len(files))
	for _, name := range files {
		schema, err := compiler.Compile(schemaBaseURL + name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		compiled[name] = schema
	}

	return &Validator{
		envelope: compiled["message.json"],
		payloads: map[MessageType]*jsonschema.Schema{
			MessageTypeJoin:      compiled["join.json"],
			MessageTypePlaceBet:  compiled["placeBet.json"],
			MessageTypeClearBets: compiled["empty.json"],
			MessageTypeSpin:      compiled["empty.json"],
		},
	}, nil
}

// Decode validates raw and returns the command it carries together with the
// request id, if the envelope had one. The request id is returned even when
// the payload is rejected so the error reply can echo it.
func (v *Validator) Decode(raw []byte) (Command, string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: invalid JSON: %v", ErrMalformedMessage, err)
	}
	requestID := peekRequestID(doc)
	if err := v.envelope.Validate(doc); err != nil {
		return nil, requestID, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, requestID, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	data := msg.Data
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, requestID, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	schema, ok := v.payloads[msg.Type]
	if !ok {
		return nil, requestID, fmt.Errorf("%w: unknown message type %q", ErrMalformedMessage, msg.Type)
	}
	if err := schema.Validate(payload); err != nil {
		return nil, requestID, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, msg.Type, err)
	}

	cmd, err := decodePayload(msg.Type, data)
	if err != nil {
		return nil, requestID, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, msg.Type, err)
	}
	return cmd, msg.RequestID, nil
}

func decodePayload(mt MessageType, data []byte) (Command, error) {
	switch mt {
	case MessageTypeJoin:
		var d JoinData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return JoinCommand{DisplayName: d.DisplayName, ResumeID: d.ResumeID}, nil
	case MessageTypePlaceBet:
		var d PlaceBetData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return PlaceBetCommand{Wager: roulette.Wager{
			Type:    roulette.WagerType(d.WagerType),
			Numbers: d.CoveredNumbers,
			Amount:  d.Amount,
		}}, nil
	case MessageTypeClearBets:
		return ClearBetsCommand{}, nil
	case MessageTypeSpin:
		return SpinCommand{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", mt)
	}
}

func peekRequestID(doc any) string {
	obj, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := obj["requestId"].(string)
	if len(id) > 64 {
		return ""
	}
	return id
}
