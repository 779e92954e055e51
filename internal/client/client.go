package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bluess1/Troulette/internal/protocol"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents a WebSocket client for the roulette table
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *protocol.Message
	receive   chan *protocol.Message
	ready     chan struct{}
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	playerID  string
	closeOnce sync.Once

	// Event handlers
	nextHandler   int
	eventHandlers map[protocol.MessageType]map[int]EventHandler
}

// EventHandler is a function that handles incoming events. Handlers run on the
// client's dispatch goroutine in arrival order and must not block.
type EventHandler func(*protocol.Message)

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		send:          make(chan *protocol.Message, 256),
		receive:       make(chan *protocol.Message, 256),
		ready:         make(chan struct{}),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[protocol.MessageType]map[int]EventHandler),
	}
}

// websocketURL converts http/https URLs to ws/wss and points them at /ws.
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}

	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	}
	return u.String(), nil
}

// Connect dials the server and waits for the assigned player id.
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := websocketURL(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", wsURL)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	_ = resp.Body.Close()

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	select {
	case <-c.ready:
	case <-ctx.Done():
		_ = c.Disconnect()
		return fmt.Errorf("waiting for player id: %w", ctx.Err())
	case <-c.ctx.Done():
		return fmt.Errorf("connection closed before player id was assigned")
	}

	c.logger.Info("Connected to server", "player", c.PlayerID())
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close() // Ignore close errors during shutdown
			c.connected = false
		}

		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// PlayerID returns the id the server assigned on connect
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SendMessage sends a message to the server
func (c *Client) SendMessage(msg *protocol.Message) error {
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.cancel()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		msg, err := protocol.Unmarshal(raw)
		if err != nil {
			c.logger.Warn("Dropping unreadable message", "error", err)
			continue
		}
		c.logger.Debug("Received message", "type", msg.Type)

		select {
		case c.receive <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			data, err := protocol.Marshal(message)
			if err != nil {
				c.logger.Error("Failed to encode message", "type", message.Type, "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// eventProcessor processes incoming messages and dispatches to handlers
func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches messages to registered handlers
func (c *Client) handleMessage(msg *protocol.Message) {
	if msg.Type == protocol.MessageTypeConnected {
		var data protocol.ConnectedData
		if err := msg.Decode(&data); err != nil {
			c.logger.Error("Failed to parse connected message", "error", err)
			return
		}
		c.mu.Lock()
		first := c.playerID == ""
		c.playerID = data.PlayerID
		c.mu.Unlock()
		if first {
			close(c.ready)
		}
	}

	c.mu.RLock()
	handlers := make([]EventHandler, 0, len(c.eventHandlers[msg.Type]))
	for _, handler := range c.eventHandlers[msg.Type] {
		handlers = append(handlers, handler)
	}
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("No handler for message type", "type", msg.Type)
	}
	for _, handler := range handlers {
		handler(msg)
	}
}

// AddEventHandler adds an event handler for a specific message type and
// returns a function that removes it.
func (c *Client) AddEventHandler(messageType protocol.MessageType, handler EventHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextHandler
	c.nextHandler++
	if c.eventHandlers[messageType] == nil {
		c.eventHandlers[messageType] = make(map[int]EventHandler)
	}
	c.eventHandlers[messageType][id] = handler

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.eventHandlers[messageType], id)
	}
}

// request sends a command tagged with a fresh request id.
func (c *Client) request(messageType protocol.MessageType, data any) (string, error) {
	msg, err := protocol.NewMessage(messageType, data)
	if err != nil {
		return "", err
	}
	msg.RequestID = uuid.NewString()
	return msg.RequestID, c.SendMessage(msg)
}

// Join takes a seat. resumeID is the player id of an earlier session whose
// balance should be restored, or empty.
func (c *Client) Join(displayName, resumeID string) (string, error) {
	return c.request(protocol.MessageTypeJoin, protocol.JoinData{
		DisplayName: displayName,
		ResumeID:    resumeID,
	})
}

// PlaceBet stakes a wager in the current round
func (c *Client) PlaceBet(w roulette.Wager) (string, error) {
	numbers := w.Numbers
	if numbers == nil {
		numbers = []int{}
	}
	return c.request(protocol.MessageTypePlaceBet, protocol.PlaceBetData{
		WagerType:      string(w.Type),
		CoveredNumbers: numbers,
		Amount:         w.Amount,
	})
}

// ClearBets withdraws all of this player's bets in the current round
func (c *Client) ClearBets() (string, error) {
	return c.request(protocol.MessageTypeClearBets, struct{}{})
}

// Spin asks for the current round to be spun now
func (c *Client) Spin() (string, error) {
	return c.request(protocol.MessageTypeSpin, struct{}{})
}

// Expect registers interest in the next message of a type before the command
// that triggers it is sent. The returned function waits for it.
func (c *Client) Expect(messageType protocol.MessageType) func(timeout time.Duration) (*protocol.Message, error) {
	responseChan := make(chan *protocol.Message, 1)

	remove := c.AddEventHandler(messageType, func(msg *protocol.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	})

	return func(timeout time.Duration) (*protocol.Message, error) {
		defer remove()

		select {
		case msg := <-responseChan:
			return msg, nil
		case <-time.After(timeout):
			return nil, fmt.Errorf("timeout waiting for %s", messageType)
		case <-c.ctx.Done():
			return nil, c.ctx.Err()
		}
	}
}

// WaitForMessage waits for a specific message type with timeout
func (c *Client) WaitForMessage(messageType protocol.MessageType, timeout time.Duration) (*protocol.Message, error) {
	return c.Expect(messageType)(timeout)
}
