package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bluess1/Troulette/internal/protocol"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client. The player id is
// assigned on connect and never changes.
type Connection struct {
	conn      *websocket.Conn
	send      chan *protocol.Message
	playerID  string
	joined    atomic.Bool
	left      atomic.Bool
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	table     Table
	validator *protocol.Validator
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, playerID string, logger *log.Logger, table Table, validator *protocol.Validator) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:      conn,
		send:      make(chan *protocol.Message, 256),
		playerID:  playerID,
		logger:    logger.WithPrefix("conn").With("player", playerID),
		ctx:       ctx,
		cancel:    cancel,
		table:     table,
		validator: validator,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues msg without blocking. A session whose buffer is full is
// closed so it cannot hold up delivery to everyone else.
func (c *Connection) SendMessage(msg *protocol.Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// PlayerID returns the id assigned on connect
func (c *Connection) PlayerID() string {
	return c.playerID
}

// Joined reports whether the player has a seat at the table
func (c *Connection) Joined() bool {
	return c.joined.Load()
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client. Commands from one
// session are handled strictly in arrival order.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(raw)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := protocol.Marshal(message)
			if err != nil {
				c.logger.Error("Failed to encode message", "type", message.Type, "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage validates one inbound message and runs it against the table.
// Rejections go back to this session only.
func (c *Connection) handleMessage(raw []byte) {
	cmd, requestID, err := c.validator.Decode(raw)
	if err != nil {
		c.logger.Warn("Dropping malformed message", "error", err)
		c.sendError(err, requestID)
		return
	}
	c.logger.Debug("Received message", "type", cmd.Type())

	ctx, cancel := context.WithTimeout(c.ctx, commandTimeout)
	defer cancel()

	switch cmd := cmd.(type) {
	case protocol.JoinCommand:
		err = c.handleJoin(ctx, cmd)
	case protocol.PlaceBetCommand:
		_, err = c.table.PlaceBet(ctx, c.playerID, cmd.Wager)
	case protocol.ClearBetsCommand:
		_, err = c.table.ClearBets(ctx, c.playerID)
	case protocol.SpinCommand:
		err = c.table.RequestSpin(ctx, c.playerID)
	}
	if err != nil {
		c.logger.Debug("Command rejected", "type", cmd.Type(), "error", err)
		c.sendError(err, requestID)
	}
}

func (c *Connection) handleJoin(ctx context.Context, cmd protocol.JoinCommand) error {
	if c.Joined() {
		return roulette.ErrPhaseViolation
	}
	res, err := c.table.Join(ctx, c.playerID, cmd.DisplayName, cmd.ResumeID)
	if err != nil {
		return err
	}
	c.joined.Store(true)
	c.logger.Info("Joined table", "name", res.Player.DisplayName, "balance", res.Player.Balance, "resumed", res.Resumed)

	// The session may have been unregistered while the join was in flight.
	if c.ctx.Err() != nil {
		leaveCtx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := c.leaveTable(leaveCtx); err != nil {
			c.logger.Warn("Leave after disconnect failed", "error", err)
		}
	}
	return nil
}

// leaveTable removes the player from the table at most once.
func (c *Connection) leaveTable(ctx context.Context) error {
	if !c.joined.Load() || !c.left.CompareAndSwap(false, true) {
		return nil
	}
	return c.table.Leave(ctx, c.playerID)
}

// sendError sends an error message to the client
func (c *Connection) sendError(err error, requestID string) {
	errorMsg, merr := protocol.NewMessage(protocol.MessageTypeError, protocol.ErrorData{
		Code:      ErrorCode(err),
		Message:   err.Error(),
		RequestID: requestID,
	})
	if merr != nil {
		c.logger.Error("Failed to create error message", "error", merr)
		return
	}
	errorMsg.RequestID = requestID

	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}
