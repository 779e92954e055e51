package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/protocol"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// commandTimeout bounds how long a session waits for the coordinator.
const commandTimeout = 5 * time.Second

// Table is the coordinator as seen by sessions.
type Table interface {
	Join(ctx context.Context, playerID, displayName, resumeID string) (coordinator.JoinResult, error)
	PlaceBet(ctx context.Context, playerID string, w roulette.Wager) (roulette.Bet, error)
	ClearBets(ctx context.Context, playerID string) (int, error)
	RequestSpin(ctx context.Context, playerID string) error
	Leave(ctx context.Context, playerID string) error
	Snapshot(ctx context.Context) (coordinator.Snapshot, error)
	Err() error
}

// Server is the connection registry and broadcast dispatcher. It implements
// coordinator.Publisher.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	players     map[string]*Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	runOnce     sync.Once
	table       Table
	monitor     RoundMonitor
	stats       *StatsMonitor
	validator   *protocol.Validator
	httpServer  *http.Server
}

// NewServer creates a new WebSocket server
func NewServer(addr string, logger *log.Logger) (*Server, error) {
	validator, err := protocol.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to load message schemas: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		players:     make(map[string]*Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		monitor:     NullRoundMonitor{},
		validator:   validator,
	}, nil
}

// SetCoordinator sets the table sessions talk to. It must be called before
// the server accepts connections.
func (s *Server) SetCoordinator(table Table) {
	s.table = table
}

// SetMonitor installs monitors notified of every settled round. A
// *StatsMonitor among them is also served on /stats.
func (s *Server) SetMonitor(monitors ...RoundMonitor) {
	for _, m := range monitors {
		if stats, ok := m.(*StatsMonitor); ok {
			s.stats = stats
		}
	}
	s.monitor = NewMultiRoundMonitor(monitors...)
}

// Handler returns the HTTP routes: the websocket endpoint, health and a JSON
// snapshot of the table.
func (s *Server) Handler() http.Handler {
	s.runOnce.Do(func() { go s.run() })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Get("/state", s.handleState)
	r.Get("/stats", s.handleStats)
	return r
}

// Start starts the WebSocket server and blocks until it is stopped.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the WebSocket server
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// run removes closed connections and tells the coordinator they left.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
				delete(s.players, conn.PlayerID())
			}
			total := len(s.connections)
			s.mu.Unlock()
			if !ok {
				continue
			}
			_ = conn.Close() // Ignore close errors during unregistration

			// The coordinator publishes through this server, so Leave must
			// run without holding s.mu.
			ctx, cancel := context.WithTimeout(s.ctx, commandTimeout)
			if err := conn.leaveTable(ctx); err != nil {
				s.logger.Warn("Leave after disconnect failed", "player", conn.PlayerID(), "error", err)
			}
			cancel()
			s.logger.Info("Client disconnected", "player", conn.PlayerID(), "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.table == nil {
		http.Error(w, "table not ready", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, uuid.NewString(), s.logger, s.table, s.validator)

	s.mu.Lock()
	s.connections[client] = true
	s.players[client.PlayerID()] = client
	total := len(s.connections)
	// Sent under the lock so it precedes any broadcast to this session.
	if msg, err := protocol.NewMessage(protocol.MessageTypeConnected, protocol.ConnectedData{PlayerID: client.PlayerID()}); err == nil {
		_ = client.SendMessage(msg)
	}
	s.mu.Unlock()
	s.logger.Info("Client connected", "player", client.PlayerID(), "total", total)

	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth reports 503 once the coordinator has halted.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.table != nil {
		if err := s.table.Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "HALTED: %v", err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// handleState returns the current round snapshot as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if s.table == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, protocol.ErrorData{Code: protocol.CodeUnavailable, Message: "table not ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	snapshot, err := s.table.Snapshot(ctx)
	if err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, protocol.ErrorData{
			Code:      ErrorCode(err),
			Message:   err.Error(),
			RequestID: middleware.GetReqID(r.Context()),
		})
		return
	}
	render.JSON(w, r, snapshot)
}

// handleStats returns the table statistics when a stats monitor is installed.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, protocol.ErrorData{Code: protocol.CodeUnavailable, Message: "statistics disabled"})
		return
	}
	render.JSON(w, r, s.stats.Summary())
}

// Broadcast delivers ev to every registered session in call order.
func (s *Server) Broadcast(ev coordinator.Event) {
	msg, err := protocol.EventMessage(ev)
	if err != nil {
		s.logger.Error("Failed to encode event", "type", ev.EventType(), "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Failed to send message to client", "error", err, "player", conn.PlayerID())
		} else {
			count++
		}
	}

	s.logger.Debug("Broadcasted event", "type", msg.Type, "recipients", count)

	if result, ok := ev.(coordinator.SpinResultEvent); ok {
		s.monitor.OnRoundComplete(result)
	}
}

// Unicast delivers ev to one session only.
func (s *Server) Unicast(playerID string, ev coordinator.Event) {
	msg, err := protocol.EventMessage(ev)
	if err != nil {
		s.logger.Error("Failed to encode event", "type", ev.EventType(), "error", err)
		return
	}
	if err := s.SendToPlayer(playerID, msg); err != nil {
		s.logger.Debug("Unicast dropped", "type", msg.Type, "player", playerID, "error", err)
	}
}

// SendToPlayer sends a message to a specific player
func (s *Server) SendToPlayer(playerID string, msg *protocol.Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if conn, ok := s.players[playerID]; ok {
		return conn.SendMessage(msg)
	}
	return fmt.Errorf("player not found: %s", playerID)
}

// ConnectionCount returns the number of registered sessions
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
