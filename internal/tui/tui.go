package tui

import (
	"fmt"
	"strings"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/protocol"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Table is the command side of the client connection.
type Table interface {
	PlayerID() string
	PlaceBet(w roulette.Wager) (string, error)
	ClearBets() (string, error)
	Spin() (string, error)
}

// ServerMsg carries a message from the server into the update loop.
type ServerMsg struct {
	Message *protocol.Message
}

// DisconnectedMsg is sent when the connection to the server drops.
type DisconnectedMsg struct{}

// TUIModel represents the Bubble Tea model for the roulette table
type TUIModel struct {
	table        Table
	logger       *log.Logger
	defaultStake int

	// UI components
	logViewport  viewport.Model
	commandInput textinput.Model

	// State
	gameLog     []string
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Table state, all from server events
	round         int
	phase         coordinator.Phase
	windowSeconds int
	players       []roulette.Player
	history       []int
	myStake       int

	// Dimensions
	width       int
	height      int
	initialized bool

	// Test mode
	testMode    bool
	capturedLog []string
}

// NewTUIModel creates a new TUI model sending commands to table
func NewTUIModel(table Table, defaultStake int, logger *log.Logger) *TUIModel {
	return NewTUIModelWithOptions(table, defaultStake, logger, false)
}

// NewTUIModelWithOptions creates a new TUI model with test mode option
func NewTUIModelWithOptions(table Table, defaultStake int, logger *log.Logger, testMode bool) *TUIModel {
	// Sized properly when the first WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "/bet red 100, /bet straight 17 50, /spin, /help"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &TUIModel{
		table:        table,
		logger:       logger.WithPrefix("tui"),
		defaultStake: defaultStake,
		logViewport:  vp,
		commandInput: ti,
		gameLog:      []string{},
		focusedPane:  1,
		phase:        coordinator.PhaseIdle,
		testMode:     testMode,
		capturedLog:  []string{},
	}
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ServerMsg:
		m.HandleMessage(msg.Message)
		return m, nil

	case DisconnectedMsg:
		m.AddLogEntry(ErrorStyle.Render("Disconnected from server"))
		m.quitting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.commandInput.Focus()
			} else {
				m.focusedPane = 0
				m.commandInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.commandInput.Value())
				m.commandInput.SetValue("")
				if cmd := m.processCommand(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd

	// Only update input if it's focused
	if m.focusedPane == 1 {
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// processCommand runs a prompt line and returns a tea command when the
// program should stop.
func (m *TUIModel) processCommand(input string) tea.Cmd {
	if input == "" {
		return nil
	}
	cmd, err := ParseCommand(input, m.defaultStake)
	if err != nil {
		m.AddLogEntry(ErrorStyle.Render(err.Error()))
		return nil
	}

	switch cmd.Kind {
	case CmdQuit:
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)
	case CmdHelp:
		m.AddHelp()
		return nil
	case CmdBet:
		_, err = m.table.PlaceBet(cmd.Wager)
	case CmdClear:
		_, err = m.table.ClearBets()
	case CmdSpin:
		_, err = m.table.Spin()
	}
	if err != nil {
		m.logger.Warn("Failed to send command", "input", input, "error", err)
		m.AddLogEntry(ErrorStyle.Render("send failed: " + err.Error()))
	}
	return nil
}

// AddHelp lists the prompt commands in the log.
func (m *TUIModel) AddHelp() {
	for _, line := range helpLines {
		m.AddLogEntry(InfoStyle.Render(line))
	}
}

// HandleMessage folds a server message into the table state and the log.
func (m *TUIModel) HandleMessage(msg *protocol.Message) {
	if err := m.applyMessage(msg); err != nil {
		m.logger.Error("Failed to handle message", "type", msg.Type, "error", err)
	}
}

func (m *TUIModel) applyMessage(msg *protocol.Message) error {
	switch msg.Type {
	case protocol.MessageTypeConnected:
		var data protocol.ConnectedData
		if err := msg.Decode(&data); err != nil {
			return err
		}
		m.AddLogEntry(InfoStyle.Render("Connected as " + shortID(data.PlayerID)))

	case protocol.MessageTypeJoined:
		var ev coordinator.JoinedEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		m.round = ev.Round.Round
		m.phase = ev.Round.Phase
		m.windowSeconds = ev.Round.WindowSeconds
		m.players = ev.Round.Players
		m.history = ev.Round.History
		m.myStake = 0
		verb := "Joined"
		if ev.Resumed {
			verb = "Resumed"
		}
		m.AddLogEntry(SuccessStyle.Render(fmt.Sprintf("%s as %s with $%d", verb, ev.Player.DisplayName, ev.Player.Balance)))

	case protocol.MessageTypePlayerJoined:
		var ev coordinator.PlayerJoinedEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		m.upsertPlayer(ev.Player)
		if ev.Player.ID != m.table.PlayerID() {
			m.AddLogEntry(fmt.Sprintf("%s joined the table", ev.Player.DisplayName))
		}

	case protocol.MessageTypePlayerLeft:
		var ev coordinator.PlayerLeftEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		name := m.playerName(ev.PlayerID)
		m.removePlayer(ev.PlayerID)
		m.AddLogEntry(fmt.Sprintf("%s left the table", name))

	case protocol.MessageTypeBettingStarted:
		var ev coordinator.BettingStartedEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		m.round = ev.Round
		m.phase = coordinator.PhaseBetting
		m.windowSeconds = ev.WindowSeconds
		m.myStake = 0
		window := "spin when ready"
		if ev.WindowSeconds > 0 {
			window = fmt.Sprintf("%ds to bet", ev.WindowSeconds)
		}
		m.AddLogEntry("")
		m.AddLogEntry(RoundInfoStyle.Render(fmt.Sprintf("*** ROUND %d *** %s", ev.Round, window)))

	case protocol.MessageTypeBetPlaced:
		var ev coordinator.BetPlacedEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		m.upsertPlayer(ev.Player)
		if ev.Bet.PlayerID == m.table.PlayerID() {
			m.myStake += ev.Bet.Amount
		}
		m.AddLogEntry(fmt.Sprintf("%s: bets $%d on %s", ev.Player.DisplayName, ev.Bet.Amount, describeBet(ev.Bet.WagerType, ev.Bet.CoveredNumbers)))

	case protocol.MessageTypeBetsCleared:
		var ev coordinator.BetsClearedEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		m.setBalance(ev.PlayerID, ev.Balance)
		if ev.PlayerID == m.table.PlayerID() {
			m.myStake = 0
		}
		m.AddLogEntry(fmt.Sprintf("%s: clears bets, $%d refunded", m.playerName(ev.PlayerID), ev.RefundedAmount))

	case protocol.MessageTypeSpinStarted:
		var ev coordinator.SpinStartedEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		m.phase = coordinator.PhaseSpinning
		who := "time is up"
		if ev.Trigger == coordinator.TriggerManual {
			who = m.playerName(ev.PlayerID) + " spins"
		}
		m.AddLogEntry(WarningStyle.Render(fmt.Sprintf("No more bets: %s", who)))

	case protocol.MessageTypeSpinResult:
		var ev coordinator.SpinResultEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		m.phase = coordinator.PhaseResolving
		m.history = ev.History
		for _, p := range ev.UpdatedPlayers {
			m.upsertPlayer(p)
		}
		m.AddLogEntry(fmt.Sprintf("Ball lands on %s", formatOutcome(ev.Outcome)))
		m.logResults(ev.Results)
		m.myStake = 0

	case protocol.MessageTypeError:
		var data protocol.ErrorData
		if err := msg.Decode(&data); err != nil {
			return err
		}
		m.AddLogEntry(ErrorStyle.Render(fmt.Sprintf("%s: %s", data.Code, data.Message)))

	default:
		m.logger.Debug("Ignoring message", "type", msg.Type)
	}
	return nil
}

func (m *TUIModel) logResults(results []coordinator.BetResult) {
	me := m.table.PlayerID()
	net := 0
	mine := false
	for _, r := range results {
		if r.PlayerID != me {
			continue
		}
		mine = true
		net += r.Amount - r.Staked
		if r.Won {
			m.AddLogEntry(SuccessStyle.Render(fmt.Sprintf("  %s wins $%d", describeBet(r.WagerType, r.CoveredNumbers), r.Amount)))
		} else {
			m.AddLogEntry(InfoStyle.Render(fmt.Sprintf("  %s loses $%d", describeBet(r.WagerType, r.CoveredNumbers), r.Staked)))
		}
	}
	if !mine {
		return
	}
	switch {
	case net > 0:
		m.AddLogEntry(SuccessStyle.Render(fmt.Sprintf("You are up $%d this round", net)))
	case net < 0:
		m.AddLogEntry(ErrorStyle.Render(fmt.Sprintf("You are down $%d this round", -net)))
	default:
		m.AddLogEntry("You break even this round")
	}
}

func (m *TUIModel) upsertPlayer(p roulette.Player) {
	for i := range m.players {
		if m.players[i].ID == p.ID {
			m.players[i] = p
			return
		}
	}
	m.players = append(m.players, p)
}

func (m *TUIModel) setBalance(id string, balance int) {
	for i := range m.players {
		if m.players[i].ID == id {
			m.players[i].Balance = balance
			return
		}
	}
}

func (m *TUIModel) removePlayer(id string) {
	for i := range m.players {
		if m.players[i].ID == id {
			m.players = append(m.players[:i], m.players[i+1:]...)
			return
		}
	}
}

func (m *TUIModel) playerName(id string) string {
	for _, p := range m.players {
		if p.ID == id {
			return p.DisplayName
		}
	}
	return shortID(id)
}

// Balance returns this player's balance as last reported by the server.
func (m *TUIModel) Balance() int {
	me := m.table.PlayerID()
	for _, p := range m.players {
		if p.ID == me {
			return p.Balance
		}
	}
	return 0
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	inputContent := m.renderInputPane()
	inputHeight := lipgloss.Height(inputContent)

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(m.width-2, 1)).
		Height(max(inputHeight, 1))
	if m.focusedPane == 1 {
		inputStyle = inputStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	inputPane := inputStyle.Render(inputContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-inputHeight-4, 1) // Borders of both rows

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, inputPane)
}

// renderSidebarPane shows the round, the balances and the recent numbers
func (m *TUIModel) renderSidebarPane() string {
	var content strings.Builder

	content.WriteString(HeaderStyle.Render(fmt.Sprintf(" Round %d ", m.round)))
	content.WriteString(" ")
	content.WriteString(InfoStyle.Render(m.phase.String()))
	content.WriteString("\n\n")

	content.WriteString(WarningStyle.Render(fmt.Sprintf("Balance: $%d", m.Balance())))
	if m.myStake > 0 {
		content.WriteString("\n")
		content.WriteString(WarningStyle.Render(fmt.Sprintf("On table: $%d", m.myStake)))
	}
	content.WriteString("\n\n")

	if len(m.players) > 0 {
		content.WriteString(InfoStyle.Render("Players:"))
		content.WriteString("\n")
		me := m.table.PlayerID()
		for _, p := range m.players {
			marker := " "
			if p.ID == me {
				marker = "*"
			}
			content.WriteString(fmt.Sprintf("%s %s: $%d\n", marker, p.DisplayName, p.Balance))
		}
		content.WriteString("\n")
	}

	if len(m.history) > 0 {
		content.WriteString(InfoStyle.Render("Last numbers:"))
		content.WriteString("\n")
		numbers := make([]string, len(m.history))
		for i, n := range m.history {
			outcome := roulette.Classify(n)
			numbers[i] = pocketStyle(outcome.Color).Render(fmt.Sprintf("%d", n))
		}
		content.WriteString(strings.Join(numbers, " "))
	}

	return content.String()
}

// renderInputPane renders the command prompt and help line
func (m *TUIModel) renderInputPane() string {
	var content strings.Builder

	content.WriteString(m.commandInput.View())
	content.WriteString("\n")

	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • /help for commands • Ctrl+C to quit"))
	}
	return content.String()
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	// In test mode, also capture the log entry
	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return
	}

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *TUIModel) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// IsTestMode returns whether the TUI is in test mode
func (m *TUIModel) IsTestMode() bool {
	return m.testMode
}

func describeBet(t roulette.WagerType, numbers []int) string {
	switch t {
	case roulette.Straight, roulette.Split, roulette.Street, roulette.Corner, roulette.Line:
		parts := make([]string, len(numbers))
		for i, n := range numbers {
			parts[i] = fmt.Sprintf("%d", n)
		}
		return fmt.Sprintf("%s %s", t, strings.Join(parts, ","))
	case roulette.Dozen, roulette.Column:
		if len(numbers) > 0 {
			outcome := roulette.Classify(numbers[0])
			index := outcome.Dozen
			if t == roulette.Column {
				index = outcome.Column
			}
			return fmt.Sprintf("%s %d", t, index)
		}
	}
	return string(t)
}

func formatOutcome(o roulette.Outcome) string {
	parts := []string{string(o.Color)}
	if o.Parity != roulette.ParityNone {
		parts = append(parts, string(o.Parity))
	}
	if o.Half != roulette.HalfNone {
		parts = append(parts, string(o.Half))
	}
	return pocketStyle(o.Color).Render(fmt.Sprintf("%d", o.Number)) + " (" + strings.Join(parts, ", ") + ")"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
