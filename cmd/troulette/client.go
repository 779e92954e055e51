package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bluess1/Troulette/cmd/troulette/shared"
	"github.com/bluess1/Troulette/internal/client"
	"github.com/bluess1/Troulette/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ClientCmd connects an interactive player
type ClientCmd struct {
	Config   string `short:"c" default:"troulette-client.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"Server URL to connect to (overrides config)"`
	Player   string `short:"p" help:"Player name (overrides config)"`
	Resume   string `help:"Player id to resume within the reconnect grace (overrides config)"`
	Stake    int    `help:"Default stake for /bet without an amount (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
	NoColor  bool   `help:"Disable colors"`
}

func (c *ClientCmd) Run() error {
	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Apply command line overrides
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.Player != "" {
		cfg.Player.Name = c.Player
	}
	if c.Resume != "" {
		cfg.Player.ResumeID = c.Resume
	}
	if c.Stake != 0 {
		cfg.Player.DefaultStake = c.Stake
	}
	if c.LogLevel != "" {
		cfg.UI.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.UI.LogFile = c.LogFile
	}

	// Get player name if not set
	if cfg.Player.Name == "" {
		fmt.Print("Enter your player name: ")
		var input string
		_, _ = fmt.Scanln(&input)
		cfg.Player.Name = strings.TrimSpace(input)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	// The terminal belongs to the TUI, so logs go to a file
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger := shared.SetupLogger(logFile, cfg.UI.LogLevel, false)
	logger.Info("Starting Troulette client",
		"server", cfg.Server.URL,
		"player", cfg.Player.Name,
		"config", c.Config)

	wsClient := client.NewClient(cfg.Server.URL, logger)

	connectCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ConnectTimeout)*time.Second)
	err = wsClient.Connect(connectCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Server.URL, err)
	}
	defer func() { _ = wsClient.Disconnect() }()

	model := tui.NewTUIModel(wsClient, cfg.Player.DefaultStake, logger)
	model.AddLogEntry("=== Troulette ===")
	model.AddLogEntry("Connected to server: " + cfg.Server.URL)
	model.AddLogEntry("Your player id: " + wsClient.PlayerID())
	model.AddLogEntry("")
	model.AddHelp()
	model.AddLogEntry("")

	program := tea.NewProgram(model, tea.WithAltScreen())
	stop := tui.Bridge(wsClient, program)
	defer stop()

	if _, err := wsClient.Join(cfg.Player.Name, cfg.Player.ResumeID); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
