package server

import (
	"fmt"
	"os"
	"time"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings
	Table  TableSettings
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional" validate:"required"`
	Port     int    `hcl:"port,optional" validate:"min=1,max=65535"`
	LogLevel string `hcl:"log_level,optional" validate:"oneof=debug info warn error"`
}

// TableSettings are the table rules. Durations use Go syntax ("20s", "5m").
type TableSettings struct {
	StartingBalance int    `hcl:"starting_balance,optional" validate:"min=1"`
	BettingWindow   string `hcl:"betting_window,optional" validate:"duration"`
	SpinDuration    string `hcl:"spin_duration,optional" validate:"duration"`
	HistorySize     int    `hcl:"history_size,optional" validate:"min=1,max=100"`
	DepartedPolicy  string `hcl:"departed_policy,optional" validate:"oneof=retain forfeit"`
	WagerPolicy     string `hcl:"wager_policy,optional" validate:"oneof=strict lenient"`
	BroadcastClears *bool  `hcl:"broadcast_clears,optional"`
	ReconnectGrace  string `hcl:"reconnect_grace,optional" validate:"duration"`
	Seed            int64  `hcl:"seed,optional"`
}

// configFile mirrors the HCL layout; both blocks may be omitted.
type configFile struct {
	Server *ServerSettings `hcl:"server,block"`
	Table  *TableSettings  `hcl:"table,block"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	defaults := coordinator.DefaultConfig()
	broadcast := defaults.BroadcastClears
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     3000,
			LogLevel: "info",
		},
		Table: TableSettings{
			StartingBalance: defaults.StartingBalance,
			BettingWindow:   defaults.BettingWindow.String(),
			SpinDuration:    defaults.SpinDuration.String(),
			HistorySize:     defaults.HistorySize,
			DepartedPolicy:  string(defaults.DepartedPolicy),
			WagerPolicy:     string(defaults.WagerPolicy),
			BroadcastClears: &broadcast,
			ReconnectGrace:  defaults.ReconnectGrace.String(),
		},
	}
}

// LoadServerConfig loads server configuration from HCL file. A missing file
// yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw configFile
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := DefaultServerConfig()
	if s := raw.Server; s != nil {
		if s.Address != "" {
			config.Server.Address = s.Address
		}
		if s.Port != 0 {
			config.Server.Port = s.Port
		}
		if s.LogLevel != "" {
			config.Server.LogLevel = s.LogLevel
		}
	}
	if t := raw.Table; t != nil {
		if t.StartingBalance != 0 {
			config.Table.StartingBalance = t.StartingBalance
		}
		if t.BettingWindow != "" {
			config.Table.BettingWindow = t.BettingWindow
		}
		if t.SpinDuration != "" {
			config.Table.SpinDuration = t.SpinDuration
		}
		if t.HistorySize != 0 {
			config.Table.HistorySize = t.HistorySize
		}
		if t.DepartedPolicy != "" {
			config.Table.DepartedPolicy = t.DepartedPolicy
		}
		if t.WagerPolicy != "" {
			config.Table.WagerPolicy = t.WagerPolicy
		}
		if t.BroadcastClears != nil {
			config.Table.BroadcastClears = t.BroadcastClears
		}
		if t.ReconnectGrace != "" {
			config.Table.ReconnectGrace = t.ReconnectGrace
		}
		config.Table.Seed = t.Seed
	}

	return config, nil
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d >= 0
	})
	return v
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if err := validate.Struct(c.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validate.Struct(c.Table); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	spin, _ := time.ParseDuration(c.Table.SpinDuration)
	if spin <= 0 {
		return fmt.Errorf("table: spin_duration must be positive")
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// CoordinatorConfig converts the validated table settings into coordinator
// rules.
func (c *ServerConfig) CoordinatorConfig() (coordinator.Config, error) {
	if err := c.Validate(); err != nil {
		return coordinator.Config{}, err
	}
	window, _ := time.ParseDuration(c.Table.BettingWindow)
	spin, _ := time.ParseDuration(c.Table.SpinDuration)
	grace, _ := time.ParseDuration(c.Table.ReconnectGrace)

	broadcast := true
	if c.Table.BroadcastClears != nil {
		broadcast = *c.Table.BroadcastClears
	}

	return coordinator.Config{
		StartingBalance: c.Table.StartingBalance,
		BettingWindow:   window,
		SpinDuration:    spin,
		HistorySize:     c.Table.HistorySize,
		DepartedPolicy:  coordinator.DepartedPolicy(c.Table.DepartedPolicy),
		WagerPolicy:     roulette.WagerPolicy(c.Table.WagerPolicy),
		BroadcastClears: broadcast,
		ReconnectGrace:  grace,
	}, nil
}
