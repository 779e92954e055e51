package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bluess1/Troulette/internal/coordinator"
	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "troulette.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadServerConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), config)
	assert.Equal(t, "localhost:3000", config.GetServerAddress())

	cc, err := config.CoordinatorConfig()
	require.NoError(t, err)
	assert.Equal(t, coordinator.DefaultConfig(), cc)
}

func TestLoadServerConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server {
  port      = 4000
  log_level = "debug"
}

table {
  starting_balance = 500
  betting_window   = "0s"
  spin_duration    = "3s"
  history_size     = 5
  departed_policy  = "forfeit"
  wager_policy     = "lenient"
  broadcast_clears = false
  reconnect_grace  = "0s"
  seed             = 42
}
`)

	config, err := LoadServerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", config.Server.Address)
	assert.Equal(t, 4000, config.Server.Port)
	assert.Equal(t, "debug", config.Server.LogLevel)
	assert.Equal(t, int64(42), config.Table.Seed)

	cc, err := config.CoordinatorConfig()
	require.NoError(t, err)
	assert.Equal(t, coordinator.Config{
		StartingBalance: 500,
		BettingWindow:   0,
		SpinDuration:    3 * time.Second,
		HistorySize:     5,
		DepartedPolicy:  coordinator.DepartedForfeit,
		WagerPolicy:     roulette.WagerPolicyLenient,
		BroadcastClears: false,
		ReconnectGrace:  0,
	}, cc)
}

func TestLoadServerConfigParseError(t *testing.T) {
	_, err := LoadServerConfig(writeConfig(t, `server {`))
	assert.Error(t, err)

	_, err = LoadServerConfig(writeConfig(t, `table { unknown = 1 }`))
	assert.Error(t, err)
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"port out of range", func(c *ServerConfig) { c.Server.Port = 70000 }},
		{"unknown log level", func(c *ServerConfig) { c.Server.LogLevel = "loud" }},
		{"empty address", func(c *ServerConfig) { c.Server.Address = "" }},
		{"zero balance", func(c *ServerConfig) { c.Table.StartingBalance = 0 }},
		{"bad window", func(c *ServerConfig) { c.Table.BettingWindow = "soon" }},
		{"negative window", func(c *ServerConfig) { c.Table.BettingWindow = "-1s" }},
		{"zero spin", func(c *ServerConfig) { c.Table.SpinDuration = "0s" }},
		{"history too large", func(c *ServerConfig) { c.Table.HistorySize = 1000 }},
		{"unknown departed policy", func(c *ServerConfig) { c.Table.DepartedPolicy = "keep" }},
		{"unknown wager policy", func(c *ServerConfig) { c.Table.WagerPolicy = "loose" }},
	}

	require.NoError(t, DefaultServerConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultServerConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())

			_, err := config.CoordinatorConfig()
			assert.Error(t, err)
		})
	}
}
