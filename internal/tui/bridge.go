package tui

import (
	"github.com/bluess1/Troulette/internal/client"
	"github.com/bluess1/Troulette/internal/protocol"
	tea "github.com/charmbracelet/bubbletea"
)

// forwardedTypes are the server messages the table view renders.
var forwardedTypes = []protocol.MessageType{
	protocol.MessageTypeJoined,
	protocol.MessageTypePlayerJoined,
	protocol.MessageTypePlayerLeft,
	protocol.MessageTypeBettingStarted,
	protocol.MessageTypeBetPlaced,
	protocol.MessageTypeBetsCleared,
	protocol.MessageTypeSpinStarted,
	protocol.MessageTypeSpinResult,
	protocol.MessageTypeError,
}

// Sender is the part of tea.Program the bridge needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards client messages into a running program. The returned
// function unregisters the handlers.
func Bridge(c *client.Client, p Sender) func() {
	removers := make([]func(), 0, len(forwardedTypes))
	for _, mt := range forwardedTypes {
		removers = append(removers, c.AddEventHandler(mt, func(msg *protocol.Message) {
			p.Send(ServerMsg{Message: msg})
		}))
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-c.Done():
			p.Send(DisconnectedMsg{})
		case <-stop:
		}
	}()

	return func() {
		close(stop)
		for _, remove := range removers {
			remove()
		}
	}
}
