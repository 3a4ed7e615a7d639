package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/fetchengine"
)

// EngineEventMsg wraps a fetchengine.Event for use as a tea.Msg.
type EngineEventMsg struct {
	Event fetchengine.Event
}

// EventBridge adapts fetchengine events to bubble tea messages.
// It implements fetchengine.EventEmitter and provides a channel for TUI consumption.
type EventBridge struct {
	eventChan chan tea.Msg
	closed    bool
}

// NewEventBridge creates a new event bridge.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		eventChan: make(chan tea.Msg, 256), // Buffer to prevent blocking engine
	}
}

// Emit implements fetchengine.EventEmitter.
// It wraps the event in EngineEventMsg and sends to the channel.
func (b *EventBridge) Emit(event fetchengine.Event) {
	if b.closed {
		return
	}

	msg := EngineEventMsg{Event: event}

	// RunComplete is the dashboard's quit signal and the last event of a
	// run. It must never be lost to a full buffer, so it sends blocking;
	// the engine has nothing left to do at that point.
	if _, final := event.(fetchengine.RunComplete); final {
		b.eventChan <- msg

		return
	}

	// Non-blocking send - if channel is full, skip event
	// (This shouldn't happen with adequate buffer and TUI processing)
	select {
	case b.eventChan <- msg:
	default:
		// Channel full, event dropped
	}
}

// Subscribe returns the event channel for receiving events.
func (b *EventBridge) Subscribe() <-chan tea.Msg {
	return b.eventChan
}

// ListenCmd returns a tea.Cmd that blocks until an event is received.
// Use this in Init() or after processing an event to continue listening.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.eventChan
		if !ok {
			return nil // Channel closed
		}

		return msg
	}
}

// Close closes the event channel.
// Call this when done with the bridge.
func (b *EventBridge) Close() {
	if !b.closed {
		b.closed = true
		close(b.eventChan)
	}
}
