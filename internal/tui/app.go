package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/fetchengine"
)

// Run starts the full-screen dashboard and blocks until the engine finishes
// or the user cancels. The bridge must already be wired into the engine as
// its event emitter. Returns the final model state for summary printing.
func Run(bridge *EventBridge, cancel context.CancelFunc) (fetchengine.Snapshot, bool, error) {
	model := NewModel(bridge, cancel)

	program := tea.NewProgram(model, tea.WithAltScreen())

	final, err := program.Run()
	if err != nil {
		return fetchengine.Snapshot{}, false, fmt.Errorf("running dashboard: %w", err)
	}

	finalModel, ok := final.(Model)
	if !ok {
		return fetchengine.Snapshot{}, false, fmt.Errorf("unexpected final model type %T", final) //nolint:err113 // programming error, not matched by callers
	}

	return finalModel.Snapshot(), finalModel.Canceled(), nil
}
