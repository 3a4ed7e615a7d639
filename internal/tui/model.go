// Package tui renders live retrieval progress as a full-screen terminal UI.
//
// The model consumes fetchengine events through an EventBridge and draws a
// single screen: discovery progress while the plan is built, then a transfer
// dashboard with an overall bar, the files in flight, and recent outcomes.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/fetchengine"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/formatters"
)

// phase is which part of the run the screen is showing.
type phase int

const (
	phaseDiscovering phase = iota
	phaseTransferring
	phaseDone
)

// tickMsg drives elapsed-time refreshes between engine events.
type tickMsg time.Time

const tickInterval = 250 * time.Millisecond

// recentEntry is one finished file for the recent list.
type recentEntry struct {
	path    string
	outcome string // "done", "skip", "fail", "veto"
}

// Model is the bubbletea model for the retrieval dashboard.
type Model struct {
	bridge *EventBridge
	cancel context.CancelFunc

	spinner spinner.Model
	bar     progress.Model
	width   int

	phase        phase
	months       int
	monthsListed int
	planFiles    int
	planBytes    int64

	snapshot   fetchengine.Snapshot
	totalFiles int
	startTime  time.Time

	active   map[string]string // path -> progress line
	recent   []recentEntry
	canceled bool
}

// NewModel creates the dashboard model. The cancel function is invoked when
// the user aborts with ctrl+c.
func NewModel(bridge *EventBridge, cancel context.CancelFunc) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(PrimaryColor())

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = ProgressBarWidth

	return Model{
		bridge:    bridge,
		cancel:    cancel,
		spinner:   spin,
		bar:       bar,
		active:    make(map[string]string),
		startTime: time.Now(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.bridge.ListenCmd(),
		tickCmd(),
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-2*DefaultPadding-4, ProgressBarWidth*2)

		return m, nil

	case tea.KeyMsg:
		if msg.String() == KeyCtrlC || msg.String() == "q" {
			// Second press force-quits without waiting for the drain
			if m.canceled {
				return m, tea.Quit
			}

			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}

			return m, nil
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tickMsg:
		if m.phase == phaseDone {
			return m, nil
		}

		return m, tickCmd()

	case EngineEventMsg:
		return m.handleEngineEvent(msg.Event)

	default:
		return m, nil
	}
}

// handleEngineEvent folds one engine event into the screen state.
//
//nolint:cyclop // Event dispatch is clearest as a single switch
func (m Model) handleEngineEvent(event fetchengine.Event) (tea.Model, tea.Cmd) {
	switch event := event.(type) {
	case fetchengine.DiscoveryStarted:
		m.phase = phaseDiscovering
		m.months = event.Months

	case fetchengine.MonthListed:
		m.monthsListed++
		m.planFiles += event.Files

	case fetchengine.MonthMissing:
		m.monthsListed++

	case fetchengine.DiscoveryComplete:
		m.planFiles = event.Files
		m.planBytes = event.Bytes

	case fetchengine.RunStarted:
		m.phase = phaseTransferring
		m.totalFiles = event.TotalFiles
		m.planBytes = event.TotalBytes

	case fetchengine.FileStarted:
		m.active[event.Path] = formatters.FormatBytes(event.Size)

	case fetchengine.FileProgress:
		m.active[event.Path] = progressLine(event.Bytes, event.Total)

	case fetchengine.FileComplete:
		delete(m.active, event.Path)
		m.pushRecent(event.Path, "done")

	case fetchengine.FileSkipped:
		m.pushRecent(event.Path, "skip")

	case fetchengine.FileFailed:
		delete(m.active, event.Path)
		m.pushRecent(event.Path, "fail")

	case fetchengine.FileVetoed:
		m.pushRecent(event.Path, "veto")

	case fetchengine.StatsSnapshot:
		m.snapshot = event.Stats

	case fetchengine.RunComplete:
		m.snapshot = event.Stats
		m.phase = phaseDone

		return m, tea.Quit
	}

	return m, m.bridge.ListenCmd()
}

// pushRecent prepends a finished file, trimming the list.
func (m *Model) pushRecent(path, outcome string) {
	m.recent = append([]recentEntry{{path: path, outcome: outcome}}, m.recent...)
	if len(m.recent) > MaxRecentFiles {
		m.recent = m.recent[:MaxRecentFiles]
	}
}

// Snapshot returns the latest counters, for the caller's final summary.
func (m Model) Snapshot() fetchengine.Snapshot {
	return m.snapshot
}

// Canceled reports whether the user aborted the run.
func (m Model) Canceled() bool {
	return m.canceled
}

// View implements tea.Model
func (m Model) View() string {
	var view strings.Builder

	view.WriteString(TitleStyle().Render("cryofetch"))
	view.WriteString("\n")

	switch m.phase {
	case phaseDiscovering:
		view.WriteString(fmt.Sprintf("%s scanning month folders (%d/%d), %d files planned\n",
			m.spinner.View(), m.monthsListed, m.months, m.planFiles))

	case phaseTransferring:
		view.WriteString(m.transferView())

	case phaseDone:
		view.WriteString(SuccessStyle().Render("run complete"))
		view.WriteString("\n")
	}

	if m.canceled && m.phase != phaseDone {
		view.WriteString(WarningStyle().Render("canceling, waiting for in-flight files (ctrl+c again to force quit)"))
		view.WriteString("\n")
	}

	view.WriteString(DimStyle().Render("press ctrl+c to cancel"))
	view.WriteString("\n")

	return view.String()
}

// transferView renders the main dashboard body.
func (m Model) transferView() string {
	var view strings.Builder

	processed := m.snapshot.Processed()

	ratio := 0.0
	if m.totalFiles > 0 {
		ratio = float64(processed) / float64(m.totalFiles)
	}

	view.WriteString(m.bar.ViewAs(ratio))
	view.WriteString(fmt.Sprintf(" %d/%d files\n\n", processed, m.totalFiles))

	elapsed := m.snapshot.Elapsed()
	rate := 0.0

	if seconds := elapsed.Seconds(); seconds > 0 {
		rate = float64(m.snapshot.TransferredBytes) / seconds
	}

	view.WriteString(fmt.Sprintf("%s transferred at %s, elapsed %s\n",
		formatters.FormatBytes(m.snapshot.TransferredBytes),
		formatters.FormatRate(rate),
		formatters.FormatDuration(elapsed)))

	view.WriteString(fmt.Sprintf("completed %d, skipped %d, failed %d, retries %d\n\n",
		m.snapshot.Completed, m.snapshot.Skipped, m.snapshot.Failed, m.snapshot.Retries))

	if len(m.active) > 0 {
		view.WriteString(fmt.Sprintf("%s downloading:\n", m.spinner.View()))

		for path, line := range m.active {
			view.WriteString(fmt.Sprintf("  %s  %s\n", shortName(path), DimStyle().Render(line)))
		}

		view.WriteString("\n")
	}

	for _, entry := range m.recent {
		view.WriteString(recentLine(entry))
		view.WriteString("\n")
	}

	return view.String()
}

// recentLine renders one finished file with outcome coloring.
func recentLine(entry recentEntry) string {
	name := shortName(entry.path)

	switch entry.outcome {
	case "done":
		return SuccessStyle().Render("  ✓ ") + name
	case "skip":
		return DimStyle().Render("  = " + name)
	case "veto":
		return WarningStyle().Render("  ! ") + name
	default:
		return ErrorStyle().Render("  ✗ ") + name
	}
}

// progressLine formats in-flight byte progress.
func progressLine(bytes, total int64) string {
	if total <= 0 {
		return formatters.FormatBytes(bytes)
	}

	return fmt.Sprintf("%s / %s", formatters.FormatBytes(bytes), formatters.FormatBytes(total))
}

// shortName trims a remote path to its file name.
func shortName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}

	return path
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
