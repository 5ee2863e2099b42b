// Package ui provides the Bubbletea live monitor for lidtone
package ui

import (
	"fmt"
	"log/slog"
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/lidtone/internal/engine"
	"github.com/linuxmatters/lidtone/internal/processor"
)

const (
	amplitudeStep = 0.5  // degrees per +/- key press
	maxAmplitude  = 45.0 // upper bound for the jitter amplitude key
	forcedSpeed   = 5.0  // deg/s sent by the force key, a slow creak
)

// Controller is the part of the engine the monitor can drive. Calls must not block.
type Controller interface {
	SetJitterConfig(processor.JitterConfig) error
	ForceVelocity(v float64) error
	ResetJitterHistory()
}

// Model is the Bubbletea model for the live monitor
type Model struct {
	Source string
	Policy processor.PolicyID

	// Latest snapshot from the engine
	Status    engine.Status
	HasStatus bool

	// Result of the last key action, shown in the footer
	LastAction string

	Done    bool
	Err     error
	Summary engine.Summary

	// Terminal dimensions
	Width  int
	Height int

	ctrl Controller
	log  *slog.Logger
}

// NewModel creates a monitor for a run. ctrl may be nil for a read-only view.
func NewModel(source string, policy processor.PolicyID, ctrl Controller, log *slog.Logger) Model {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return Model{
		Source: source,
		Policy: policy,
		ctrl:   ctrl,
		log:    log,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.log.Debug("window resized", "width", m.Width, "height", m.Height)

	case StatusMsg:
		m.Status = msg.Status
		m.HasStatus = true

	case DoneMsg:
		m.log.Debug("engine done", "error", msg.Err)
		m.Done = true
		m.Err = msg.Err
		m.Summary = msg.Summary
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "j":
		jc := m.Status.Jitter
		jc.Enabled = !jc.Enabled
		m.applyJitter(jc, fmt.Sprintf("jitter filter %s", onOff(jc.Enabled)))

	case "+", "=":
		jc := m.Status.Jitter
		jc.Amplitude = math.Min(jc.Amplitude+amplitudeStep, maxAmplitude)
		m.applyJitter(jc, fmt.Sprintf("jitter amplitude %.1f°", jc.Amplitude))

	case "-", "_":
		jc := m.Status.Jitter
		jc.Amplitude = math.Max(jc.Amplitude-amplitudeStep, 0)
		m.applyJitter(jc, fmt.Sprintf("jitter amplitude %.1f°", jc.Amplitude))

	case "r":
		if m.ctrl != nil {
			m.ctrl.ResetJitterHistory()
			m.LastAction = "jitter history cleared"
		}

	case "f":
		if m.ctrl != nil {
			if err := m.ctrl.ForceVelocity(forcedSpeed); err != nil {
				m.LastAction = "force failed: " + err.Error()
			} else {
				m.LastAction = fmt.Sprintf("forced %.0f deg/s", forcedSpeed)
			}
		}
	}
	return m, nil
}

// applyJitter sends a jitter change and shows it immediately; the engine's
// next status confirms it.
func (m *Model) applyJitter(jc processor.JitterConfig, action string) {
	if m.ctrl == nil {
		return
	}
	if err := m.ctrl.SetJitterConfig(jc); err != nil {
		m.LastAction = "change rejected: " + err.Error()
		m.log.Warn("jitter change rejected", "error", err)
		return
	}
	m.Status.Jitter = jc
	m.LastAction = action
	m.log.Debug("jitter change sent", "enabled", jc.Enabled, "amplitude", jc.Amplitude)
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderCompletionSummary(m)
	}
	if !m.HasStatus {
		return renderHeader(m) + "\n\nWaiting for the sensor...\n"
	}
	return renderMonitorView(m)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
