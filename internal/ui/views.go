package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/lidtone/internal/cli"
	"github.com/linuxmatters/lidtone/internal/processor"
)

const (
	boxWidth   = 60
	gaugeWidth = 32
	maxAngle   = 180.0 // degrees shown on the angle gauge
	maxSpeed   = 200.0 // deg/s shown on the velocity gauge
)

var (
	brandColor = cli.Brass
	mutedColor = cli.Slate
	okColor    = cli.Moss
	warnColor  = cli.Ember
)

// renderMonitorView renders the live monitor
func renderMonitorView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderGauges(m))
	b.WriteString("\n")
	b.WriteString(renderPipelineBox(m))
	b.WriteString("\n")
	b.WriteString(renderFooter(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := cli.Title("Lidtone · lid angle instrument")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("Policy %s | Source %s | %s", m.Policy, m.Source, formatElapsed(m.Status.Elapsed)))

	return title + "\n" + subtitle
}

// renderGauges renders the angle, velocity and parameter gauges
func renderGauges(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(brandColor).
		Padding(0, 1).
		Width(boxWidth)

	r := m.Status.Result
	var content strings.Builder

	angleLabel := fmt.Sprintf("%6.1f°", r.Stabilized)
	if !m.Status.Available {
		angleLabel = lipgloss.NewStyle().Foreground(warnColor).Render("  n/a  ")
	}
	content.WriteString(fmt.Sprintf("Angle    %s %s\n", renderGauge(r.Stabilized/maxAngle, gaugeWidth), angleLabel))
	content.WriteString(fmt.Sprintf("Speed    %s %6.1f°/s\n", renderGauge(math.Abs(r.Velocity)/maxSpeed, gaugeWidth), r.Velocity))
	content.WriteString(fmt.Sprintf("%-8s %s %6.2f\n", levelName(m.Policy), renderGauge(r.Current.Level, gaugeWidth), r.Current.Level))

	lo, hi := processor.PitchRange(m.Policy)
	content.WriteString(fmt.Sprintf("%-8s %s %s", pitchName(m.Policy), renderGauge((r.Current.Pitch-lo)/(hi-lo), gaugeWidth), formatPitch(m.Policy, r.Current.Pitch)))

	return box.Render(content.String())
}

// renderPipelineBox renders jitter settings and pipeline counters
func renderPipelineBox(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(boxWidth)

	jc := m.Status.Jitter
	st := m.Status.Stats

	jitter := lipgloss.NewStyle().Foreground(mutedColor).Render("off")
	if jc.Enabled {
		jitter = lipgloss.NewStyle().Foreground(okColor).Render("on")
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("Jitter %s | amplitude %.1f° | flips %d | window %s\n",
		jitter, jc.Amplitude, jc.MinSignFlips, jc.Window))
	content.WriteString(fmt.Sprintf("Samples %d | dropped %d | gaps %d | subs %d | commits %d",
		st.Samples, m.Status.Dropped, st.Gaps, st.JitterSubstitutions, st.HysteresisCommits))

	flags := renderFlags(m)
	if flags != "" {
		content.WriteString("\n")
		content.WriteString(flags)
	}

	return box.Render(content.String())
}

func renderFlags(m Model) string {
	var parts []string
	warn := lipgloss.NewStyle().Foreground(warnColor)
	if m.Status.Result.Jitter {
		parts = append(parts, warn.Render("jitter"))
	}
	if m.Status.Result.Gap {
		parts = append(parts, warn.Render("gap"))
	}
	if m.Status.Forced {
		parts = append(parts, warn.Render("forced"))
	}
	return strings.Join(parts, " ")
}

// renderFooter renders the key help and the last action
func renderFooter(m Model) string {
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	help := muted.Render("j jitter on/off · +/- amplitude · r reset · f force · q quit")
	if m.LastAction == "" {
		return help
	}
	return m.LastAction + "\n" + help
}

// renderGauge renders a horizontal bar for a fraction in [0, 1]
func renderGauge(fraction float64, width int) string {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))
	filled := int(math.Round(fraction * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// renderCompletionSummary renders the final summary once the engine stops
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	if m.Err != nil {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(warnColor).Render("✗ Stopped with an error"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Error: %v\n", m.Err))
		return b.String()
	}

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(okColor).Render("✓ Session complete"))
	b.WriteString("\n\n")

	s := m.Summary
	b.WriteString(fmt.Sprintf(" Duration %s | samples %d | dropped %d\n",
		formatElapsed(s.Duration), s.Stats.Samples, s.Dropped))
	b.WriteString(fmt.Sprintf(" Peak speed %.1f°/s | jitter substitutions %d\n",
		s.Stats.PeakVelocity, s.Stats.JitterSubstitutions))
	b.WriteString(strings.Repeat("─", boxWidth))
	b.WriteString("\n")

	return b.String()
}

func levelName(p processor.PolicyID) string {
	if p == processor.PolicyTone {
		return "Volume"
	}
	return "Gain"
}

func pitchName(p processor.PolicyID) string {
	if p == processor.PolicyTone {
		return "Freq"
	}
	return "Rate"
}

func formatPitch(p processor.PolicyID, v float64) string {
	if p == processor.PolicyTone {
		return fmt.Sprintf("%5.1f Hz", v)
	}
	return fmt.Sprintf("%6.3fx", v)
}

func formatElapsed(d time.Duration) string {
	d = d.Truncate(100 * time.Millisecond)
	return d.String()
}
