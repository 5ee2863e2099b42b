// Package logging handles the debug log and the session report for a lidtone run

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linuxmatters/lidtone/internal/engine"
	"github.com/linuxmatters/lidtone/internal/processor"
)

// ReportData contains all the information needed to generate a session report
type ReportData struct {
	SessionID string
	Source    string // "sim", "serial:/dev/ttyACM0", "trace:lid.csv"
	TracePath string // recorded trace, if any
	StartTime time.Time
	EndTime   time.Time
	Config    processor.PipelineConfig
	Summary   engine.Summary
}

// NewSessionID returns a fresh identifier for a run's report and debug log.
func NewSessionID() string {
	return uuid.NewString()
}

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// GenerateReport writes the session report to path.
func GenerateReport(path string, data ReportData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, data); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// WriteReport renders the report.
//
// Report structure:
// 1. Header - session, source and timestamps
// 2. Pipeline Configuration - the tuning that was active
// 3. Activity - counts from the pipeline and the sensor
// 4. Tuning Tips - advice derived from the activity
func WriteReport(w io.Writer, data ReportData) error {
	writeReportHeader(w, data)
	writeConfigTable(w, data.Config, data.Summary.Jitter)
	writeActivityTable(w, data.Summary)
	writeTips(w, GenerateTuningTips(data.Summary))
	return nil
}

func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Lidtone Session Report")
	fmt.Fprintln(w, "======================")
	fmt.Fprintf(w, "Session: %s\n", data.SessionID)
	fmt.Fprintf(w, "Source: %s\n", data.Source)
	if data.TracePath != "" {
		fmt.Fprintf(w, "Trace: %s\n", data.TracePath)
	}
	fmt.Fprintf(w, "Policy: %s\n", data.Summary.Policy)
	fmt.Fprintf(w, "Started: %s\n", data.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Duration: %s\n", formatTimestamp(data.Summary.Duration))
	fmt.Fprintln(w, "")
}

// writeConfigTable lists the pipeline tuning. The jitter values are the ones in
// force at the end of the session, which may differ from the startup config.
func writeConfigTable(w io.Writer, cfg processor.PipelineConfig, jitter processor.JitterConfig) {
	writeSection(w, "Pipeline Configuration")

	table := NewMetricTable("Value")
	table.AddMetricRow("Angle Smoothing", []float64{cfg.AngleSmoothing}, 2, "", "")
	table.AddMetricRow("Movement Threshold", []float64{cfg.MovementThreshold}, 2, "deg", "")
	table.AddMetricRow("Velocity Smoothing", []float64{cfg.VelocitySmoothing}, 2, "", "")
	table.AddMetricRow("Velocity Decay", []float64{cfg.VelocityDecay}, 2, "", "per tick")
	table.AddMetricRow("Still Decay", []float64{cfg.StillDecay}, 2, "", "per tick after timeout")
	table.AddRow("Movement Timeout", []string{fmt.Sprint(cfg.MovementTimeout.Milliseconds())}, "ms", "")
	table.AddMetricRow("Level Ramp", []float64{cfg.LevelRampMs}, 0, "ms", "")
	table.AddMetricRow("Pitch Ramp", []float64{cfg.PitchRampMs}, 0, "ms", "")
	table.AddRow("Jitter Filter", []string{onOff(jitter.Enabled)}, "", "")
	if jitter.Enabled {
		table.AddMetricRow("Jitter Amplitude", []float64{jitter.Amplitude}, 1, "deg", "peak-to-peak ceiling")
		table.AddRow("Jitter Window", []string{fmt.Sprint(jitter.Window.Milliseconds())}, "ms", "")
		table.AddMetricRow("Jitter Min Delta", []float64{jitter.MinDelta}, 2, "deg", "")
		table.AddRow("Jitter Min Flips", []string{fmt.Sprint(jitter.MinSignFlips)}, "", "")
	}

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writeActivityTable(w io.Writer, s engine.Summary) {
	writeSection(w, "Activity")

	ticks := s.Stats.Samples + s.Dropped
	table := NewMetricTable("Count", "Share")
	table.AddRow("Samples", []string{fmt.Sprint(s.Stats.Samples), formatPercent(s.Stats.Samples, ticks)}, "", "")
	table.AddRow("Dropped Readings", []string{fmt.Sprint(s.Dropped), formatPercent(s.Dropped, ticks)}, "", "")
	table.AddRow("Gaps", []string{fmt.Sprint(s.Stats.Gaps), formatPercent(s.Stats.Gaps, s.Stats.Samples)}, "", "")
	table.AddRow("Jitter Substitutions", []string{fmt.Sprint(s.Stats.JitterSubstitutions), formatPercent(s.Stats.JitterSubstitutions, s.Stats.Samples)}, "", "")
	table.AddRow("Angle Changes", []string{fmt.Sprint(s.Stats.HysteresisCommits), formatPercent(s.Stats.HysteresisCommits, s.Stats.Samples)}, "", "")
	fmt.Fprint(w, table.String())

	fmt.Fprintf(w, "Peak velocity: %s (%s)\n", formatMetricWithUnit(s.Stats.PeakVelocity, 1, "deg/s"), interpretVelocity(s.Stats.PeakVelocity))
	fmt.Fprintln(w, "")
}

func writeTips(w io.Writer, tips []TuningTip) {
	writeSection(w, "Tuning Tips")
	if len(tips) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	for i, tip := range tips {
		fmt.Fprintf(w, "%d. %s\n", i+1, wrapText(tip.Message, 72, "   "))
	}
}

// interpretVelocity describes an angular speed in lid terms.
func interpretVelocity(dps float64) string {
	switch {
	case dps < 1:
		return "still"
	case dps < 10:
		return "very slow, full creak"
	case dps < 100:
		return "moderate, creak fading"
	case dps < 300:
		return "fast, creak silent"
	default:
		return "slammed"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
