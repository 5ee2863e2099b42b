// This file provides the console summary printed after a run or replay.

package logging

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/linuxmatters/lidtone/internal/engine"
)

// DisplaySummary prints a short session summary and the top tuning tips.
// Used by replay and by runs without a terminal, where there is no live monitor.
func DisplaySummary(w io.Writer, title string, s engine.Summary) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "Policy:      %s\n", s.Policy)
	fmt.Fprintf(w, "Duration:    %s\n", formatTimestamp(s.Duration))
	fmt.Fprintf(w, "Samples:     %d (%d dropped)\n", s.Stats.Samples, s.Dropped)
	fmt.Fprintf(w, "Jitter:      %s, %d substitutions\n", onOff(s.Jitter.Enabled), s.Stats.JitterSubstitutions)
	fmt.Fprintf(w, "Peak speed:  %s\n", formatMetricWithUnit(s.Stats.PeakVelocity, 1, "deg/s"))
	fmt.Fprintln(w)

	tips := GenerateTuningTips(s)
	if len(tips) == 0 {
		return
	}
	fmt.Fprintln(w, "TIPS")
	for _, tip := range tips {
		fmt.Fprintf(w, "  - %s\n", wrapText(tip.Message, 56, "    "))
	}
}

// formatTimestamp formats a duration as a timestamp string (e.g., "1m 32s" or "24.0s").
func formatTimestamp(d time.Duration) string {
	totalSeconds := d.Seconds()
	if totalSeconds < 60 {
		return fmt.Sprintf("%.1fs", totalSeconds)
	}

	minutes := int(totalSeconds) / 60
	seconds := math.Mod(totalSeconds, 60)

	if minutes >= 60 {
		hours := minutes / 60
		minutes = minutes % 60
		return fmt.Sprintf("%dh %dm %.0fs", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %.0fs", minutes, seconds)
}
