package logging

import (
	"sort"
	"strings"

	"github.com/linuxmatters/lidtone/internal/engine"
	"github.com/linuxmatters/lidtone/internal/processor"
)

// TuningTip represents a single piece of actionable advice derived from a
// session's statistics.
type TuningTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "dropped_readings")
}

// MaxTuningTips is the maximum number of tips to return.
const MaxTuningTips = 4

// Thresholds for the tip rules.
const (
	droppedRatioLimit   = 0.05 // fraction of ticks with no reading
	jitterRatioLimit    = 0.20 // fraction of samples replaced by the jitter filter
	unfilteredCommitMin = 0.25 // commits per sample that suggest an unfiltered noisy sensor
	creakSilentVelocity = 100.5
)

// GenerateTuningTips analyses a session summary and returns prioritised
// suggestions for the sensor setup and the jitter filter.
func GenerateTuningTips(s engine.Summary) []TuningTip {
	var tips []TuningTip
	fired := make(map[string]bool)

	rules := []func(engine.Summary) *TuningTip{
		tipDroppedReadings,
		tipGaps,
		tipNoMotion,
		tipHeavyJitter,
		tipUnfilteredNoise,
		tipTooFastForCreak,
	}

	for _, rule := range rules {
		if tip := rule(s); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxTuningTips {
		tips = tips[:MaxTuningTips]
	}
	return tips
}

// applyExclusions removes tips that are redundant when a more specific tip
// has already fired. Stalls are usually a symptom of dropped readings, and a
// lid that never moved cannot have been too fast.
func applyExclusions(tips []TuningTip, fired map[string]bool) []TuningTip {
	var result []TuningTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "sample_gaps":
			if fired["dropped_readings"] {
				continue
			}
		case "too_fast_for_creak", "heavy_jitter":
			if fired["no_motion"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipDroppedReadings fires when more than 5% of ticks had no usable reading.
func tipDroppedReadings(s engine.Summary) *TuningTip {
	ticks := s.Stats.Samples + s.Dropped
	if ticks == 0 || float64(s.Dropped)/float64(ticks) <= droppedRatioLimit {
		return nil
	}
	return &TuningTip{
		Priority: 9,
		RuleID:   "dropped_readings",
		Message:  "The sensor often had no reading. Check the cable and the board's firmware, and make sure nothing else has the serial port open.",
	}
}

// tipGaps fires when readings stalled long enough to reset the velocity timing.
func tipGaps(s engine.Summary) *TuningTip {
	if s.Stats.Gaps == 0 {
		return nil
	}
	return &TuningTip{
		Priority: 8,
		RuleID:   "sample_gaps",
		Message:  "Readings stalled for over a second at least once, so motion was briefly ignored. A busy USB hub or a sleeping laptop can cause this.",
	}
}

// tipNoMotion fires when the stabilized angle never moved.
func tipNoMotion(s engine.Summary) *TuningTip {
	if s.Stats.Samples == 0 || s.Stats.HysteresisCommits > 0 {
		return nil
	}
	return &TuningTip{
		Priority: 6,
		RuleID:   "no_motion",
		Message:  "The lid angle never moved more than a couple of degrees. Open and close the lid to hear the effect.",
	}
}

// tipHeavyJitter fires when the jitter filter replaced a large share of samples.
func tipHeavyJitter(s engine.Summary) *TuningTip {
	if !s.Jitter.Enabled || s.Stats.Samples == 0 {
		return nil
	}
	if float64(s.Stats.JitterSubstitutions)/float64(s.Stats.Samples) <= jitterRatioLimit {
		return nil
	}
	return &TuningTip{
		Priority: 7,
		RuleID:   "heavy_jitter",
		Message:  "The jitter filter replaced many readings. If slow movements feel sticky, lower --jitter-amplitude or raise --jitter-min-flips.",
	}
}

// tipUnfilteredNoise fires when jitter suppression was off and the
// stabilized angle kept moving, which usually means sensor noise got through.
func tipUnfilteredNoise(s engine.Summary) *TuningTip {
	if s.Jitter.Enabled || s.Stats.Samples == 0 {
		return nil
	}
	if float64(s.Stats.HysteresisCommits)/float64(s.Stats.Samples) <= unfilteredCommitMin {
		return nil
	}
	return &TuningTip{
		Priority: 5,
		RuleID:   "unfiltered_noise",
		Message:  "The angle changed on many ticks with the jitter filter off. Turn it on with --jitter-enabled if the sound flutters when the lid is still.",
	}
}

// tipTooFastForCreak fires when the creak policy saw speeds it renders as silence.
func tipTooFastForCreak(s engine.Summary) *TuningTip {
	if s.Policy != processor.PolicyCreak || s.Stats.PeakVelocity <= creakSilentVelocity {
		return nil
	}
	return &TuningTip{
		Priority: 3,
		RuleID:   "too_fast_for_creak",
		Message:  "Some movements were faster than 100 deg/s, where the creak goes quiet. Move the lid slowly to hear it.",
	}
}
