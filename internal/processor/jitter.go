package processor

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Jitter detection limits
const (
	historyCapacity  = 6 // most recent samples kept regardless of window
	jitterMinSamples = 4 // fewer samples cannot show an alternation pattern
)

// SignalHistory is a short, time-bounded record of recent angle samples.
// Angles and times are kept in parallel slices so the angle slice can be
// handed to gonum directly.
type SignalHistory struct {
	angles []float64
	times  []time.Time
}

// NewSignalHistory creates an empty history with fixed capacity.
func NewSignalHistory() *SignalHistory {
	return &SignalHistory{
		angles: make([]float64, 0, historyCapacity+1),
		times:  make([]time.Time, 0, historyCapacity+1),
	}
}

// Add appends a sample, evicts entries older than t-window and caps the count.
func (h *SignalHistory) Add(angle float64, t time.Time, window time.Duration) {
	h.angles = append(h.angles, angle)
	h.times = append(h.times, t)

	cutoff := t.Add(-window)
	drop := 0
	for drop < len(h.times) && h.times[drop].Before(cutoff) {
		drop++
	}
	if excess := len(h.angles) - drop - historyCapacity; excess > 0 {
		drop += excess
	}
	if drop > 0 {
		h.angles = append(h.angles[:0], h.angles[drop:]...)
		h.times = append(h.times[:0], h.times[drop:]...)
	}
}

// Len returns the number of samples currently held.
func (h *SignalHistory) Len() int {
	return len(h.angles)
}

// Angles returns the held angles, oldest first. The slice is owned by the history.
func (h *SignalHistory) Angles() []float64 {
	return h.angles
}

// Reset discards every sample.
func (h *SignalHistory) Reset() {
	h.angles = h.angles[:0]
	h.times = h.times[:0]
}

// JitterDetector classifies samples as genuine motion or low-amplitude oscillation.
// A plateau that wobbles a few degrees back and forth must not read as a slow creak,
// so both an amplitude ceiling and a minimum number of alternations are required.
type JitterDetector struct {
	history *SignalHistory
	config  JitterConfig
}

// NewJitterDetector creates a detector with the given configuration.
func NewJitterDetector(cfg JitterConfig) *JitterDetector {
	return &JitterDetector{
		history: NewSignalHistory(),
		config:  cfg,
	}
}

// Config returns the active configuration.
func (d *JitterDetector) Config() JitterConfig {
	return d.config
}

// SetConfig replaces the configuration and clears history recorded under the old one.
func (d *JitterDetector) SetConfig(cfg JitterConfig) {
	d.config = cfg
	d.history.Reset()
}

// Reset clears the history.
func (d *JitterDetector) Reset() {
	d.history.Reset()
}

// Observe records a sample and reports whether it is part of a jitter pattern.
// Always false when the detector is disabled.
func (d *JitterDetector) Observe(angle float64, t time.Time) bool {
	if !d.config.Enabled {
		return false
	}

	d.history.Add(angle, t, d.config.Window)
	if d.history.Len() < jitterMinSamples {
		return false
	}

	angles := d.history.Angles()
	if floats.Max(angles)-floats.Min(angles) > d.config.Amplitude {
		return false
	}

	return countSignFlips(angles, d.config.MinDelta) >= d.config.MinSignFlips
}

// countSignFlips counts direction reversals between consecutive deltas,
// ignoring deltas below the noise floor.
func countSignFlips(angles []float64, minDelta float64) int {
	flips := 0
	lastSign := 0
	for i := 1; i < len(angles); i++ {
		delta := angles[i] - angles[i-1]
		if delta == 0 || math.Abs(delta) < minDelta {
			continue
		}
		sign := 1
		if delta < 0 {
			sign = -1
		}
		if lastSign != 0 && sign != lastSign {
			flips++
		}
		lastSign = sign
	}
	return flips
}
