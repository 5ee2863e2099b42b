package processor

import (
	"math"
	"time"
)

// HysteresisState is a Schmitt trigger with dwell for the lid angle.
// A reading inside the inner band never moves the output. A reading beyond the
// outer band moves it immediately. Anything in between must persist before it
// is accepted, so a single reading in the uncertain band cannot toggle the value.
type HysteresisState struct {
	Stabilized   float64
	HasValue     bool
	OutsideSince time.Time // zero when no persistence timer is running

	commits int
}

// Stabilize feeds a reading through the hysteresis rule and returns the stabilized angle.
func (h *HysteresisState) Stabilize(angle float64, t time.Time) float64 {
	if !h.HasValue {
		h.Stabilized = angle
		h.HasValue = true
		h.OutsideSince = time.Time{}
		return h.Stabilized
	}

	ad := math.Abs(angle - h.Stabilized)

	switch {
	case ad <= hysteresisInnerBand:
		h.OutsideSince = time.Time{}

	case ad >= hysteresisOuterBand:
		h.commit(angle)

	default:
		if h.OutsideSince.IsZero() {
			h.OutsideSince = t
		}
		if t.Sub(h.OutsideSince) >= hysteresisPersistence {
			h.commit(angle)
		}
	}

	return h.Stabilized
}

func (h *HysteresisState) commit(angle float64) {
	h.Stabilized = angle
	h.OutsideSince = time.Time{}
	h.commits++
}

// Commits returns how many times the stabilized angle has moved since seeding.
func (h *HysteresisState) Commits() int {
	return h.commits
}

// Reset forgets the stabilized angle; the next reading seeds it again.
func (h *HysteresisState) Reset() {
	*h = HysteresisState{}
}
