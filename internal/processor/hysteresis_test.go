package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestHysteresisSeedsOnFirstCall(t *testing.T) {
	var h HysteresisState
	assert.False(t, h.HasValue)
	assert.Equal(t, 42.0, h.Stabilize(42.0, at(0)))
	assert.True(t, h.HasValue)
	assert.Equal(t, 0, h.Commits())
}

func TestHysteresisInnerBandNeverMoves(t *testing.T) {
	var h HysteresisState
	h.Stabilize(50.0, at(0))

	readings := []float64{51.5, 48.2, 52.0, 49.0, 48.0, 50.7, 51.99}
	for i, r := range readings {
		got := h.Stabilize(r, at(10*(i+1)))
		assert.Equal(t, 50.0, got, "reading %d (%.2f°) moved the output", i, r)
	}
	assert.True(t, h.OutsideSince.IsZero())
}

func TestHysteresisOuterBandAcceptsImmediately(t *testing.T) {
	tests := []struct {
		name  string
		jump  float64
		after float64
	}{
		{"six degrees up", 56.0, 56.0},
		{"six degrees down", 44.0, 44.0},
		{"exactly five degrees", 55.0, 55.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h HysteresisState
			h.Stabilize(50.0, at(0))
			assert.Equal(t, tt.after, h.Stabilize(tt.jump, at(10)))
			assert.Equal(t, 1, h.Commits())
		})
	}
}

func TestHysteresisBetweenBandsRequiresPersistence(t *testing.T) {
	var h HysteresisState
	h.Stabilize(50.0, at(0))

	// Timer starts at 10 ms; acceptance is due at 90 ms.
	assert.Equal(t, 50.0, h.Stabilize(53.0, at(10)))
	assert.Equal(t, 50.0, h.Stabilize(53.0, at(50)))
	assert.Equal(t, 50.0, h.Stabilize(53.0, at(89)))
	assert.Equal(t, 53.0, h.Stabilize(53.0, at(90)))
	assert.True(t, h.OutsideSince.IsZero(), "timer must clear on acceptance")
}

func TestHysteresisConflictingReadingRestartsDwell(t *testing.T) {
	var h HysteresisState
	h.Stabilize(50.0, at(0))

	assert.Equal(t, 50.0, h.Stabilize(53.0, at(10)))
	// Back inside the inner band before 80 ms elapsed: timer resets.
	assert.Equal(t, 50.0, h.Stabilize(50.5, at(40)))
	assert.True(t, h.OutsideSince.IsZero())

	// A fresh dwell is needed from here.
	assert.Equal(t, 50.0, h.Stabilize(53.0, at(60)))
	assert.Equal(t, 50.0, h.Stabilize(53.0, at(130)))
	assert.Equal(t, 53.0, h.Stabilize(53.0, at(140)))
}

func TestHysteresisOppositeMiddleBandKeepsTimer(t *testing.T) {
	var h HysteresisState
	h.Stabilize(50.0, at(0))

	assert.Equal(t, 50.0, h.Stabilize(53.0, at(10)))
	// Still in the middle band, other side: the dwell keeps counting from 10 ms.
	assert.Equal(t, 50.0, h.Stabilize(47.0, at(40)))
	assert.Equal(t, at(10), h.OutsideSince)
	assert.Equal(t, 50.0, h.Stabilize(47.0, at(89)))

	// Acceptance takes whichever middle-band reading arrives when the dwell ends.
	assert.Equal(t, 47.0, h.Stabilize(47.0, at(90)))
	assert.Equal(t, 1, h.Commits())
	assert.True(t, h.OutsideSince.IsZero())
}

func TestHysteresisReset(t *testing.T) {
	var h HysteresisState
	h.Stabilize(50.0, at(0))
	h.Stabilize(60.0, at(10))
	h.Reset()

	assert.False(t, h.HasValue)
	assert.Equal(t, 0, h.Commits())
	assert.Equal(t, 12.0, h.Stabilize(12.0, at(20)))
}
