package processor

import (
	"math"
	"time"
)

// FilterState is the mutable state of the smoothing stage and velocity estimator.
// One instance belongs to one pipeline and is only touched from the control tick.
type FilterState struct {
	LastAngle        float64 // last angle accepted as movement
	SmoothedAngle    float64
	SmoothedVelocity float64 // deg/s, never negative
	LastUpdate       time.Time
	LastMovement     time.Time
	FirstUpdate      bool
}

// NewFilterState returns a state awaiting its first sample.
func NewFilterState() FilterState {
	return FilterState{FirstUpdate: true}
}

// Motion is the result of one smoothing update
type Motion struct {
	Angle    float64       // smoothed angle
	Instant  float64       // instantaneous speed in deg/s (0 below the movement threshold)
	Velocity float64       // smoothed speed in deg/s after blend or decay
	DT       time.Duration // time since the previous update
	Gap      bool          // sample spacing was outside (0, MaxGap]; nothing else was computed
}

// Update advances the smoothing stage and velocity estimator by one sample.
// jitter marks samples the jitter detector substituted; they never count as movement.
func (s *FilterState) Update(cfg *PipelineConfig, angle float64, t time.Time, jitter bool) Motion {
	if s.FirstUpdate {
		s.LastAngle = angle
		s.SmoothedAngle = angle
		s.SmoothedVelocity = 0
		s.LastUpdate = t
		s.LastMovement = t
		s.FirstUpdate = false
		return Motion{Angle: angle}
	}

	dt := t.Sub(s.LastUpdate)
	if s.RejectGap(cfg, t) {
		return Motion{Angle: s.SmoothedAngle, Velocity: s.SmoothedVelocity, DT: dt, Gap: true}
	}
	s.LastUpdate = t

	s.SmoothedAngle = cfg.AngleSmoothing*angle + (1-cfg.AngleSmoothing)*s.SmoothedAngle

	instant := 0.0
	delta := s.SmoothedAngle - s.LastAngle
	if math.Abs(delta) >= cfg.MovementThreshold {
		instant = math.Abs(delta / dt.Seconds())
		s.LastAngle = s.SmoothedAngle
	}

	if instant > 0 && !jitter {
		s.SmoothedVelocity = cfg.VelocitySmoothing*instant + (1-cfg.VelocitySmoothing)*s.SmoothedVelocity
		s.LastMovement = t
	} else {
		s.SmoothedVelocity *= cfg.VelocityDecay
		if t.Sub(s.LastMovement) > cfg.MovementTimeout {
			s.SmoothedVelocity *= cfg.StillDecay
		}
	}

	if s.SmoothedVelocity < velocitySettleFloor {
		s.SmoothedVelocity = 0
	}

	return Motion{
		Angle:    s.SmoothedAngle,
		Instant:  instant,
		Velocity: s.SmoothedVelocity,
		DT:       dt,
	}
}

// RejectGap reports whether a sample at t is spaced outside (0, MaxGap] from the
// previous update. A rejected sample only moves the timing reference, so the
// next sample is measured from it.
func (s *FilterState) RejectGap(cfg *PipelineConfig, t time.Time) bool {
	if s.FirstUpdate {
		return false
	}
	dt := t.Sub(s.LastUpdate)
	if dt > 0 && dt <= cfg.MaxGap {
		return false
	}
	s.LastUpdate = t
	return true
}

// Reset returns the state to awaiting its first sample.
func (s *FilterState) Reset() {
	*s = NewFilterState()
}
