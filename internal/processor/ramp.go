package processor

import (
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// Ramp moves current toward target by the fraction dt/tau of the remaining distance,
// clamped to [0, 1]. A zero dt is a no-op and tauMs <= 0 jumps straight to target.
func Ramp(current, target float64, dt time.Duration, tauMs float64) float64 {
	if current == target || dt <= 0 {
		return current
	}
	if tauMs <= 0 {
		return target
	}
	k := core.Clamp(dt.Seconds()/(tauMs/1000.0), 0, 1)
	return current + (target-current)*k
}

// RampParams ramps both members of a parameter pair with their own time constants.
func RampParams(current, target Params, dt time.Duration, levelTauMs, pitchTauMs float64) Params {
	return Params{
		Level: Ramp(current.Level, target.Level, dt, levelTauMs),
		Pitch: Ramp(current.Pitch, target.Pitch, dt, pitchTauMs),
	}
}
