package processor

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// Creak mapping constants
const (
	creakDeadzone   = 0.10  // deg/s - below this the lid is still
	creakFullEdge   = 9.5   // deg/s - at or below: full volume
	creakSilentEdge = 100.5 // deg/s - at or above: silent
	creakMinRate    = 0.80
	creakMaxRate    = 1.10
	creakRateSpan   = 100.0 // deg/s mapped across the rate range
)

// Tone mapping constants
const (
	toneMinFreq     = 80.0  // Hz at the closed lid
	toneMaxFreq     = 200.0 // Hz at toneMaxAngle and beyond
	toneMaxAngle    = 135.0 // degrees
	toneFreqCurve   = 0.6   // exponent < 1 spreads the low end
	toneBaseVolume  = 0.8   // constant hum
	toneBoostVolume = 0.2   // extra volume for slow motion
	toneBoostSpan   = 100.0 // deg/s over which the boost fades out
)

// Params is a pair of audio parameters shared by every policy.
// Level is gain (creak) or volume (tone); Pitch is playback rate (creak) or frequency in Hz (tone).
type Params struct {
	Level float64
	Pitch float64
}

// Policy maps a stabilized angle and velocity to target audio parameters.
// Implementations are pure: no hidden state, same inputs give the same output.
type Policy interface {
	ID() PolicyID
	Map(angle, velocity float64) Params
	// Initial is the parameter pair the engine starts from before any sample.
	Initial() Params
}

// NewPolicy returns the mapping policy for an identifier.
func NewPolicy(id PolicyID) (Policy, error) {
	switch id {
	case PolicyCreak:
		return CreakPolicy{}, nil
	case PolicyTone:
		return TonePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q", id)
	}
}

// CreakPolicy drives a looped creak sample: slow motion is loud, fast motion is silent.
type CreakPolicy struct{}

// ID implements Policy.
func (CreakPolicy) ID() PolicyID { return PolicyCreak }

// Initial implements Policy.
func (CreakPolicy) Initial() Params { return Params{Level: 0, Pitch: 1.0} }

// Map implements Policy. The angle plays no part in the creak.
func (CreakPolicy) Map(_, velocity float64) Params {
	return Params{Level: CreakGain(velocity), Pitch: CreakRate(velocity)}
}

// CreakGain returns the creak gain for an angular speed in deg/s.
func CreakGain(velocity float64) float64 {
	if velocity < creakDeadzone {
		return 0
	}
	return core.Clamp(1-smoothstep(creakFullEdge, creakSilentEdge, velocity), 0, 1)
}

// CreakRate returns the playback rate for an angular speed in deg/s.
func CreakRate(velocity float64) float64 {
	n := core.Clamp(velocity/creakRateSpan, 0, 1)
	return core.Clamp(creakMinRate+n*(creakMaxRate-creakMinRate), creakMinRate, creakMaxRate)
}

// TonePolicy drives the synthesized tone: angle sets pitch, slow motion swells the volume.
type TonePolicy struct{}

// ID implements Policy.
func (TonePolicy) ID() PolicyID { return PolicyTone }

// Initial implements Policy. The tone starts at its base hum so the output is
// never silent, even before the first valid reading.
func (TonePolicy) Initial() Params { return Params{Level: toneBaseVolume, Pitch: toneMinFreq} }

// Map implements Policy.
func (TonePolicy) Map(angle, velocity float64) Params {
	return Params{Level: ToneVolume(velocity), Pitch: ToneFrequency(angle)}
}

// ToneFrequency returns the tone frequency in Hz for a lid angle in degrees.
func ToneFrequency(angle float64) float64 {
	n := core.Clamp(angle/toneMaxAngle, 0, 1)
	return core.Clamp(toneMinFreq+math.Pow(n, toneFreqCurve)*(toneMaxFreq-toneMinFreq), toneMinFreq, toneMaxFreq)
}

// ToneVolume returns the tone volume for an angular speed in deg/s.
func ToneVolume(velocity float64) float64 {
	boost := (1 - smoothstep(0, toneBoostSpan, velocity)) * toneBoostVolume
	return core.Clamp(toneBaseVolume+boost, 0, 1)
}

// smoothstep is the cubic Hermite ease t²(3-2t) of x across [edge0, edge1].
func smoothstep(edge0, edge1, x float64) float64 {
	t := core.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// PitchRange returns the span Params.Pitch can take under a policy.
func PitchRange(id PolicyID) (lo, hi float64) {
	if id == PolicyTone {
		return toneMinFreq, toneMaxFreq
	}
	return creakMinRate, creakMaxRate
}
