package processor

import (
	"fmt"
	"math"
	"time"
)

// settleDuration is long enough for any ramp to land on its target in one step.
const settleDuration = time.Hour

// Stats counts what the pipeline did over its lifetime
type Stats struct {
	Samples             int     // samples pushed
	Gaps                int     // samples rejected by the gap rule
	JitterSubstitutions int     // samples replaced by the last stable angle
	HysteresisCommits   int     // times the stabilized angle moved
	PeakVelocity        float64 // deg/s
}

// Result describes what one sample did to the pipeline
type Result struct {
	Raw        float64 // angle as pushed
	Input      float64 // angle after jitter substitution
	Stabilized float64
	Smoothed   float64
	Instant    float64 // deg/s
	Velocity   float64 // deg/s, smoothed
	Jitter     bool
	Gap        bool
	Target     Params
	Current    Params
}

// Pipeline conditions lid angle samples and ramps the parameters of one policy.
// It is not safe for concurrent use: every call belongs to the control tick.
type Pipeline struct {
	cfg    PipelineConfig
	policy Policy

	jitter     *JitterDetector
	hysteresis HysteresisState
	filter     FilterState

	lastRaw float64
	hasRaw  bool

	target  Params
	current Params

	stats Stats
}

// NewPipeline creates a pipeline for the policy named in cfg.
func NewPipeline(cfg *PipelineConfig) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline config is nil")
	}
	policy, err := NewPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:    *cfg,
		policy: policy,
		jitter: NewJitterDetector(cfg.Jitter),
		filter: NewFilterState(),
	}
	p.target = policy.Initial()
	p.current = policy.Initial()
	return p, nil
}

// PushSample runs one raw reading through the whole chain.
// Readings flagged unavailable by the sensor must be filtered out before this call.
func (p *Pipeline) PushSample(angle float64, t time.Time) Result {
	p.stats.Samples++
	res := Result{Raw: angle, Input: angle}

	// A gap is rejected before any stage sees it: no jitter history, no
	// hysteresis commit, no parameter update.
	if p.filter.RejectGap(&p.cfg, t) {
		p.stats.Gaps++
		res.Gap = true
		res.Stabilized = p.hysteresis.Stabilized
		res.Smoothed = p.filter.SmoothedAngle
		res.Velocity = p.filter.SmoothedVelocity
		res.Target = p.target
		res.Current = p.current
		return res
	}

	if p.jitter.Observe(angle, t) {
		res.Jitter = true
		p.stats.JitterSubstitutions++
		switch {
		case p.hysteresis.HasValue:
			res.Input = p.hysteresis.Stabilized
		case p.hasRaw:
			res.Input = p.lastRaw
		}
	}
	p.lastRaw = angle
	p.hasRaw = true

	res.Stabilized = p.hysteresis.Stabilize(res.Input, t)
	p.stats.HysteresisCommits = p.hysteresis.Commits()

	motion := p.filter.Update(&p.cfg, res.Stabilized, t, res.Jitter)
	res.Smoothed = motion.Angle
	res.Instant = motion.Instant
	res.Velocity = motion.Velocity

	if motion.Velocity > p.stats.PeakVelocity {
		p.stats.PeakVelocity = motion.Velocity
	}

	p.target = p.policy.Map(res.Stabilized, motion.Velocity)
	p.current = RampParams(p.current, p.target, motion.DT, p.cfg.LevelRampMs, p.cfg.PitchRampMs)

	res.Target = p.target
	res.Current = p.current
	return res
}

// ForceVelocity bypasses estimation: the velocity is set directly, mapped
// against the current stabilized angle and the ramped values settle on the targets.
func (p *Pipeline) ForceVelocity(v float64) Params {
	v = math.Abs(v)
	p.filter.SmoothedVelocity = v
	p.target = p.policy.Map(p.hysteresis.Stabilized, v)
	p.current = RampParams(p.current, p.target, settleDuration, p.cfg.LevelRampMs, p.cfg.PitchRampMs)
	return p.current
}

// SetJitterConfig replaces the jitter configuration. It applies from the next
// sample and discards history gathered under the old settings.
func (p *Pipeline) SetJitterConfig(cfg JitterConfig) {
	p.cfg.Jitter = cfg
	p.jitter.SetConfig(cfg)
}

// JitterConfig returns the active jitter configuration.
func (p *Pipeline) JitterConfig() JitterConfig {
	return p.jitter.Config()
}

// ResetJitterHistory clears the jitter history without changing its configuration.
func (p *Pipeline) ResetJitterHistory() {
	p.jitter.Reset()
}

// Reset returns every stage to its initial state. Ramped values restart from
// the policy's initial pair; statistics are kept.
func (p *Pipeline) Reset() {
	p.jitter.Reset()
	p.hysteresis.Reset()
	p.filter.Reset()
	p.hasRaw = false
	p.lastRaw = 0
	p.target = p.policy.Initial()
	p.current = p.policy.Initial()
}

// Policy returns the active mapping policy.
func (p *Pipeline) Policy() Policy { return p.policy }

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() PipelineConfig { return p.cfg }

// StabilizedAngle returns the hysteresis output in degrees.
func (p *Pipeline) StabilizedAngle() float64 { return p.hysteresis.Stabilized }

// Velocity returns the smoothed angular speed in deg/s.
func (p *Pipeline) Velocity() float64 { return p.filter.SmoothedVelocity }

// Current returns the ramped (audible) parameter pair.
func (p *Pipeline) Current() Params { return p.current }

// Target returns the mapped parameter pair the ramps are heading for.
func (p *Pipeline) Target() Params { return p.target }

// Gain returns the ramped creak gain.
func (p *Pipeline) Gain() float64 { return p.current.Level }

// Rate returns the ramped creak playback rate.
func (p *Pipeline) Rate() float64 { return p.current.Pitch }

// Volume returns the ramped tone volume.
func (p *Pipeline) Volume() float64 { return p.current.Level }

// Frequency returns the ramped tone frequency in Hz.
func (p *Pipeline) Frequency() float64 { return p.current.Pitch }

// Stats returns the lifetime counters.
func (p *Pipeline) Stats() Stats { return p.stats }
