// Package processor conditions raw lid angle readings and maps them to audio parameters
package processor

import (
	"fmt"
	"time"
)

// PolicyID identifies a parameter mapping policy
type PolicyID string

// Supported policies
const (
	PolicyCreak PolicyID = "creak" // velocity → gain/rate for a looped creak sample
	PolicyTone  PolicyID = "tone"  // angle+velocity → frequency/volume for the synthesized tone
)

// Hysteresis constants. These are fixed and not user-tunable.
const (
	hysteresisInnerBand   = 2.0                   // degrees - below this the stabilized angle holds
	hysteresisOuterBand   = 5.0                   // degrees - at or above this a new angle is accepted at once
	hysteresisPersistence = 80 * time.Millisecond // dwell required in the band between the two
)

// Velocity settle floor. Smoothed velocities below this snap to exactly zero.
const velocitySettleFloor = 1e-3 // deg/s

// DefaultMaxGap is the largest sample spacing treated as continuous data.
// Longer spacing (suspend/resume, stalled sensor) is a gap.
const DefaultMaxGap = time.Second

// JitterConfig configures the oscillation rejection stage
type JitterConfig struct {
	Enabled      bool          // Enable jitter suppression
	Amplitude    float64       // Peak-to-peak ceiling in degrees (larger swings are genuine motion)
	Window       time.Duration // History horizon
	MinDelta     float64       // Deltas smaller than this (degrees) are ignored when counting flips
	MinSignFlips int           // Sign alternations required to classify as jitter
}

// DefaultJitterConfig returns the jitter filter defaults shared by both policies.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		Enabled:      true,
		Amplitude:    10.0,                   // ±5° plateau wobble is still noise
		Window:       150 * time.Millisecond, // 15 samples at 100 Hz, capped to 6 by the history
		MinDelta:     0.5,                    // sensor quantisation floor
		MinSignFlips: 3,
	}
}

// PipelineConfig holds the per-policy tuning of the conditioning pipeline
type PipelineConfig struct {
	Policy PolicyID

	// SmoothingStage
	AngleSmoothing    float64 // EMA factor for the angle (higher = more weight on new data)
	MovementThreshold float64 // degrees - smaller smoothed deltas are not motion

	// VelocityEstimator
	VelocitySmoothing float64       // EMA factor for velocity while moving
	VelocityDecay     float64       // Per-sample multiplier when no motion is seen
	StillDecay        float64       // Extra multiplier once MovementTimeout has passed
	MovementTimeout   time.Duration // Time since last real movement before StillDecay applies

	// Ramper time constants
	LevelRampMs float64 // gain (creak) or volume (tone)
	PitchRampMs float64 // rate (creak) or frequency (tone)

	// Gap detection
	MaxGap time.Duration

	Jitter JitterConfig
}

// DefaultCreakConfig returns the fast-reacting configuration for the creak policy.
func DefaultCreakConfig() *PipelineConfig {
	return &PipelineConfig{
		Policy: PolicyCreak,

		AngleSmoothing:    0.85, // low latency, follows the hinge closely
		MovementThreshold: 0.05,

		VelocitySmoothing: 0.6,
		VelocityDecay:     0.65,
		StillDecay:        0.85,
		MovementTimeout:   30 * time.Millisecond,

		LevelRampMs: 1.0, // near-instant; the creak must track the hand
		PitchRampMs: 1.0,

		MaxGap: DefaultMaxGap,
		Jitter: DefaultJitterConfig(),
	}
}

// DefaultToneConfig returns the musical configuration for the tone policy.
func DefaultToneConfig() *PipelineConfig {
	return &PipelineConfig{
		Policy: PolicyTone,

		AngleSmoothing:    0.2, // favour continuity over latency
		MovementThreshold: 0.3,

		VelocitySmoothing: 0.3,
		VelocityDecay:     0.8,
		StillDecay:        0.9,
		MovementTimeout:   150 * time.Millisecond,

		LevelRampMs: 50.0, // analog-style glide
		PitchRampMs: 80.0,

		MaxGap: DefaultMaxGap,
		Jitter: DefaultJitterConfig(),
	}
}

// DefaultConfig returns the default configuration for a policy.
func DefaultConfig(policy PolicyID) (*PipelineConfig, error) {
	switch policy {
	case PolicyCreak:
		return DefaultCreakConfig(), nil
	case PolicyTone:
		return DefaultToneConfig(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", policy)
	}
}

// Validate reports configuration values the pipeline cannot work with.
// The pipeline itself never calls this; callers injecting user input should.
func (cfg *PipelineConfig) Validate() error {
	if _, err := NewPolicy(cfg.Policy); err != nil {
		return err
	}
	factors := []struct {
		name  string
		value float64
	}{
		{"angle smoothing", cfg.AngleSmoothing},
		{"velocity smoothing", cfg.VelocitySmoothing},
		{"velocity decay", cfg.VelocityDecay},
		{"still decay", cfg.StillDecay},
	}
	for _, f := range factors {
		if f.value <= 0 || f.value > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %g", f.name, f.value)
		}
	}
	if cfg.MovementThreshold < 0 {
		return fmt.Errorf("movement threshold must not be negative, got %g", cfg.MovementThreshold)
	}
	if cfg.LevelRampMs < 0 || cfg.PitchRampMs < 0 {
		return fmt.Errorf("ramp times must not be negative")
	}
	if cfg.MaxGap <= 0 {
		return fmt.Errorf("max gap must be positive, got %s", cfg.MaxGap)
	}
	if err := cfg.Jitter.Validate(); err != nil {
		return fmt.Errorf("jitter: %w", err)
	}
	return nil
}

// Validate reports jitter settings that would make the detector meaningless.
func (jc JitterConfig) Validate() error {
	if jc.Amplitude < 0 {
		return fmt.Errorf("amplitude must not be negative, got %g", jc.Amplitude)
	}
	if jc.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", jc.Window)
	}
	if jc.MinDelta < 0 {
		return fmt.Errorf("min delta must not be negative, got %g", jc.MinDelta)
	}
	if jc.MinSignFlips < 1 {
		return fmt.Errorf("min sign flips must be at least 1, got %d", jc.MinSignFlips)
	}
	return nil
}
