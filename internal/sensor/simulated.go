package sensor

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/linuxmatters/lidtone/internal/timeutil"
)

// SimConfig shapes the simulated lid: a slow sweep between two angles with
// sensor noise, bursts of hinge wobble and occasional dropped readings.
type SimConfig struct {
	MinAngle   float64
	MaxAngle   float64
	Period     time.Duration
	Noise      float64 // standard deviation, degrees
	Wobble     float64 // peak wobble amplitude, degrees
	WobbleRate float64 // probability per read of starting a wobble burst
	DropRate   float64 // probability per read of a sentinel reading
	Seed       uint64
}

// DefaultSimConfig returns a lid that opens and closes every eight seconds.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		MinAngle:   10,
		MaxAngle:   125,
		Period:     8 * time.Second,
		Noise:      0.2,
		Wobble:     1.5,
		WobbleRate: 0.01,
		DropRate:   0.002,
		Seed:       1,
	}
}

const wobbleBurst = 12

// SimulatedSource produces angles as a function of the clock, so runs
// driven by a mock clock are reproducible.
type SimulatedSource struct {
	cfg    SimConfig
	clock  timeutil.Clock
	start  time.Time
	rng    *rand.Rand
	wobble int
}

// NewSimulatedSource starts the sweep at the clock's current time.
func NewSimulatedSource(cfg SimConfig, clock timeutil.Clock) *SimulatedSource {
	return &SimulatedSource{
		cfg:   cfg,
		clock: clock,
		start: clock.Now(),
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1)),
	}
}

// Read returns the simulated angle for now.
func (s *SimulatedSource) Read() (float64, error) {
	if s.cfg.DropRate > 0 && s.rng.Float64() < s.cfg.DropRate {
		return 0, ErrUnavailable
	}

	elapsed := s.clock.Now().Sub(s.start)
	angle := s.sweep(elapsed)

	if s.cfg.Noise > 0 {
		angle += s.rng.NormFloat64() * s.cfg.Noise
	}

	if s.wobble == 0 && s.cfg.WobbleRate > 0 && s.rng.Float64() < s.cfg.WobbleRate {
		s.wobble = wobbleBurst
	}
	if s.wobble > 0 {
		if s.wobble%2 == 0 {
			angle += s.cfg.Wobble
		} else {
			angle -= s.cfg.Wobble
		}
		s.wobble--
	}

	return math.Max(0, angle), nil
}

// sweep is a raised cosine between MinAngle and MaxAngle, which opens slowly
// near the ends and fastest in the middle of the travel.
func (s *SimulatedSource) sweep(elapsed time.Duration) float64 {
	if s.cfg.Period <= 0 {
		return s.cfg.MinAngle
	}
	phase := twoPiPhase(elapsed, s.cfg.Period)
	span := s.cfg.MaxAngle - s.cfg.MinAngle
	return s.cfg.MinAngle + span*(0.5-0.5*math.Cos(phase))
}

func twoPiPhase(elapsed, period time.Duration) float64 {
	frac := float64(elapsed%period) / float64(period)
	return 2 * math.Pi * frac
}

// Close is a no-op.
func (s *SimulatedSource) Close() error {
	return nil
}
