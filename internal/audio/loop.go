package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/cwbudde/algo-dsp/dsp/interp"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

// LoopPlayer plays a mono sample in a loop, scaled by Level and resampled by
// Pitch (a playback rate where 1.0 is the original speed).
type LoopPlayer struct {
	params *Params
	loop   []float32
	pos    float64
}

// NewLoopPlayer creates a player for loop. The slice is not copied.
func NewLoopPlayer(params *Params, loop []float32) *LoopPlayer {
	return &LoopPlayer{params: params, loop: loop}
}

// RenderInto writes len(dst) samples using 4-point Hermite interpolation,
// wrapping neighbours around the loop point. It does not allocate.
func (l *LoopPlayer) RenderInto(dst []float32) {
	if len(l.loop) == 0 {
		clear(dst)
		return
	}

	snap := l.params.Load()
	gain := float32(snap.Level)
	rate := math.Max(snap.Pitch, 0)
	size := len(l.loop)
	end := float64(size)

	for i := range dst {
		idx := int(l.pos)
		xm1 := float64(l.loop[(idx+size-1)%size])
		x0 := float64(l.loop[idx])
		x1 := float64(l.loop[(idx+1)%size])
		x2 := float64(l.loop[(idx+2)%size])
		dst[i] = float32(interp.Hermite4(l.pos-float64(idx), xm1, x0, x1, x2)) * gain

		l.pos += rate
		if l.pos >= end {
			l.pos = math.Mod(l.pos, end)
		}
	}
}

// Position returns the read head in samples.
func (l *LoopPlayer) Position() float64 {
	return l.pos
}

// Reset rewinds to the start of the loop.
func (l *LoopPlayer) Reset() {
	l.pos = 0
}

// Creak synthesis constants. A hinge creak is stick-slip friction: a train of
// irregular impulses, each ringing a short wooden resonance.
const (
	slipRateMinHz   = 35.0
	slipRateSpanHz  = 25.0
	resonanceMinHz  = 650.0
	resonanceSpanHz = 200.0
	resonanceRing   = 4 * time.Millisecond
	frictionNoise   = 0.02
	creakPeak       = 0.8
	loopFade        = 10 * time.Millisecond
)

// GenerateCreakLoop synthesizes d of creak at sampleRate. The same seed always
// yields the same loop.
func GenerateCreakLoop(sampleRate int, d time.Duration, seed uint64) []float32 {
	n := int(d.Seconds() * float64(sampleRate))
	if n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	sr := float64(sampleRate)

	gen := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(sr)},
		signal.WithSeed(int64(seed)),
	)
	excitation, err := gen.WhiteNoise(frictionNoise, n)
	if err != nil {
		return nil
	}

	nextSlip := 0
	for i := range excitation {
		if i >= nextSlip {
			excitation[i] += 0.6 + 0.4*rng.Float64()
			nextSlip = i + int(sr/(slipRateMinHz+slipRateSpanHz*rng.Float64()))
		}
	}

	// Bandpass resonance tuned to the wood body; Q sets the ring time.
	freq := resonanceMinHz + rng.Float64()*resonanceSpanHz
	q := math.Pi * freq * resonanceRing.Seconds()
	body := biquad.NewSection(design.Bandpass(freq, q, sr))
	body.ProcessBlock(excitation)

	shaped, err := signal.Normalize(excitation, creakPeak)
	if err != nil {
		return nil
	}
	fadeEdges(shaped, int(loopFade.Seconds()*sr))

	out := make([]float32, n)
	for i, v := range shaped {
		out[i] = float32(v)
	}
	return out
}

// fadeEdges applies a raised-cosine fade so the loop point does not click.
func fadeEdges(samples []float64, fade int) {
	fade = min(fade, len(samples)/4)
	last := len(samples) - 1
	for i := 0; i < fade; i++ {
		g := 0.5 - 0.5*math.Cos(math.Pi*float64(i)/float64(fade))
		samples[i] *= g
		samples[last-i] *= g
	}
}
