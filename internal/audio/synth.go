package audio

import "math"

const (
	twoPi = 2 * math.Pi

	vibratoRateHz = 5.0
	vibratoDepth  = 0.05
	harmonicMix   = 0.3
	toneHeadroom  = 0.4
)

// Renderer fills a mono float32 buffer with the next block of audio.
type Renderer interface {
	RenderInto(dst []float32)
}

// ToneSynth is a fundamental plus a third harmonic with a slight vibrato.
// It keeps its phases between calls and must only be driven from one goroutine.
type ToneSynth struct {
	params     *Params
	sampleRate float64

	fundPhase float64
	harmPhase float64
	vibPhase  float64
}

// NewToneSynth creates a synth reading frequency (Pitch) and volume (Level) from params.
func NewToneSynth(params *Params, sampleRate int) *ToneSynth {
	return &ToneSynth{
		params:     params,
		sampleRate: float64(sampleRate),
	}
}

// RenderInto writes len(dst) samples. It does not allocate.
func (s *ToneSynth) RenderInto(dst []float32) {
	snap := s.params.Load()
	freq := snap.Pitch
	volume := snap.Level

	fundStep := twoPi / s.sampleRate
	vibStep := twoPi * vibratoRateHz / s.sampleRate

	for i := range dst {
		vib := math.Sin(s.vibPhase) * vibratoDepth
		fm := freq * (1 + vib)

		s.fundPhase += fundStep * fm
		s.harmPhase += fundStep * 3 * fm

		out := (math.Sin(s.fundPhase) + harmonicMix*math.Sin(s.harmPhase)) * volume * toneHeadroom
		dst[i] = float32(out)

		s.vibPhase += vibStep
		s.fundPhase = wrapPhase(s.fundPhase)
		s.harmPhase = wrapPhase(s.harmPhase)
		s.vibPhase = wrapPhase(s.vibPhase)
	}
}

// Render allocates and renders n samples.
func (s *ToneSynth) Render(n int) []float32 {
	out := make([]float32, n)
	s.RenderInto(out)
	return out
}

// Reset zeroes all oscillator phases.
func (s *ToneSynth) Reset() {
	s.fundPhase, s.harmPhase, s.vibPhase = 0, 0, 0
}

func wrapPhase(p float64) float64 {
	if p >= twoPi || p < 0 {
		p = math.Mod(p, twoPi)
		if p < 0 {
			p += twoPi
		}
	}
	return p
}
