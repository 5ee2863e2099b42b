// Package audio renders the lid sounds from ramped control parameters.
package audio

import "sync/atomic"

// Snapshot is one control tick's ramped parameters. Level is a gain or volume
// in [0, 1]; Pitch is a playback rate (creak) or a frequency in Hz (tone).
type Snapshot struct {
	Level float64
	Pitch float64
	Seq   uint64
}

// Params carries snapshots from the control goroutine to the render callback.
// Publish and Load never block, so Load is safe on the audio thread.
type Params struct {
	current atomic.Pointer[Snapshot]
	seq     atomic.Uint64
}

// NewParams returns Params holding an initial snapshot.
func NewParams(level, pitch float64) *Params {
	p := &Params{}
	p.current.Store(&Snapshot{Level: level, Pitch: pitch})
	return p
}

// Publish stores a new snapshot.
func (p *Params) Publish(level, pitch float64) {
	seq := p.seq.Add(1)
	p.current.Store(&Snapshot{Level: level, Pitch: pitch, Seq: seq})
}

// Load returns the latest snapshot, or a silent zero snapshot if nothing was
// ever published.
func (p *Params) Load() Snapshot {
	s := p.current.Load()
	if s == nil {
		return Snapshot{}
	}
	return *s
}
