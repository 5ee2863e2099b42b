package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const bytesPerSample = 4

// Stream adapts a Renderer to the io.Reader that oto pulls from. It converts
// mono float32 samples to little-endian bytes into a reused buffer.
type Stream struct {
	renderer Renderer
	buf      []float32
}

// NewStream creates a Stream over r.
func NewStream(r Renderer) *Stream {
	return &Stream{
		renderer: r,
		buf:      make([]float32, 4096),
	}
}

// Read renders len(p)/4 samples. It is called on the audio thread.
func (s *Stream) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample
	if n == 0 {
		return 0, nil
	}
	if len(s.buf) < n {
		s.buf = make([]float32, n)
	}
	samples := s.buf[:n]
	s.renderer.RenderInto(samples)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}
	return n * bytesPerSample, nil
}

// Output plays a Renderer on the default audio device.
type Output struct {
	ctx     *oto.Context
	player  *oto.Player
	started bool
	mu      sync.Mutex
}

// NewOutput opens the audio device for mono float32 output at sampleRate.
// oto allows one context per process.
func NewOutput(sampleRate int, r Renderer) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	return &Output{
		ctx:    ctx,
		player: ctx.NewPlayer(NewStream(r)),
	}, nil
}

// Start begins playback.
func (o *Output) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
}

// Close stops playback and releases the player.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	o.started = false
	if err != nil {
		return fmt.Errorf("failed to close audio player: %w", err)
	}
	return nil
}
