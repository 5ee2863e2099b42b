package sensor

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/linuxmatters/lidtone/internal/timeutil"
)

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(UnavailableAngle))
	assert.True(t, IsUnavailable(math.NaN()))
	assert.True(t, IsUnavailable(math.Inf(1)))
	assert.False(t, IsUnavailable(0))
	assert.False(t, IsUnavailable(-1.9))
	assert.False(t, IsUnavailable(135))
}

func TestParseAngle(t *testing.T) {
	tests := []struct {
		line    string
		want    float64
		wantErr bool
	}{
		{"42.5", 42.5, false},
		{"  97\r", 97, false},
		{"angle=12.25", 12.25, false},
		{"ANGLE: 3", 3, false},
		{"-2", -2, false},
		{"", 0, true},
		{"angle=", 0, true},
		{"lid open", 0, true},
		{"12.5deg", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseAngle(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrBadLine))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialConfigMode(t *testing.T) {
	mode, err := DefaultSerialConfig("/dev/ttyACM0").Mode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}, mode)

	mode, err = SerialConfig{BaudRate: 9600, StopBits: 2, Parity: "even"}.Mode()
	require.NoError(t, err)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)

	_, err = SerialConfig{DataBits: 9}.Mode()
	assert.Error(t, err)
	_, err = SerialConfig{StopBits: 3}.Mode()
	assert.Error(t, err)
	_, err = SerialConfig{Parity: "mark"}.Mode()
	assert.Error(t, err)
}

func TestOpenSerialRequiresPort(t *testing.T) {
	_, err := OpenSerial(SerialConfig{})
	assert.Error(t, err)
}

func TestLineSourceKeepsLatest(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewLineSource(pr)

	_, err := s.Read()
	assert.ErrorIs(t, err, ErrUnavailable, "no reading before the first line")

	_, err = pw.Write([]byte("10\nnoise\n20.5\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		total, _ := s.Lines()
		return total == 3
	}, time.Second, time.Millisecond)

	got, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, 20.5, got)
	_, bad := s.Lines()
	assert.Equal(t, int64(1), bad)

	_, err = pw.Write([]byte("-2\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := s.Read()
		return errors.Is(err, ErrUnavailable)
	}, time.Second, time.Millisecond)

	require.NoError(t, pw.Close())
	<-s.Done()
	_, err = s.Read()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, s.Close())
}

func TestLineSourceFromReader(t *testing.T) {
	s := NewLineSource(io.NopCloser(strings.NewReader("angle=45\n")))
	<-s.Done()

	_, err := s.Read()
	assert.ErrorIs(t, err, io.EOF, "an ended feed reports the end rather than a stale angle")
}

func TestSimulatedSourceSweeps(t *testing.T) {
	start := time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)

	cfg := DefaultSimConfig()
	cfg.Noise, cfg.WobbleRate, cfg.DropRate = 0, 0, 0
	s := NewSimulatedSource(cfg, clock)

	got, err := s.Read()
	require.NoError(t, err)
	assert.InDelta(t, cfg.MinAngle, got, 1e-9)

	clock.Advance(cfg.Period / 2)
	got, err = s.Read()
	require.NoError(t, err)
	assert.InDelta(t, cfg.MaxAngle, got, 1e-9)

	clock.Advance(cfg.Period / 4)
	got, err = s.Read()
	require.NoError(t, err)
	assert.InDelta(t, (cfg.MinAngle+cfg.MaxAngle)/2, got, 1e-9)

	assert.NoError(t, s.Close())
}

func TestSimulatedSourceIsReproducible(t *testing.T) {
	read := func() []float64 {
		clock := timeutil.NewMockClock(time.Unix(0, 0))
		cfg := DefaultSimConfig()
		cfg.DropRate = 0.05
		s := NewSimulatedSource(cfg, clock)

		var out []float64
		for i := 0; i < 500; i++ {
			v, err := s.Read()
			if err != nil {
				v = UnavailableAngle
			}
			out = append(out, v)
			clock.Advance(10 * time.Millisecond)
		}
		return out
	}

	a, b := read(), read()
	assert.Equal(t, a, b)
	assert.Contains(t, a, UnavailableAngle, "drop rate should produce sentinel readings")
	for _, v := range a {
		assert.GreaterOrEqual(t, v, UnavailableAngle)
	}
}

func TestSimulatedSourceWobbleAlternates(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	cfg := DefaultSimConfig()
	cfg.Period = 0
	cfg.Noise, cfg.DropRate = 0, 0
	cfg.WobbleRate = 1
	s := NewSimulatedSource(cfg, clock)

	var got []float64
	for i := 0; i < 4; i++ {
		v, err := s.Read()
		require.NoError(t, err)
		got = append(got, v)
	}

	base := cfg.MinAngle
	assert.Equal(t, []float64{base + cfg.Wobble, base - cfg.Wobble, base + cfg.Wobble, base - cfg.Wobble}, got)
}
