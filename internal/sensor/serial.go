package sensor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"go.bug.st/serial"
)

// SerialConfig describes the serial connection to the angle sensor board.
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// DefaultSerialConfig returns 115200 8N1.
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:     port,
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	}
}

// Mode converts the config into the go.bug.st/serial mode.
func (c SerialConfig) Mode() (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
	}
	if mode.BaudRate <= 0 {
		mode.BaudRate = 115200
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	if mode.DataBits < 5 || mode.DataBits > 8 {
		return nil, fmt.Errorf("invalid data bits %d: must be between 5 and 8", mode.DataBits)
	}

	switch c.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", c.StopBits)
	}

	switch strings.ToUpper(strings.TrimSpace(c.Parity)) {
	case "", "N", "NONE":
		mode.Parity = serial.NoParity
	case "E", "EVEN":
		mode.Parity = serial.EvenParity
	case "O", "ODD":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q: expected N, E, or O", c.Parity)
	}

	return mode, nil
}

// OpenSerial opens the configured port and starts reading angle lines from it.
func OpenSerial(cfg SerialConfig) (*LineSource, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial port path is required")
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return NewLineSource(port), nil
}

// LineSource reads newline-delimited angles in the background and keeps the
// latest one, so Read never waits on the wire.
type LineSource struct {
	rc io.ReadCloser

	mu     sync.Mutex
	latest float64
	has    bool
	err    error

	lines    atomic.Int64
	badLines atomic.Int64
	done     chan struct{}
}

// NewLineSource starts scanning rc. Closing the source closes rc.
func NewLineSource(rc io.ReadCloser) *LineSource {
	s := &LineSource{
		rc:   rc,
		done: make(chan struct{}),
	}
	go s.scan()
	return s
}

func (s *LineSource) scan() {
	defer close(s.done)

	scan := bufio.NewScanner(s.rc)
	for scan.Scan() {
		v, err := ParseAngle(scan.Text())
		if err != nil {
			s.badLines.Add(1)
		} else {
			s.mu.Lock()
			s.latest, s.has = v, true
			s.mu.Unlock()
		}
		s.lines.Add(1)
	}

	err := scan.Err()
	if err == nil {
		err = io.EOF
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Read returns the latest angle. It returns ErrUnavailable before the first
// line arrives or when the board reports the sentinel, and the scan error once
// the feed has ended.
func (s *LineSource) Read() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return 0, fmt.Errorf("serial feed ended: %w", s.err)
	}
	if !s.has || IsUnavailable(s.latest) {
		return 0, ErrUnavailable
	}
	return s.latest, nil
}

// Lines returns how many lines were received, and how many of them were malformed.
func (s *LineSource) Lines() (total, bad int64) {
	return s.lines.Load(), s.badLines.Load()
}

// Done is closed when the background reader has stopped.
func (s *LineSource) Done() <-chan struct{} {
	return s.done
}

// Close closes the underlying port, which stops the reader.
func (s *LineSource) Close() error {
	return s.rc.Close()
}
