package sensor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

var traceHeader = []string{"elapsed_ms", "angle_deg"}

// Sample is one recorded reading. Unavailable readings are kept as
// UnavailableAngle so a replay sees the same gaps the live run did.
type Sample struct {
	Elapsed time.Duration
	Angle   float64
}

// Recorder writes raw readings to a CSV trace.
type Recorder struct {
	mu   sync.Mutex
	w    *csv.Writer
	c    io.Closer
	path string
	rows int
}

// NewRecorder creates a trace file with a unique name in dir.
func NewRecorder(dir string) (*Recorder, error) {
	path := filepath.Join(dir, fmt.Sprintf("lidtone-trace-%s.csv", uuid.NewString()))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	r, err := NewTraceWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.c = f
	r.path = path
	return r, nil
}

// NewTraceWriter writes a trace to w. The caller owns w.
func NewTraceWriter(w io.Writer) (*Recorder, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(traceHeader); err != nil {
		return nil, fmt.Errorf("failed to write trace header: %w", err)
	}
	return &Recorder{w: cw}, nil
}

// Record appends one reading.
func (r *Recorder) Record(elapsed time.Duration, angle float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := []string{
		strconv.FormatInt(elapsed.Milliseconds(), 10),
		strconv.FormatFloat(angle, 'f', -1, 64),
	}
	if err := r.w.Write(row); err != nil {
		return fmt.Errorf("failed to write trace row: %w", err)
	}
	r.rows++
	return nil
}

// Path returns the trace file path, or "" when writing to a caller's writer.
func (r *Recorder) Path() string {
	return r.path
}

// Rows returns the number of readings recorded.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Close flushes the trace and closes the file if the Recorder created it.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.w.Flush()
	err := r.w.Error()
	if r.c != nil {
		if cerr := r.c.Close(); err == nil {
			err = cerr
		}
		r.c = nil
	}
	if err != nil {
		return fmt.Errorf("failed to finish trace: %w", err)
	}
	return nil
}

// ReadTrace parses a CSV trace. Rows must be in non-decreasing time order.
func ReadTrace(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(traceHeader)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", ErrBadLine)
		}
		return nil, fmt.Errorf("failed to read trace header: %w", err)
	}
	if header[0] != traceHeader[0] || header[1] != traceHeader[1] {
		return nil, fmt.Errorf("%w: unexpected header %v", ErrBadLine, header)
	}

	var samples []Sample
	var last time.Duration
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read trace: %w", err)
		}
		line, _ := cr.FieldPos(0)

		ms, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad time %q", ErrBadLine, line, rec[0])
		}
		angle, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad angle %q", ErrBadLine, line, rec[1])
		}

		elapsed := time.Duration(ms) * time.Millisecond
		if elapsed < last {
			return nil, fmt.Errorf("%w: line %d: time goes backwards", ErrBadLine, line)
		}
		last = elapsed
		samples = append(samples, Sample{Elapsed: elapsed, Angle: angle})
	}
	return samples, nil
}

// LoadTrace reads a trace file.
func LoadTrace(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	samples, err := ReadTrace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// ReplaySource plays back a trace one reading per Read, ignoring the recorded
// timing. It returns io.EOF when the trace is exhausted.
type ReplaySource struct {
	samples []Sample
	next    int
}

// NewReplaySource creates a source over samples.
func NewReplaySource(samples []Sample) *ReplaySource {
	return &ReplaySource{samples: samples}
}

// Read returns the next recorded angle.
func (s *ReplaySource) Read() (float64, error) {
	if s.next >= len(s.samples) {
		return 0, io.EOF
	}
	angle := s.samples[s.next].Angle
	s.next++
	if IsUnavailable(angle) {
		return 0, ErrUnavailable
	}
	return angle, nil
}

// Remaining returns how many readings are left.
func (s *ReplaySource) Remaining() int {
	return len(s.samples) - s.next
}

// Close is a no-op.
func (s *ReplaySource) Close() error {
	return nil
}
