// Package sensor provides lid angle readings from hardware, simulation or recorded traces.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnavailableAngle is the value the hinge sensor reports when it has no reading.
const UnavailableAngle = -2.0

var (
	// ErrUnavailable means the source has no usable reading this tick.
	ErrUnavailable = errors.New("sensor reading unavailable")

	// ErrBadLine means a line from a serial or trace feed could not be parsed.
	ErrBadLine = errors.New("malformed sensor line")
)

// Source yields the most recent lid angle in degrees. Read must not block
// for longer than a control tick.
type Source interface {
	Read() (float64, error)
	Close() error
}

// IsUnavailable reports whether angle is a sentinel rather than a measurement.
func IsUnavailable(angle float64) bool {
	return angle == UnavailableAngle || math.IsNaN(angle) || math.IsInf(angle, 0)
}

// ParseAngle parses one line of a serial feed. Lines hold a decimal angle,
// optionally prefixed with "angle=" or "angle:".
func ParseAngle(line string) (float64, error) {
	s := strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "angle"); ok {
		s = strings.TrimLeft(rest, "=: \t")
	}
	if s == "" {
		return 0, fmt.Errorf("%w: empty line", ErrBadLine)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadLine, line)
	}
	return v, nil
}
