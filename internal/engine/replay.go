package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/linuxmatters/lidtone/internal/processor"
	"github.com/linuxmatters/lidtone/internal/sensor"
)

var replayHeader = []string{
	"elapsed_ms", "raw_deg", "stabilized_deg", "velocity_dps",
	"jitter", "gap", "target_level", "target_pitch", "level", "pitch",
}

// Summary describes a finished run or replay.
type Summary struct {
	Policy   processor.PolicyID
	Duration time.Duration
	Stats    processor.Stats
	Dropped  int
	Jitter   processor.JitterConfig
}

// Summary returns the totals for the run so far.
func (e *Engine) Summary() Summary {
	st := e.Status()
	return Summary{
		Policy:   st.Policy,
		Duration: st.Elapsed,
		Stats:    st.Stats,
		Dropped:  st.Dropped,
		Jitter:   st.Jitter,
	}
}

// Replay runs a recorded trace through a fresh pipeline using the recorded
// timestamps, writing one CSV row per processed reading to w (if non-nil).
func Replay(cfg *processor.PipelineConfig, samples []sensor.Sample, w io.Writer) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid pipeline config: %w", err)
	}
	p, err := processor.NewPipeline(cfg)
	if err != nil {
		return Summary{}, err
	}

	var cw *csv.Writer
	if w != nil {
		cw = csv.NewWriter(w)
		if err := cw.Write(replayHeader); err != nil {
			return Summary{}, fmt.Errorf("failed to write replay header: %w", err)
		}
	}

	// Only differences between timestamps matter to the pipeline.
	base := time.Unix(0, 0)
	sum := Summary{Policy: cfg.Policy, Jitter: cfg.Jitter}
	row := make([]string, len(replayHeader))

	for _, s := range samples {
		sum.Duration = s.Elapsed
		if sensor.IsUnavailable(s.Angle) {
			sum.Dropped++
			continue
		}

		r := p.PushSample(s.Angle, base.Add(s.Elapsed))
		if cw == nil {
			continue
		}

		row[0] = strconv.FormatInt(s.Elapsed.Milliseconds(), 10)
		row[1] = formatFloat(r.Raw)
		row[2] = formatFloat(r.Stabilized)
		row[3] = formatFloat(r.Velocity)
		row[4] = strconv.FormatBool(r.Jitter)
		row[5] = strconv.FormatBool(r.Gap)
		row[6] = formatFloat(r.Target.Level)
		row[7] = formatFloat(r.Target.Pitch)
		row[8] = formatFloat(r.Current.Level)
		row[9] = formatFloat(r.Current.Pitch)
		if err := cw.Write(row); err != nil {
			return sum, fmt.Errorf("failed to write replay row: %w", err)
		}
	}

	sum.Stats = p.Stats()
	if cw != nil {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return sum, fmt.Errorf("failed to flush replay output: %w", err)
		}
	}
	return sum, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
