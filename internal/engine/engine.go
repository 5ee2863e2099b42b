// Package engine runs the control loop: it reads the sensor on a fixed tick,
// drives the processing pipeline and publishes ramped parameters to the audio path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/lidtone/internal/audio"
	"github.com/linuxmatters/lidtone/internal/processor"
	"github.com/linuxmatters/lidtone/internal/sensor"
	"github.com/linuxmatters/lidtone/internal/timeutil"
)

const (
	// DefaultTick is the 100 Hz sensor rate.
	DefaultTick = 10 * time.Millisecond

	// DefaultStatusEvery sends a status every fifth tick (20 Hz).
	DefaultStatusEvery = 5

	controlQueue = 8
)

// ErrControlBusy is returned when a live change cannot be queued.
var ErrControlBusy = errors.New("control queue full")

// TraceRecorder receives every raw reading, including unavailable ones.
type TraceRecorder interface {
	Record(elapsed time.Duration, angle float64) error
}

// Status is a snapshot of the control loop for display and reporting.
type Status struct {
	Elapsed   time.Duration
	Policy    processor.PolicyID
	Available bool // false when this tick's reading was a sentinel
	Result    processor.Result
	Jitter    processor.JitterConfig
	Stats     processor.Stats
	Dropped   int
	Forced    bool // set when the parameters came from ForceVelocity
}

// Options wires the engine to its collaborators. Source is required.
type Options struct {
	Source      sensor.Source
	Clock       timeutil.Clock
	Params      *audio.Params
	Recorder    TraceRecorder
	OnStatus    func(Status)
	Logger      *slog.Logger
	Tick        time.Duration
	StatusEvery int
}

// Engine owns the pipeline. All pipeline state is confined to the Run goroutine;
// other goroutines talk to it through the control channels.
type Engine struct {
	opts     Options
	pipeline *processor.Pipeline

	jitterCh chan processor.JitterConfig
	forceCh  chan float64
	resetCh  chan struct{}

	running atomic.Bool
	status  atomic.Pointer[Status]

	start   time.Time
	ticks   int
	dropped int
}

// New creates an engine for cfg. Missing options get defaults: the real clock,
// fresh audio params, a discarding logger and the 100 Hz tick.
func New(cfg *processor.PipelineConfig, opts Options) (*Engine, error) {
	if opts.Source == nil {
		return nil, errors.New("engine requires a sensor source")
	}
	if cfg == nil {
		return nil, errors.New("engine requires a pipeline config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	p, err := processor.NewPipeline(cfg)
	if err != nil {
		return nil, err
	}

	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.Params == nil {
		initial := p.Current()
		opts.Params = audio.NewParams(initial.Level, initial.Pitch)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.StatusEvery <= 0 {
		opts.StatusEvery = DefaultStatusEvery
	}

	e := &Engine{
		opts:     opts,
		pipeline: p,
		jitterCh: make(chan processor.JitterConfig, controlQueue),
		forceCh:  make(chan float64, controlQueue),
		resetCh:  make(chan struct{}, 1),
	}
	e.status.Store(&Status{
		Policy: cfg.Policy,
		Jitter: cfg.Jitter,
		Result: processor.Result{Current: p.Current(), Target: p.Target()},
	})
	return e, nil
}

// Params returns the parameters the audio path should render from.
func (e *Engine) Params() *audio.Params {
	return e.opts.Params
}

// IsRunning reports whether Run is active.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// Status returns the most recent status.
func (e *Engine) Status() Status {
	return *e.status.Load()
}

// SetJitterConfig queues a jitter filter change for the next tick.
func (e *Engine) SetJitterConfig(cfg processor.JitterConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid jitter config: %w", err)
	}
	select {
	case e.jitterCh <- cfg:
		return nil
	default:
		return ErrControlBusy
	}
}

// ForceVelocity queues a manual velocity, bypassing the sensor for one update.
func (e *Engine) ForceVelocity(v float64) error {
	select {
	case e.forceCh <- v:
		return nil
	default:
		return ErrControlBusy
	}
}

// ResetJitterHistory clears the jitter window on the next tick.
func (e *Engine) ResetJitterHistory() {
	select {
	case e.resetCh <- struct{}{}:
	default:
	}
}

// Run ticks until ctx is cancelled or the source runs out. Cancellation and
// end of input return nil; a failing source returns its error.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine already running")
	}
	defer e.running.Store(false)

	log := e.opts.Logger
	e.start = e.opts.Clock.Now()
	ticker := e.opts.Clock.NewTicker(e.opts.Tick)
	defer ticker.Stop()

	cfg := e.pipeline.Config()
	log.Info("engine started",
		"policy", cfg.Policy,
		"tick", e.opts.Tick,
		"jitter_enabled", cfg.Jitter.Enabled)

	for {
		select {
		case <-ctx.Done():
			e.logSummary("cancelled")
			return nil

		case jc := <-e.jitterCh:
			e.pipeline.SetJitterConfig(jc)
			log.Info("jitter config changed",
				"enabled", jc.Enabled,
				"amplitude", jc.Amplitude,
				"window", jc.Window,
				"min_delta", jc.MinDelta,
				"min_sign_flips", jc.MinSignFlips)
			st := e.Status()
			st.Jitter = jc
			e.publishStatus(st, true)

		case v := <-e.forceCh:
			params := e.pipeline.ForceVelocity(v)
			e.opts.Params.Publish(params.Level, params.Pitch)
			log.Debug("velocity forced", "velocity", v, "level", params.Level, "pitch", params.Pitch)
			st := e.Status()
			st.Forced = true
			st.Result.Velocity = e.pipeline.Velocity()
			st.Result.Current = params
			st.Result.Target = e.pipeline.Target()
			e.publishStatus(st, true)

		case <-e.resetCh:
			e.pipeline.ResetJitterHistory()
			log.Debug("jitter history reset")

		case now := <-ticker.C():
			if err := e.tick(now); err != nil {
				if errors.Is(err, io.EOF) {
					e.logSummary("end of input")
					return nil
				}
				log.Error("sensor failed", "error", err)
				return err
			}
		}
	}
}

func (e *Engine) tick(now time.Time) error {
	elapsed := now.Sub(e.start)
	e.ticks++

	angle, err := e.opts.Source.Read()
	if err == nil && sensor.IsUnavailable(angle) {
		err = sensor.ErrUnavailable
	}
	if err != nil {
		if !errors.Is(err, sensor.ErrUnavailable) {
			return fmt.Errorf("sensor read: %w", err)
		}
		e.dropped++
		e.record(elapsed, sensor.UnavailableAngle)
		st := e.Status()
		st.Elapsed = elapsed
		st.Available = false
		st.Dropped = e.dropped
		st.Forced = false
		e.publishStatus(st, e.ticks%e.opts.StatusEvery == 0)
		return nil
	}

	e.record(elapsed, angle)
	r := e.pipeline.PushSample(angle, now)
	if r.Gap {
		e.opts.Logger.Debug("sample gap, timing reset", "elapsed", elapsed)
	}
	e.opts.Params.Publish(r.Current.Level, r.Current.Pitch)

	e.publishStatus(Status{
		Elapsed:   elapsed,
		Policy:    e.pipeline.Policy().ID(),
		Available: true,
		Result:    r,
		Jitter:    e.pipeline.JitterConfig(),
		Stats:     e.pipeline.Stats(),
		Dropped:   e.dropped,
	}, e.ticks%e.opts.StatusEvery == 0)
	return nil
}

func (e *Engine) record(elapsed time.Duration, angle float64) {
	if e.opts.Recorder == nil {
		return
	}
	if err := e.opts.Recorder.Record(elapsed, angle); err != nil {
		e.opts.Logger.Warn("trace recording failed, disabling", "error", err)
		e.opts.Recorder = nil
	}
}

// publishStatus notifies before storing, so a caller that observes the new
// status knows the callback has already run.
func (e *Engine) publishStatus(st Status, notify bool) {
	if notify && e.opts.OnStatus != nil {
		e.opts.OnStatus(st)
	}
	e.status.Store(&st)
}

func (e *Engine) logSummary(reason string) {
	st := e.Status()
	e.opts.Logger.Info("engine stopped",
		"reason", reason,
		"elapsed", st.Elapsed,
		"samples", st.Stats.Samples,
		"gaps", st.Stats.Gaps,
		"jitter_substitutions", st.Stats.JitterSubstitutions,
		"hysteresis_commits", st.Stats.HysteresisCommits,
		"dropped", st.Dropped,
		"peak_velocity", st.Stats.PeakVelocity)
}
