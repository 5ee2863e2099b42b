package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/linuxmatters/lidtone/internal/audio"
	"github.com/linuxmatters/lidtone/internal/cli"
	"github.com/linuxmatters/lidtone/internal/engine"
	"github.com/linuxmatters/lidtone/internal/logging"
	"github.com/linuxmatters/lidtone/internal/processor"
	"github.com/linuxmatters/lidtone/internal/sensor"
	"github.com/linuxmatters/lidtone/internal/timeutil"
	"github.com/linuxmatters/lidtone/internal/ui"
)

var (
	version = "0.0.1"
)

// creakLoopLength is long enough that the loop point is not heard as a pulse.
const creakLoopLength = 1500 * time.Millisecond

// CLI defines the command-line interface
type CLI struct {
	Version bool            `short:"v" help:"Show version information"`
	Config  kong.ConfigFlag `short:"c" help:"Load flag defaults from a JSON file"`

	Run    RunCmd    `cmd:"" default:"1" help:"Play the lid live (default)"`
	Replay ReplayCmd `cmd:"" help:"Run a recorded trace through the pipeline and write the processed CSV"`
}

// JitterFlags override the jitter filter defaults
type JitterFlags struct {
	Enabled   bool          `default:"true" negatable:"" help:"Suppress small oscillations of the angle"`
	Amplitude float64       `default:"10" placeholder:"DEG" help:"Largest peak-to-peak swing treated as jitter"`
	Window    time.Duration `default:"150ms" help:"History window for jitter detection"`
	MinDelta  float64       `default:"0.5" placeholder:"DEG" help:"Smallest change counted as a direction flip"`
	MinFlips  int           `default:"3" help:"Direction flips required to call it jitter"`
}

func (j JitterFlags) apply(jc *processor.JitterConfig) {
	jc.Enabled = j.Enabled
	jc.Amplitude = j.Amplitude
	jc.Window = j.Window
	jc.MinDelta = j.MinDelta
	jc.MinSignFlips = j.MinFlips
}

// RunCmd plays the lid live
type RunCmd struct {
	Policy     string        `short:"p" enum:"creak,tone" default:"tone" help:"Sound to play: creak or tone"`
	Source     string        `short:"s" enum:"sim,serial,trace" default:"sim" help:"Angle source: sim, serial or trace"`
	Port       string        `placeholder:"DEVICE" help:"Serial device for --source=serial"`
	Baud       int           `default:"115200" help:"Serial baud rate"`
	Trace      string        `type:"existingfile" placeholder:"FILE" help:"Trace CSV for --source=trace"`
	Record     string        `type:"existingdir" placeholder:"DIR" help:"Record raw readings to a trace CSV in DIR"`
	Report     string        `type:"path" placeholder:"FILE" help:"Write a session report to FILE"`
	Duration   time.Duration `help:"Stop after this long (0 runs until quit)"`
	NoAudio    bool          `help:"Run the pipeline without opening an audio device"`
	SampleRate int           `default:"48000" help:"Audio sample rate"`
	Verbose    bool          `help:"Write debug records to the debug log"`

	Jitter JitterFlags `embed:"" prefix:"jitter-"`
}

// ReplayCmd runs a recorded trace offline
type ReplayCmd struct {
	Trace  string `arg:"" type:"existingfile" help:"Trace CSV recorded with run --record"`
	Policy string `short:"p" enum:"creak,tone" default:"tone" help:"Policy to replay with: creak or tone"`
	Output string `short:"o" type:"path" placeholder:"FILE" help:"Processed CSV (default: stdout)"`
	Report string `type:"path" placeholder:"FILE" help:"Write a session report to FILE"`

	Jitter JitterFlags `embed:"" prefix:"jitter-"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("lidtone"),
		kong.Description("Turns the laptop lid hinge into an instrument"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(os.Stdout, version)
		os.Exit(0)
	}

	if err := ctx.Run(); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func pipelineConfig(policy string, jf JitterFlags) (*processor.PipelineConfig, error) {
	cfg, err := processor.DefaultConfig(processor.PolicyID(policy))
	if err != nil {
		return nil, err
	}
	jf.apply(&cfg.Jitter)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run implements the run command
func (c *RunCmd) Run() error {
	cfg, err := pipelineConfig(c.Policy, c.Jitter)
	if err != nil {
		return err
	}

	sessionID := logging.NewSessionID()
	log, logCloser, err := logging.OpenDebugLog(logging.DebugLogName, sessionID, c.Verbose)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	clock := timeutil.RealClock{}
	src, label, err := c.openSource(clock)
	if err != nil {
		return err
	}
	defer src.Close()

	// A nil *Recorder must not reach the engine as a non-nil interface.
	var recorder engine.TraceRecorder
	var tracePath string
	if c.Record != "" {
		rec, err := sensor.NewRecorder(c.Record)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Error("failed to close trace", "path", rec.Path(), "error", err)
			}
		}()
		recorder = rec
		tracePath = rec.Path()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if c.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	var p *tea.Program
	opts := engine.Options{
		Source:   src,
		Clock:    clock,
		Recorder: recorder,
		Logger:   log,
	}
	if interactive {
		opts.OnStatus = func(st engine.Status) {
			p.Send(ui.StatusMsg{Status: st})
		}
	}

	eng, err := engine.New(cfg, opts)
	if err != nil {
		return err
	}

	if !c.NoAudio {
		out, err := audio.NewOutput(c.SampleRate, c.renderer(eng.Params()))
		if err != nil {
			return fmt.Errorf("%w (use --no-audio to run silently)", err)
		}
		defer out.Close()
		out.Start()
		log.Info("audio output started", "sample_rate", c.SampleRate)
	}

	startTime := time.Now()
	log.Info("run started", "source", label, "policy", cfg.Policy, "interactive", interactive, "trace", tracePath)

	var runErr error
	if interactive {
		p = tea.NewProgram(ui.NewModel(label, cfg.Policy, eng, log), tea.WithAltScreen())
		runErr = runInteractive(ctx, p, eng, log)
	} else {
		cli.PrintKeyValue(os.Stdout, "Policy", string(cfg.Policy))
		cli.PrintKeyValue(os.Stdout, "Source", label)
		if tracePath != "" {
			cli.PrintKeyValue(os.Stdout, "Recording", tracePath)
		}
		runErr = eng.Run(ctx)
	}

	summary := eng.Summary()
	logging.DisplaySummary(os.Stdout, "LIDTONE: "+label, summary)

	if c.Report != "" {
		data := logging.ReportData{
			SessionID: sessionID,
			Source:    label,
			TracePath: tracePath,
			StartTime: startTime,
			EndTime:   time.Now(),
			Config:    *cfg,
			Summary:   summary,
		}
		if err := logging.GenerateReport(c.Report, data); err != nil {
			log.Error("failed to write report", "error", err)
			cli.PrintError(os.Stderr, err.Error())
		}
	}

	return runErr
}

// runInteractive drives the engine under the live monitor. Quitting the
// monitor stops the engine; the engine stopping closes the monitor.
func runInteractive(ctx context.Context, p *tea.Program, eng *engine.Engine, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engineErr := make(chan error, 1)
	go func() {
		err := eng.Run(ctx)
		p.Send(ui.DoneMsg{Summary: eng.Summary(), Err: err})
		engineErr <- err
	}()

	if _, err := p.Run(); err != nil {
		log.Error("monitor failed", "error", err)
		cancel()
		return errors.Join(err, <-engineErr)
	}

	cancel()
	return <-engineErr
}

func (c *RunCmd) openSource(clock timeutil.Clock) (sensor.Source, string, error) {
	switch c.Source {
	case "serial":
		if c.Port == "" {
			return nil, "", errors.New("--port is required with --source=serial")
		}
		cfg := sensor.DefaultSerialConfig(c.Port)
		cfg.BaudRate = c.Baud
		src, err := sensor.OpenSerial(cfg)
		if err != nil {
			return nil, "", err
		}
		return src, "serial:" + c.Port, nil

	case "trace":
		if c.Trace == "" {
			return nil, "", errors.New("--trace is required with --source=trace")
		}
		samples, err := sensor.LoadTrace(c.Trace)
		if err != nil {
			return nil, "", err
		}
		return sensor.NewReplaySource(samples), "trace:" + filepath.Base(c.Trace), nil

	default:
		return sensor.NewSimulatedSource(sensor.DefaultSimConfig(), clock), "sim", nil
	}
}

func (c *RunCmd) renderer(params *audio.Params) audio.Renderer {
	if c.Policy == string(processor.PolicyCreak) {
		loop := audio.GenerateCreakLoop(c.SampleRate, creakLoopLength, uint64(time.Now().UnixNano()))
		return audio.NewLoopPlayer(params, loop)
	}
	return audio.NewToneSynth(params, c.SampleRate)
}

// Run implements the replay command
func (c *ReplayCmd) Run() error {
	cfg, err := pipelineConfig(c.Policy, c.Jitter)
	if err != nil {
		return err
	}

	samples, err := sensor.LoadTrace(c.Trace)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	summaryOut := os.Stderr
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
		summaryOut = os.Stdout
	}

	startTime := time.Now()
	summary, err := engine.Replay(cfg, samples, w)
	if err != nil {
		return err
	}

	label := "trace:" + filepath.Base(c.Trace)
	logging.DisplaySummary(summaryOut, "REPLAY: "+filepath.Base(c.Trace), summary)

	if c.Report != "" {
		data := logging.ReportData{
			SessionID: logging.NewSessionID(),
			Source:    label,
			TracePath: c.Trace,
			StartTime: startTime,
			EndTime:   time.Now(),
			Config:    *cfg,
			Summary:   summary,
		}
		if err := logging.GenerateReport(c.Report, data); err != nil {
			return err
		}
	}
	return nil
}
