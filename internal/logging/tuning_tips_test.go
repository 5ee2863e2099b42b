package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linuxmatters/lidtone/internal/engine"
	"github.com/linuxmatters/lidtone/internal/processor"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{
			name:     "short_text_no_wrap",
			text:     "Open the lid",
			maxWidth: 20,
			indent:   "  ",
			want:     "Open the lid",
		},
		{
			name:     "long_text_wraps",
			text:     "Move the lid slowly to hear the creak",
			maxWidth: 20,
			indent:   "  ",
			want:     "Move the lid slowly\n  to hear the creak",
		},
		{
			name:     "single_long_word",
			text:     "--jitter-min-flips",
			maxWidth: 10,
			indent:   "  ",
			want:     "--jitter-min-flips",
		},
		{
			name:     "empty_input",
			text:     "",
			maxWidth: 20,
			indent:   "  ",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.maxWidth, tt.indent)
			if got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

// quietSession is a healthy creak session that fires no tips.
func quietSession() engine.Summary {
	return engine.Summary{
		Policy:   processor.PolicyCreak,
		Duration: 30 * time.Second,
		Stats: processor.Stats{
			Samples:             3000,
			JitterSubstitutions: 40,
			HysteresisCommits:   120,
			PeakVelocity:        60,
		},
		Dropped: 3,
		Jitter:  processor.DefaultJitterConfig(),
	}
}

func ruleIDs(tips []TuningTip) []string {
	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	return ids
}

func TestGenerateTuningTips(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*engine.Summary)
		want   []string
	}{
		{
			name:   "healthy_session",
			mutate: func(*engine.Summary) {},
			want:   []string{},
		},
		{
			name:   "dropped_readings",
			mutate: func(s *engine.Summary) { s.Dropped = 400 },
			want:   []string{"dropped_readings"},
		},
		{
			name:   "gaps_alone",
			mutate: func(s *engine.Summary) { s.Stats.Gaps = 2 },
			want:   []string{"sample_gaps"},
		},
		{
			name: "gaps_suppressed_by_dropped_readings",
			mutate: func(s *engine.Summary) {
				s.Stats.Gaps = 2
				s.Dropped = 400
			},
			want: []string{"dropped_readings"},
		},
		{
			name:   "heavy_jitter",
			mutate: func(s *engine.Summary) { s.Stats.JitterSubstitutions = 900 },
			want:   []string{"heavy_jitter"},
		},
		{
			name: "unfiltered_noise",
			mutate: func(s *engine.Summary) {
				s.Jitter.Enabled = false
				s.Stats.HysteresisCommits = 1500
			},
			want: []string{"unfiltered_noise"},
		},
		{
			name:   "too_fast_for_creak",
			mutate: func(s *engine.Summary) { s.Stats.PeakVelocity = 480 },
			want:   []string{"too_fast_for_creak"},
		},
		{
			name: "fast_tone_is_fine",
			mutate: func(s *engine.Summary) {
				s.Policy = processor.PolicyTone
				s.Stats.PeakVelocity = 480
			},
			want: []string{},
		},
		{
			name: "no_motion_suppresses_motion_tips",
			mutate: func(s *engine.Summary) {
				s.Stats.HysteresisCommits = 0
				s.Stats.JitterSubstitutions = 900
			},
			want: []string{"no_motion"},
		},
		{
			name: "sorted_by_priority",
			mutate: func(s *engine.Summary) {
				s.Stats.PeakVelocity = 480
				s.Stats.JitterSubstitutions = 900
				s.Dropped = 400
			},
			want: []string{"dropped_readings", "heavy_jitter", "too_fast_for_creak"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := quietSession()
			tt.mutate(&s)
			got := ruleIDs(GenerateTuningTips(s))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("GenerateTuningTips() rules = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateTuningTipsEmptySession(t *testing.T) {
	if tips := GenerateTuningTips(engine.Summary{}); len(tips) != 0 {
		t.Errorf("empty session should produce no tips, got %v", ruleIDs(tips))
	}
}

func TestGenerateTuningTipsCapped(t *testing.T) {
	s := quietSession()
	s.Dropped = 400
	s.Stats.Gaps = 3
	s.Stats.JitterSubstitutions = 900
	s.Stats.PeakVelocity = 480
	s.Jitter.Enabled = true

	if tips := GenerateTuningTips(s); len(tips) > MaxTuningTips {
		t.Errorf("got %d tips, want at most %d", len(tips), MaxTuningTips)
	}
}

func TestWriteReport(t *testing.T) {
	s := quietSession()
	s.Stats.PeakVelocity = 480

	data := ReportData{
		SessionID: "c0ffee00-0000-4000-8000-000000000000",
		Source:    "sim",
		TracePath: "lidtone-trace-1.csv",
		StartTime: time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 9, 6, 12, 0, 30, 0, time.UTC),
		Config:    *processor.DefaultCreakConfig(),
		Summary:   s,
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, data); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Lidtone Session Report",
		"Session: c0ffee00-0000-4000-8000-000000000000",
		"Trace: lidtone-trace-1.csv",
		"Policy: creak",
		"Duration: 30.0s",
		"Pipeline Configuration\n----------------------",
		"Jitter Amplitude",
		"Dropped Readings",
		"480.0 deg/s (slammed)",
		"Tuning Tips",
		"100 deg/s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReportJitterOff(t *testing.T) {
	s := quietSession()
	s.Jitter.Enabled = false

	var buf bytes.Buffer
	if err := WriteReport(&buf, ReportData{Config: *processor.DefaultToneConfig(), Summary: s}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if strings.Contains(out, "Jitter Amplitude") {
		t.Error("jitter details should be omitted when the filter is off")
	}
	if !strings.Contains(out, "No issues found.") {
		t.Errorf("expected no tips:\n%s", out)
	}
}

func TestGenerateReportWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	if err := GenerateReport(path, ReportData{SessionID: NewSessionID(), Summary: quietSession()}); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "Lidtone Session Report") {
		t.Errorf("unexpected report start: %q", string(b[:min(len(b), 40)]))
	}

	if err := GenerateReport(filepath.Join(t.TempDir(), "missing", "x.log"), ReportData{}); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}

func TestDisplaySummary(t *testing.T) {
	s := quietSession()
	s.Dropped = 400

	var buf bytes.Buffer
	DisplaySummary(&buf, "REPLAY: lid.csv", s)
	out := buf.String()

	for _, want := range []string{"REPLAY: lid.csv", "Policy:      creak", "3000 (400 dropped)", "TIPS", "sensor often had no reading"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{24 * time.Second, "24.0s"},
		{92 * time.Second, "1m 32s"},
		{2*time.Hour + 3*time.Minute, "2h 3m 0s"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.d); got != tt.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNewDebugLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewDebugLogger(&buf, "abc", false)
	log.Debug("hidden")
	log.Info("engine started", "policy", "tone")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug records should be dropped when not verbose")
	}
	if !strings.Contains(out, "session=abc") || !strings.Contains(out, "policy=tone") {
		t.Errorf("unexpected log output: %q", out)
	}

	buf.Reset()
	NewDebugLogger(&buf, "abc", true).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug records should be kept when verbose")
	}
}

func TestOpenDebugLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), DebugLogName)
	log, closer, err := OpenDebugLog(path, "s1", false)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "msg=hello") {
		t.Errorf("log file missing record: %q", string(b))
	}
}

func TestOpenDebugLogAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), DebugLogName)
	for _, session := range []string{"first", "second"} {
		log, closer, err := OpenDebugLog(path, session, false)
		if err != nil {
			t.Fatal(err)
		}
		log.Info("run started")
		if err := closer.Close(); err != nil {
			t.Fatal(err)
		}
	}

	b, _ := os.ReadFile(path)
	out := string(b)
	if !strings.Contains(out, "session=first") || !strings.Contains(out, "session=second") {
		t.Errorf("earlier run was truncated: %q", out)
	}
	if n := strings.Count(out, "msg=\"run started\""); n != 2 {
		t.Errorf("got %d records, want 2", n)
	}
}
