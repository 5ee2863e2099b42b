package cli

import (
	"bytes"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type helpCLI struct {
	Verbose bool `help:"Write debug records"`

	Run struct {
		SampleRate int `default:"48000" help:"Audio sample rate"`
	} `cmd:"" help:"Play the lid live"`

	Replay struct {
		Trace string `arg:"" help:"Recorded trace"`
	} `cmd:"" help:"Replay a trace"`
}

func renderHelp(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	parser, err := kong.New(&helpCLI{},
		kong.Name("lidtone"),
		kong.Description("Turns the laptop lid hinge into an instrument"),
		kong.Writers(&buf, &buf),
		kong.Exit(func(int) {}),
		kong.Help(StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
	require.NoError(t, err)
	_, _ = parser.Parse(args)
	return buf.String()
}

func TestStyledHelpRoot(t *testing.T) {
	out := renderHelp(t, "--help")

	assert.Contains(t, out, "Lidtone")
	assert.Contains(t, out, "Turns the laptop lid hinge into an instrument")
	assert.Contains(t, out, "lidtone <command> [flags]")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "Play the lid live")
	assert.Contains(t, out, "Replay a trace")
	assert.Contains(t, out, "--verbose")
}

func TestStyledHelpCommand(t *testing.T) {
	out := renderHelp(t, "run", "--help")

	assert.Contains(t, out, "lidtone run [flags]")
	assert.Contains(t, out, "--sample-rate")
	assert.Contains(t, out, "(default: 48000)")
	assert.Contains(t, out, "--verbose", "parent flags apply to commands")
	assert.NotContains(t, out, "Commands:")
}

func TestStyledHelpArguments(t *testing.T) {
	out := renderHelp(t, "replay", "--help")

	assert.Contains(t, out, "Arguments:")
	assert.Contains(t, out, "<trace>")
	assert.Contains(t, out, "Recorded trace")
}
