package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestTitleRuleMatchesBadgeWidth(t *testing.T) {
	out := Title("Lidtone")

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "◢ Lidtone ◣")
	assert.Equal(t, lipgloss.Width(lines[0]), lipgloss.Width(lines[1]))
	assert.Contains(t, lines[1], "▔")
}

func TestPrintHelpersWriteToWriter(t *testing.T) {
	var buf bytes.Buffer

	PrintVersion(&buf, "1.2.3")
	PrintError(&buf, "no hinge sensor")

	out := buf.String()
	assert.Contains(t, out, "Lidtone")
	assert.Contains(t, out, "version")
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "✗ no hinge sensor")
}
