package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette: brass hinge on dark walnut, with slate for secondary text.
var (
	Brass  = lipgloss.Color("#C8963E")
	Walnut = lipgloss.Color("#6B4226")
	Slate  = lipgloss.Color("#7A8C99")
	Cream  = lipgloss.Color("#F5F0E6")
	Ember  = lipgloss.Color("#E07A2E") // warnings
	Moss   = lipgloss.Color("#6FA35F") // healthy state
)

var (
	// TitleStyle is the hinge badge used at the top of every screen.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cream).
			Background(Walnut).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Ember)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Slate).
			Width(10)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Brass)
)

// Title renders the badge with a hinge rule under it, as wide as the badge.
func Title(text string) string {
	badge := TitleStyle.Render("◢ " + text + " ◣")
	rule := lipgloss.NewStyle().Foreground(Brass).Render(strings.Repeat("▔", lipgloss.Width(badge)))
	return badge + "\n" + rule
}

// PrintVersion prints version information
func PrintVersion(w io.Writer, version string) {
	fmt.Fprintln(w, Title("Lidtone"))
	PrintKeyValue(w, "version", version)
}

// PrintKeyValue prints one aligned banner line
func PrintKeyValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(key), ValueStyle.Render(value))
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("✗"), message)
}
