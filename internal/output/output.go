// Package output renders scriptfeed's terminal messages.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for success indicators
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// errorStyle for error indicators
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	// diagBoxStyle frames a failed load
	diagBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)

	// unitLineStyle for line numbers in check output
	unitLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))
)

// Diagnostic is the state of a load at the moment it failed.
type Diagnostic struct {
	Err     error
	Line    int
	Text    string
	Unit    string
	Pending string
}

// FormatDiagnostic writes the error, the line being processed and the
// block accumulated so far.
func FormatDiagnostic(w io.Writer, d Diagnostic) {
	var b strings.Builder
	b.WriteString(errorStyle.Render("Error Reading Script: "))
	b.WriteString(d.Err.Error())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render(fmt.Sprintf("Current line (%d):", d.Line)), d.Text)
	if d.Unit != "" {
		fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("Failed unit:"), d.Unit)
	}
	fmt.Fprintf(&b, "%s %s", dimStyle.Render("Current block:"), d.Pending)

	fmt.Fprintln(w, diagBoxStyle.Render(b.String()))
}

// FormatLoadStart writes the banner shown before a script runs.
func FormatLoadStart(w io.Writer, path string) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Evaluating script."), dimStyle.Render(path))
}

// FormatLoadSummary writes the per-load counters.
func FormatLoadSummary(w io.Writer, lines, units, failed int) {
	status := successStyle.Render("OK")
	if failed > 0 {
		status = errorStyle.Render(fmt.Sprintf("%d FAILED", failed))
	}
	fmt.Fprintf(w, "%s %d  %s %d  %s\n",
		dimStyle.Render("Lines:"), lines,
		dimStyle.Render("Units:"), units,
		status,
	)
}

// FormatUnit writes one unit for the check command.
func FormatUnit(w io.Writer, start, end int, text string) {
	loc := fmt.Sprintf("%d", start)
	if end != start {
		loc = fmt.Sprintf("%d-%d", start, end)
	}
	fmt.Fprintf(w, "%s %s\n", unitLineStyle.Render(fmt.Sprintf("%7s |", loc)), text)
}

// FormatREPLError writes an error raised by an interactive statement.
func FormatREPLError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("ERROR:"), err.Error())
}

// FormatBanner writes a muted informational line.
func FormatBanner(w io.Writer, msg string) {
	fmt.Fprintln(w, dimStyle.Render(msg))
}
