package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Run status names shown in summaries
const (
	StatusNew       = "New"
	StatusUnchanged = "Unchanged"
	StatusFailed    = "Failed"
)

var (
	// Status colors
	New       = color.New(color.FgGreen, color.Bold)
	Unchanged = color.New(color.Faint)
	Failed    = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header   = color.New(color.FgWhite, color.Bold)
	Location = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// StatusColor returns the color for a run status
func StatusColor(status string) *color.Color {
	switch status {
	case StatusNew:
		return New
	case StatusUnchanged:
		return Unchanged
	case StatusFailed:
		return Failed
	default:
		return color.New(color.Reset)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf("⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}

// Sprintf returns a colored string without printing
func Sprintf(c *color.Color, format string, args ...interface{}) string {
	return c.Sprintf(format, args...)
}

// FormatStatus formats a run status with its color
func FormatStatus(status string) string {
	return StatusColor(status).Sprintf("[%s]", status)
}

// FormatEvent formats a scan event as "location - details"
func FormatEvent(location, details string) string {
	if location == "" {
		return details
	}
	return Location.Sprint(location) + " - " + details
}

// Box writes a boxed message to w
func Box(w io.Writer, title string, lines ...string) {
	fmt.Fprintln(w)
	Header.Fprintln(w, "┌─ "+title+" ─")
	fmt.Fprintln(w, "│")
	for _, line := range lines {
		fmt.Fprintln(w, "│  "+line)
	}
	fmt.Fprintln(w, "│")
	Header.Fprintln(w, "└────────────────")
	fmt.Fprintln(w)
}
