// Package color holds the colors the CLI renders with. Plain ANSI colors
// follow the terminal's theme, the hex ones are fixed.
package color

import "github.com/charmbracelet/lipgloss"

// New returns the lipgloss color for an ANSI index or a hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

var (
	Red      = New("1")
	Green    = New("2")
	Yellow   = New("3")
	Blue     = New("4")
	Purple   = New("5")
	Cyan     = New("6")
	HiRed    = New("9")
	HiPurple = New("13")
)

var (
	// Accent marks the active element: spinners, install hints, titles.
	Accent = New("#cba6f7")
	// Text is body text inside boxes.
	Text = New("#cdd6f4")
	// Subtle is secondary text such as transient notifications.
	Subtle = New("#6c7086")
	// OnAccent is text drawn on an accent background.
	OnAccent = New("230")
)
