// Package style wraps lipgloss in small render functions.
package style

import (
	"github.com/anisan-cli/modhost/color"
	"github.com/charmbracelet/lipgloss"
)

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a function rendering text in c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(c).Render(s) }
}

// Tag returns a function rendering text as a padded label on c.
func Tag(c lipgloss.Color) func(string) string {
	return func(s string) string {
		return New().Foreground(color.OnAccent).Background(c).Padding(0, 1).Render(s)
	}
}

var (
	Faint  = func(s string) string { return New().Faint(true).Render(s) }
	Bold   = func(s string) string { return New().Bold(true).Render(s) }
	Italic = func(s string) string { return New().Italic(true).Render(s) }
	Title  = Tag(color.New("62"))
)
