// Package ui renders install progress and transient notifications in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/registry"
	"github.com/anisan-cli/modhost/style"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// NotificationLifetime is how long a notification stays below the status line.
const NotificationLifetime = 3 * time.Second

// StateMsg reports a step of the install state machine.
type StateMsg struct {
	State  registry.State
	Detail string
}

// DoneMsg ends the program with the install result.
type DoneMsg struct {
	Module *module.Module
	Err    error
}

// NotificationMsg shows a transient notification.
type NotificationMsg string

// ClearNotificationMsg is a Bubbletea message used to reset the visual notification state.
type ClearNotificationMsg struct {
	at time.Time
}

// ClearNotification returns a delayed tea.Cmd that clears the notification shown at the given time.
func ClearNotification(at time.Time) tea.Cmd {
	return tea.Tick(NotificationLifetime, func(time.Time) tea.Msg {
		return ClearNotificationMsg{at: at}
	})
}

// Model shows a spinner next to the current install state until a DoneMsg arrives.
type Model struct {
	title   string
	cancel  func()
	spinner spinner.Model

	state  registry.State
	detail string

	notification string
	notifiedAt   time.Time

	cancelled bool
	done      bool
	module    *module.Module
	err       error
}

// New returns a model for installing src. cancel is called on ctrl+c; the
// model keeps running until the install reports back.
func New(src string, cancel func()) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(color.Accent)

	return &Model{
		title:   src,
		cancel:  cancel,
		spinner: s,
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update processes incoming messages to modify the install and notification state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.cancelled {
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case StateMsg:
		m.state = msg.State
		m.detail = msg.Detail
		return m, nil
	case NotificationMsg:
		m.notification = string(msg)
		m.notifiedAt = time.Now()
		return m, ClearNotification(m.notifiedAt)
	case ClearNotificationMsg:
		// a newer notification resets the timer
		if msg.at.Equal(m.notifiedAt) {
			m.notification = ""
		}
		return m, nil
	case DoneMsg:
		m.done = true
		m.module = msg.Module
		m.err = msg.Err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the status line and the current notification.
func (m *Model) View() string {
	var b strings.Builder

	switch {
	case m.done && m.err != nil:
		b.WriteString(fmt.Sprintf("%s %s", icon.Get(icon.Fail), m.err))
	case m.done:
		b.WriteString(fmt.Sprintf("%s installed %s", icon.Get(icon.Success), style.Bold(m.module.String())))
	default:
		status := m.state.String()
		if m.cancelled {
			status = "cancelling"
		}
		b.WriteString(fmt.Sprintf("%s %s %s", m.spinner.View(), style.Bold(status), style.Faint(m.title)))
	}

	if m.notification != "" && !m.done {
		b.WriteString("\n")
		b.WriteString(style.Fg(color.Subtle)(m.notification))
	}

	b.WriteString("\n")
	return b.String()
}

// Result returns the installed module or the install error once done.
func (m *Model) Result() (*module.Module, error) {
	return m.module, m.err
}
