package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/registry"
	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
)

func TestModel(t *testing.T) {
	Convey("Given an install model", t, func() {
		var cancelled int
		m := New("https://modules.example.com/x.zip", func() { cancelled++ })

		Convey("State messages replace the status line", func() {
			m.Update(StateMsg{State: registry.Unpacking})
			So(m.View(), ShouldContainSubstring, "unpacking")
		})

		Convey("Ctrl+C cancels once and keeps waiting", func() {
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
			m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
			So(cmd, ShouldBeNil)
			So(cancelled, ShouldEqual, 1)
			So(m.View(), ShouldContainSubstring, "cancelling")
		})

		Convey("Notifications clear only after their own timer", func() {
			m.Update(NotificationMsg("first"))
			first := m.notifiedAt
			m.Update(NotificationMsg("second"))
			m.notifiedAt = first.Add(time.Second)

			m.Update(ClearNotificationMsg{at: first})
			So(m.View(), ShouldContainSubstring, "second")

			m.Update(ClearNotificationMsg{at: m.notifiedAt})
			So(m.View(), ShouldNotContainSubstring, "second")
		})

		Convey("Done quits with the result", func() {
			mod := &module.Module{Manifest: module.Manifest{ID: "x", Name: "X"}}
			_, cmd := m.Update(DoneMsg{Module: mod})
			So(cmd, ShouldNotBeNil)

			got, err := m.Result()
			So(err, ShouldBeNil)
			So(got, ShouldEqual, mod)
			So(m.View(), ShouldContainSubstring, "installed")
		})

		Convey("A failed install shows the error", func() {
			m.Update(DoneMsg{Err: errors.New("corrupt archive")})
			_, err := m.Result()
			So(err, ShouldNotBeNil)
			So(m.View(), ShouldContainSubstring, "corrupt archive")
		})
	})
}
