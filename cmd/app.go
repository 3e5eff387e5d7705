package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/anisan-cli/modhost/app"
	"github.com/anisan-cli/modhost/color"
	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/icon"
	"github.com/anisan-cli/modhost/notify"
	"github.com/anisan-cli/modhost/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// withApp builds the host services for one command, prints notifications to
// stderr while fn runs and shuts everything down afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a := app.New(app.FromConfig())

	messages := a.Notifier.Subscribe(16)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for msg := range messages {
			printNotification(cmd.ErrOrStderr(), msg)
		}
	}()

	err := fn(cmd.Context(), a)
	closeErr := a.Close()
	<-printed

	if err != nil {
		return err
	}
	return closeErr
}

// kindColors tells failures apart at a glance: what the network or the
// surface did is blue or yellow, what the module produced is cyan or purple.
var kindColors = map[failure.Kind]lipgloss.Color{
	failure.Network:         color.Blue,
	failure.SurfaceTimeout:  color.Yellow,
	failure.ExtractionEmpty: color.Cyan,
	failure.Decode:          color.Purple,
	failure.Package:         color.Red,
	failure.Preference:      color.HiRed,
}

// kindTag labels a failure with its kind.
func kindTag(kind failure.Kind) string {
	c, ok := kindColors[kind]
	if !ok {
		c = color.Red
	}
	return style.Tag(c)(kind.String())
}

func printNotification(w io.Writer, msg notify.Message) {
	switch msg.Level {
	case notify.LevelError:
		text := msg.Text
		if msg.Kind != failure.Unknown {
			text = kindTag(msg.Kind) + " " + text
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", icon.Get(icon.Fail), text)
	case notify.LevelWarn:
		_, _ = fmt.Fprintf(w, "%s %s\n", icon.Get(icon.Warn), style.Fg(color.Yellow)(msg.Text))
	default:
		_, _ = fmt.Fprintf(w, "%s %s\n", icon.Get(icon.Info), msg.Text)
	}
}
