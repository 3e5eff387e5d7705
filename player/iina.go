package player

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// IINA plays streams with the macOS IINA app. It has no IPC socket, so skip
// ranges are only shown as chapters by mpv and are ignored here.
type IINA struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

// NewIINA returns an IINA player.
func NewIINA() *IINA {
	return &IINA{exited: make(chan struct{})}
}

// iinaArgs builds the open(1) command line. IINA forwards --mpv-* options to its mpv core.
func iinaArgs(s Stream) ([]string, error) {
	target, err := sanitizeMediaTarget(s.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}

	args := []string{"-a", "IINA", "--args", "--mpv-force-media-title=" + sanitizeTitle(s.Title)}

	if len(s.Headers) > 0 {
		args = append(args, "--mpv-http-header-fields="+headerFields(s.Headers))
	}
	args = append(args, subtitleArgs("--mpv-sub-file=", s.Subtitles)...)

	return append(args, target), nil
}

// Play launches IINA through LaunchServices.
func (m *IINA) Play(_ context.Context, s Stream) error {
	if runtime.GOOS != "darwin" {
		return errors.New("IINA is only supported on macOS")
	}

	args, err := iinaArgs(s)
	if err != nil {
		return err
	}

	m.cmd = exec.Command("open", args...)
	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("LaunchServices failed to invoke IINA: %w", err)
	}

	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	return nil
}

// Wait returns a channel closed when open(1) returns.
func (m *IINA) Wait() <-chan struct{} {
	return m.exited
}

func (m *IINA) Close() error {
	return killProcess(m.cmd)
}
