package player

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/log"
	"github.com/google/uuid"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// MPV plays streams with mpv and talks to it over its JSON IPC socket.
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	events     *EventListener
	mu         sync.Mutex // serializes socket writes
}

// NewMPV returns an MPV player. Nothing is started until Play.
func NewMPV() *MPV {
	return &MPV{exited: make(chan struct{})}
}

// mpvArgs builds the command line for s. User mpv.conf settings such as
// --vo or --hwdec are left alone.
func mpvArgs(socket string, s Stream) ([]string, error) {
	target, err := sanitizeMediaTarget(s.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}

	title := sanitizeTitle(s.Title)
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + socket,
		"--force-media-title=" + title,
		"--title=" + title,
		"--force-window=yes",
	}

	if len(s.Headers) > 0 {
		args = append(args, "--http-header-fields="+headerFields(s.Headers))
	}
	args = append(args, subtitleArgs("--sub-file=", s.Subtitles)...)

	// end of options, so the target can never be read as a flag
	return append(args, "--", target), nil
}

// Play starts mpv and waits until its IPC socket accepts connections. When
// the stream carries skip ranges they are shown as chapters and skipped.
func (m *MPV) Play(ctx context.Context, s Stream) error {
	if m.socketPath == "" {
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("modhost-%s.sock", uuid.NewString()[:8]))
	}

	args, err := mpvArgs(m.socketPath, s)
	if err != nil {
		return err
	}

	m.cmd = exec.Command("mpv", args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(ctx); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: %v", err)
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	if len(s.Skips) > 0 {
		m.attachSkipper(s.Skips)
	}

	return nil
}

func (m *MPV) attachSkipper(skips []decode.SkipTime) {
	skipper := NewSkipper(m, skips)
	if err := m.SetChapters(skipper.Chapters()); err != nil {
		log.Warnf("set chapters: %v", err)
	}

	m.events = NewEventListener(m.socketPath, func(property string, data any) {
		pos, ok := data.(float64)
		if property != "time-pos" || !ok {
			return
		}
		if _, err := skipper.Check(pos); err != nil {
			log.Warn(err)
		}
	})

	if err := m.events.Start(); err != nil {
		log.Warnf("skip listener: %v", err)
		m.events = nil
	}
}

// Wait returns a channel closed when mpv exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

func (m *MPV) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return errors.New("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// TimePos returns the playback position in seconds.
func (m *MPV) TimePos() (float64, error) {
	return m.floatProperty("time-pos")
}

// Seek moves playback to an absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand([]any{"seek", seconds, "absolute"})
	return err
}

// SetChapters replaces the chapter list shown on mpv's timeline.
func (m *MPV) SetChapters(chapters []map[string]any) error {
	_, err := m.sendCommand([]any{"set_property", "chapter-list", chapters})
	return err
}

// Close quits mpv, killing it if it does not exit in time.
func (m *MPV) Close() error {
	if m.events != nil {
		m.events.Stop()
	}

	if m.socketPath == "" || m.cmd == nil {
		return nil
	}

	_, _ = m.sendCommand([]any{"quit"})

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

func (m *MPV) floatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]any{"get_property", name})
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected number, got %T", name, data)
	}
	return val, nil
}

// sanitizeMediaTarget checks that a module supplied URL or path is safe to
// hand to a player on its command line.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-'")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
