// Package player hands resolved streams to an external media player.
package player

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anisan-cli/modhost/decode"
	"github.com/samber/lo"
)

const (
	NameMPV  = "mpv"
	NameIINA = "iina"
)

// Stream is everything a player needs to start playback.
type Stream struct {
	URL       string
	Title     string
	Headers   map[string]string
	Subtitles []string
	Skips     []decode.SkipTime
}

// Player is an external playback backend.
type Player interface {
	// Play starts playback of s. It returns once the player is running.
	Play(ctx context.Context, s Stream) error
	// Wait returns a channel closed when the player exits.
	Wait() <-chan struct{}
	Close() error
}

// Names lists the supported players.
func Names() []string {
	return []string{NameMPV, NameIINA}
}

// New returns the player called name.
func New(name string) (Player, error) {
	switch strings.ToLower(name) {
	case NameMPV:
		return NewMPV(), nil
	case NameIINA:
		return NewIINA(), nil
	default:
		return nil, fmt.Errorf("unknown player %q, available: %s", name, strings.Join(Names(), ", "))
	}
}

// StreamFrom builds a stream from the source at index of a resolved media bundle.
func StreamFrom(bundle decode.MediaBundle, index int, title string, headers map[string]string) (Stream, error) {
	if index < 0 || index >= len(bundle.Sources) {
		return Stream{}, fmt.Errorf("source %d out of range, bundle has %d", index, len(bundle.Sources))
	}

	return Stream{
		URL:     bundle.Sources[index].File,
		Title:   title,
		Headers: headers,
		Subtitles: lo.FilterMap(bundle.Subtitles, func(s decode.Subtitle, _ int) (string, bool) {
			return s.URL, strings.TrimSpace(s.URL) != ""
		}),
		Skips: bundle.SkipTimes,
	}, nil
}

// headerFields renders headers as mpv's comma separated http-header-fields value.
func headerFields(headers map[string]string) string {
	keys := lo.Keys(headers)
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s: %s", k, strings.ReplaceAll(headers[k], ",", "%2C")))
	}
	return strings.Join(fields, ",")
}

// subtitleArgs sanitizes subtitle targets, dropping the ones that are unsafe to pass.
func subtitleArgs(prefix string, subtitles []string) []string {
	var args []string
	for _, sub := range subtitles {
		safe, err := sanitizeMediaTarget(sub)
		if err != nil {
			continue
		}
		args = append(args, prefix+safe)
	}
	return args
}
