package player

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/log"
)

type seeker interface {
	Seek(seconds float64) error
}

// Skipper seeks past the skip ranges a module reported for a stream.
type Skipper struct {
	skips []decode.SkipTime
	to    seeker
}

// NewSkipper returns a skipper over the valid ranges of skips, ordered by start.
func NewSkipper(to seeker, skips []decode.SkipTime) *Skipper {
	valid := make([]decode.SkipTime, 0, len(skips))
	for _, s := range skips {
		if s.End > s.Start && s.Start >= 0 {
			valid = append(valid, s)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })

	return &Skipper{skips: valid, to: to}
}

// Check seeks to the end of the range pos falls in. It reports whether it seeked.
func (s *Skipper) Check(pos float64) (bool, error) {
	for _, r := range s.skips {
		if pos < r.Start || pos >= r.End {
			continue
		}

		log.Infof("skipping %s: %.1f -> %.1f", label(r), pos, r.End)
		if err := s.to.Seek(r.End); err != nil {
			return false, fmt.Errorf("skip %s: %w", label(r), err)
		}
		return true, nil
	}
	return false, nil
}

// Chapters returns an mpv chapter list marking every skip range.
func (s *Skipper) Chapters() []map[string]any {
	chapters := []map[string]any{{"title": "Start", "time": 0.0}}

	for _, r := range s.skips {
		chapters = append(chapters,
			map[string]any{"title": label(r), "time": r.Start},
			map[string]any{"title": "After " + strings.ToLower(label(r)), "time": r.End},
		)
	}
	return chapters
}

func label(r decode.SkipTime) string {
	switch strings.ToLower(r.Type) {
	case "op", "intro", "opening":
		return "Opening"
	case "ed", "outro", "ending":
		return "Ending"
	case "":
		return "Skip"
	default:
		return r.Type
	}
}
