// Package media exposes the selected module's features as typed calls.
package media

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/log"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/notify"
	"github.com/anisan-cli/modhost/registry"
	"github.com/anisan-cli/modhost/runner"
)

// ErrNoSelection is returned when no module is selected.
var ErrNoSelection = errors.New("no module selected")

// Runner executes a bundle and decodes its output.
type Runner interface {
	Exec(ctx context.Context, m *module.Module, bundle module.Bundle, in runner.Input, family decode.Family) (decode.Result, error)
}

// Selector provides the selected module.
type Selector interface {
	Selected() (*registry.Selection, bool)
}

// Service runs features of the selected module and keeps the last good
// payload of every family.
type Service struct {
	runner   Runner
	selector Selector
	notifier *notify.Notifier

	mu   sync.Mutex
	last map[decode.Family]decode.Payload
}

// New returns a media service.
func New(r Runner, selector Selector, notifier *notify.Notifier) *Service {
	return &Service{
		runner:   r,
		selector: selector,
		notifier: notifier,
		last:     make(map[decode.Family]decode.Payload),
	}
}

func feature(family decode.Family) module.Feature {
	switch family {
	case decode.Home:
		return module.FeatureHome
	case decode.Search:
		return module.FeatureSearch
	case decode.Info:
		return module.FeatureInfo
	default:
		return module.FeatureMedia
	}
}

// Home loads the home feed.
func (s *Service) Home(ctx context.Context) (decode.Payload, error) {
	return s.exec(ctx, decode.Home, runner.Input{})
}

// Search runs a search for query.
func (s *Service) Search(ctx context.Context, query string) (decode.Payload, error) {
	return s.exec(ctx, decode.Search, runner.Input{Query: query})
}

// More loads the next page the previous run pointed to, decoded as family.
func (s *Service) More(ctx context.Context, family decode.Family) (decode.Payload, error) {
	return s.exec(ctx, family, runner.Input{Next: true})
}

// Info loads the info page at url.
func (s *Service) Info(ctx context.Context, url string) (decode.Payload, error) {
	return s.exec(ctx, decode.Info, runner.Input{Query: url})
}

// Resolve resolves the playable media behind url.
func (s *Service) Resolve(ctx context.Context, url string) (decode.Payload, error) {
	return s.exec(ctx, decode.Media, runner.Input{Query: url})
}

// Last returns the last payload decoded for family.
func (s *Service) Last(family decode.Family) (decode.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.last[family]
	return p, ok
}

// exec runs the feature bound to family. On failure the error is published to
// the notifier and the previous payload of the family is returned unchanged.
func (s *Service) exec(ctx context.Context, family decode.Family, in runner.Input) (decode.Payload, error) {
	selection, ok := s.selector.Selected()
	if !ok {
		return nil, ErrNoSelection
	}

	f := feature(family)
	log.Infof("running %s of %s", f, selection.Module.ID())

	res, err := s.runner.Exec(ctx, selection.Module, selection.Bundles.Get(f), in, family)
	if err != nil {
		if !errors.Is(err, runner.ErrNoNextPage) {
			s.notifier.Failure(fmt.Errorf("%s: %w", f, err))
		}
		previous, _ := s.Last(family)
		return previous, err
	}

	s.mu.Lock()
	s.last[family] = res.Payload
	s.mu.Unlock()

	return res.Payload, nil
}
