// Package surface implements the execution surface module code runs on: a
// document is loaded, a reserved output container is prepared, module code
// is injected, and the container's lines are collected back.
package surface

import (
	"context"
	"fmt"
	"sync"

	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/internal/engine"
)

// Document is a fetched response loaded into the surface as its current page.
type Document struct {
	URL         string
	Body        []byte
	ContentType string
}

// Policy restricts what a loaded document may request on its own.
type Policy struct {
	AllowExternalScripts bool
	AllowNetwork         bool
}

// Surface is a single navigable scripting environment. Callers must serialize
// access; a Surface performs no locking of its own around a run.
type Surface interface {
	Load(ctx context.Context, doc Document, policy Policy) error
	WaitReady(ctx context.Context) error
	PrepareContainer(ctx context.Context) error
	RemoveScripts(ctx context.Context) error
	Inject(ctx context.Context, code string) error
	ImportURL(ctx context.Context, src string) error
	Collect(ctx context.Context) ([]string, error)
	Close() error

	NextURL() string
	SetNextURL(url string)
	LastURL() string
}

// State is the mutable navigation state shared by every surface of a process.
// Writes are last-write-wins.
type State struct {
	mu   sync.RWMutex
	next string
	last string
}

// NextURL returns the pagination hint left by the last successful run.
func (s *State) NextURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next
}

// SetNextURL replaces the pagination hint.
func (s *State) SetNextURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = url
}

// LastURL returns the URL of the last loaded document.
func (s *State) LastURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *State) setLast(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = url
}

// Config configures surface creation.
type Config struct {
	Headless  bool
	Stealth   bool
	RemoteURL string
}

// Open creates the surface for a script engine.
func Open(engineName string, cfg Config, fetcher engine.Fetcher, state *State) (Surface, error) {
	switch engineName {
	case constant.EngineWeb, "":
		return NewWeb(cfg, state), nil
	case constant.EngineLua:
		return NewLua(fetcher, state), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engineName)
	}
}

// Pool holds at most one lazily created surface per engine. All of them share one State.
type Pool struct {
	cfg     Config
	fetcher engine.Fetcher
	state   *State

	mu       sync.Mutex
	surfaces map[string]Surface
}

// NewPool returns an empty pool.
func NewPool(cfg Config, fetcher engine.Fetcher) *Pool {
	return &Pool{
		cfg:      cfg,
		fetcher:  fetcher,
		state:    &State{},
		surfaces: make(map[string]Surface),
	}
}

// State returns the navigation state shared by the pool's surfaces.
func (p *Pool) State() *State {
	return p.state
}

// Get returns the surface for an engine, creating it on first use.
func (p *Pool) Get(engineName string) (Surface, error) {
	if engineName == "" {
		engineName = constant.EngineWeb
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.surfaces[engineName]; ok {
		return s, nil
	}

	s, err := Open(engineName, p.cfg, p.fetcher, p.state)
	if err != nil {
		return nil, err
	}

	p.surfaces[engineName] = s
	return s, nil
}

// Close closes every surface created so far.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for name, s := range p.surfaces {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s surface: %w", name, err)
		}
		delete(p.surfaces, name)
	}
	return firstErr
}
