// Package runner executes module script bundles on the shared surface.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/extract"
	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/gate"
	"github.com/anisan-cli/modhost/log"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/network"
	"github.com/anisan-cli/modhost/surface"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Fetcher performs the HTTP request a block declares.
type Fetcher interface {
	Do(ctx context.Context, req module.Resolved) (*network.Response, error)
}

// Surfaces hands out the surface for a script engine.
type Surfaces interface {
	Get(engine string) (surface.Surface, error)
}

// Timeouts bound every suspension point of a run.
type Timeouts struct {
	// Ready bounds loading a document and waiting for it to be ready.
	Ready time.Duration
	// Script bounds preparing the container, imports, injection and collection.
	Script time.Duration
	// HTTP bounds the block's own request.
	HTTP time.Duration
}

// Options configure a Runner.
type Options struct {
	Timeouts Timeouts
	// Secrets returns the secret lookup for a module, used for ${secret:NAME} headers.
	Secrets func(moduleID string) module.SecretFunc
}

// Input is what the caller supplies to a run.
type Input struct {
	// Query is a search term, or an absolute URL to open.
	Query string
	// Next requests the page the previous run pointed to.
	Next bool
}

// ErrNoNextPage is returned for a Next input when no run left a next URL.
var ErrNoNextPage = errors.New("no next page")

// Runner runs bundles one at a time through a gate.
type Runner struct {
	gate     *gate.Gate
	surfaces Surfaces
	fetcher  Fetcher
	opts     Options
}

// New returns a runner.
func New(g *gate.Gate, surfaces Surfaces, fetcher Fetcher, opts Options) *Runner {
	if opts.Timeouts.Ready <= 0 {
		opts.Timeouts.Ready = 30 * time.Second
	}
	if opts.Timeouts.Script <= 0 {
		opts.Timeouts.Script = 30 * time.Second
	}
	if opts.Timeouts.HTTP <= 0 {
		opts.Timeouts.HTTP = time.Minute
	}

	return &Runner{gate: g, surfaces: surfaces, fetcher: fetcher, opts: opts}
}

// Run executes bundle and returns the text collected from its last block.
func (r *Runner) Run(ctx context.Context, m *module.Module, bundle module.Bundle, in Input) (string, error) {
	s, err := r.surfaces.Get(m.Manifest.EngineName())
	if err != nil {
		return "", err
	}

	if err := r.acquire(ctx); err != nil {
		return "", err
	}
	defer r.gate.Release()

	outputs, err := r.run(ctx, s, m, bundle, in)
	if err != nil {
		return "", err
	}
	return outputs[len(outputs)-1], nil
}

// Exec runs bundle and decodes its text as family while still holding the
// gate. On success the surface's next URL is replaced by the decoded hint.
// An info bundle whose last block lists episodes keeps the detail an earlier
// block decoded, with the episodes added to it.
func (r *Runner) Exec(ctx context.Context, m *module.Module, bundle module.Bundle, in Input, family decode.Family) (decode.Result, error) {
	s, err := r.surfaces.Get(m.Manifest.EngineName())
	if err != nil {
		return decode.Result{}, err
	}

	if err := r.acquire(ctx); err != nil {
		return decode.Result{}, err
	}
	defer r.gate.Release()

	previous := s.NextURL()
	outputs, err := r.run(ctx, s, m, bundle, in)
	if err != nil {
		return decode.Result{}, err
	}

	res, err := decode.Decode(outputs[len(outputs)-1], family)
	if err != nil {
		s.SetNextURL(previous)
		return res, err
	}

	if list, ok := res.Payload.(decode.EpisodeList); ok {
		if detail, found := earlierDetail(outputs[:len(outputs)-1]); found {
			res.Payload = detail.WithEpisodes(list)
		}
	}

	s.SetNextURL(res.NextURL.OrEmpty())
	return res, nil
}

// earlierDetail returns the info detail decoded from the latest of outputs that has one.
func earlierDetail(outputs []string) (decode.InfoDetail, bool) {
	for i := len(outputs) - 1; i >= 0; i-- {
		res, err := decode.Decode(outputs[i], decode.Info)
		if err != nil {
			continue
		}
		if detail, ok := res.Payload.(decode.InfoDetail); ok {
			return detail, true
		}
	}
	return decode.InfoDetail{}, false
}

func (r *Runner) acquire(ctx context.Context) error {
	if err := r.gate.Acquire(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failure.New(failure.SurfaceTimeout, "runner.acquire", err)
		}
		return fmt.Errorf("runner.acquire: %w", err)
	}
	return nil
}

// run executes every block of bundle and returns their outputs in order.
// A block that leaves a next page hint stores it on the surface and the
// following block loads that page unless its request names its own url.
// When a later block fails the stored hint is put back.
func (r *Runner) run(ctx context.Context, s surface.Surface, m *module.Module, bundle module.Bundle, in Input) ([]string, error) {
	if bundle.Empty() {
		return nil, failure.Newf(failure.ExtractionEmpty, "runner.run", "module %s has no blocks for this feature", m.ID())
	}

	entry := log.With(log.Fields{"run": uuid.NewString(), "module": m.ID()})
	previous := s.NextURL()

	var (
		outputs = make([]string, 0, len(bundle))
		hint    string
	)
	for i, block := range bundle {
		out, err := r.runBlock(ctx, entry.WithField("block", block.Name), s, m, block, in, i == 0, hint)
		if err != nil {
			if i > 0 {
				s.SetNextURL(previous)
			}
			return nil, err
		}
		outputs = append(outputs, out)

		if i < len(bundle)-1 {
			hint = chainURL(out)
			if hint != "" {
				entry.Debugf("next block continues at %s", hint)
				s.SetNextURL(hint)
			}
		}
	}

	return outputs, nil
}

// chainURL is the page a block's output points the next block to: the
// envelope's next url, or the output itself when it is a bare url.
func chainURL(text string) string {
	if next, ok := decode.NextURL(text).Get(); ok {
		return next
	}
	if t := strings.TrimSpace(text); isAbsoluteURL(t) {
		return t
	}
	return ""
}

func (r *Runner) runBlock(ctx context.Context, entry *log.Entry, s surface.Surface, m *module.Module, block module.ScriptBlock, in Input, first bool, hint string) (string, error) {
	req, err := r.request(s, m, block, in, first, hint)
	if err != nil {
		return "", err
	}

	if resolved, ok := req.Get(); ok {
		entry.Debugf("fetching %s %s", resolved.Method, resolved.URL)

		doc, err := r.fetch(ctx, resolved)
		if err != nil {
			return "", err
		}

		if err := r.load(ctx, s, doc, block); err != nil {
			return "", err
		}
	}

	scriptCtx, cancel := context.WithTimeout(ctx, r.opts.Timeouts.Script)
	defer cancel()

	if err := s.PrepareContainer(scriptCtx); err != nil {
		return "", suspension(scriptCtx, "surface.prepare", err)
	}

	if block.RemoveScripts {
		if err := s.RemoveScripts(scriptCtx); err != nil {
			return "", suspension(scriptCtx, "surface.remove_scripts", err)
		}
	}

	for _, spec := range block.Imports {
		imp, err := m.ResolveImport(spec)
		if err != nil {
			return "", failure.New(failure.Package, "runner.import", err)
		}

		if imp.Remote() {
			err = s.ImportURL(scriptCtx, imp.URL)
		} else {
			err = s.Inject(scriptCtx, imp.Code)
		}
		if err != nil {
			return "", suspension(scriptCtx, "surface.import", err)
		}
	}

	entry.Debug("injecting block")
	if err := s.Inject(scriptCtx, block.Code); err != nil {
		return "", suspension(scriptCtx, "surface.inject", err)
	}

	lines, err := s.Collect(scriptCtx)
	if err != nil {
		return "", suspension(scriptCtx, "surface.collect", err)
	}

	if !extract.NonEmpty(lines) {
		return "", failure.Newf(failure.ExtractionEmpty, "runner.collect", "block %s wrote no output", block.Name)
	}

	entry.Debugf("collected %d lines", len(lines))
	return extract.Join(lines), nil
}

// request picks the request a block runs against. None means the block runs
// on the document already loaded. A Next input only applies to the first
// block; later blocks follow the hint the block before them left.
func (r *Runner) request(s surface.Surface, m *module.Module, block module.ScriptBlock, in Input, first bool, hint string) (mo.Option[module.Resolved], error) {
	next := first && in.Next
	absolute := first && isAbsoluteURL(in.Query)

	var fallback string
	switch {
	case next:
		fallback = s.NextURL()
		if fallback == "" {
			return mo.None[module.Resolved](), ErrNoNextPage
		}
	case hint != "":
		fallback = hint
	case isAbsoluteURL(in.Query):
		fallback = in.Query
	default:
		fallback = s.LastURL()
	}

	req, ok := block.Request.Get()
	switch {
	case !ok && (next || absolute || hint != ""):
		req = module.NewRequest(string(module.MethodGet), "", nil, mo.None[string]())
	case !ok:
		return mo.None[module.Resolved](), nil
	case next:
		req.URL = ""
	}

	if !req.Usable() {
		return mo.None[module.Resolved](), nil
	}

	var secrets module.SecretFunc
	if r.opts.Secrets != nil {
		secrets = r.opts.Secrets(m.ID())
	}

	resolved, err := req.Resolve(in.Query, fallback, secrets)
	if err != nil {
		return mo.None[module.Resolved](), failure.New(failure.Network, "runner.request", err)
	}
	return mo.Some(resolved), nil
}

func (r *Runner) fetch(ctx context.Context, req module.Resolved) (surface.Document, error) {
	httpCtx, cancel := context.WithTimeout(ctx, r.opts.Timeouts.HTTP)
	defer cancel()

	resp, err := r.fetcher.Do(httpCtx, req)
	if err != nil {
		if failure.KindOf(err) == failure.Unknown {
			err = failure.New(failure.Network, "runner.fetch", err)
		}
		return surface.Document{}, err
	}

	docURL := resp.URL
	if docURL == "" {
		docURL = req.URL
	}

	return surface.Document{URL: docURL, Body: resp.Body, ContentType: resp.ContentType}, nil
}

func (r *Runner) load(ctx context.Context, s surface.Surface, doc surface.Document, block module.ScriptBlock) error {
	readyCtx, cancel := context.WithTimeout(ctx, r.opts.Timeouts.Ready)
	defer cancel()

	policy := surface.Policy{
		AllowExternalScripts: block.AllowExternalScripts,
		AllowNetwork:         block.UsesAPI,
	}

	if err := s.Load(readyCtx, doc, policy); err != nil {
		return suspension(readyCtx, "surface.load", err)
	}
	if err := s.WaitReady(readyCtx); err != nil {
		return suspension(readyCtx, "surface.ready", err)
	}
	return nil
}

// suspension classifies an error returned while waiting on the surface.
func suspension(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return failure.New(failure.SurfaceTimeout, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
