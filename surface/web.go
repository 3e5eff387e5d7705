package surface

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/anisan-cli/modhost/extract"
	"github.com/anisan-cli/modhost/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Web runs module code in a headless Chrome page driven over CDP.
type Web struct {
	*State
	cfg Config

	mu      sync.Mutex
	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	imports map[string]bool
}

// NewWeb returns a web surface. The browser is started on first use.
func NewWeb(cfg Config, state *State) *Web {
	if state == nil {
		state = &State{}
	}
	return &Web{State: state, cfg: cfg, imports: make(map[string]bool)}
}

func (w *Web) ensure() (*rod.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.page != nil {
		return w.page, nil
	}

	controlURL := w.cfg.RemoteURL
	if controlURL == "" {
		l := launcher.New().
			Headless(w.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
		w.lnch = l
		log.Infof("launched local browser at %s", u)
	} else {
		log.Infof("connecting to remote browser at %s", controlURL)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		w.cleanupLocked()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	w.browser = b

	var (
		page *rod.Page
		err  error
	)
	if w.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		w.cleanupLocked()
		return nil, fmt.Errorf("create page: %w", err)
	}

	w.page = page
	return page, nil
}

// Load navigates the page to doc.URL and answers that navigation with doc.Body
// instead of hitting the network, so relative links resolve against the real URL.
func (w *Web) Load(ctx context.Context, doc Document, policy Policy) error {
	page, err := w.ensure()
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.router != nil {
		if err := w.router.Stop(); err != nil {
			log.Warnf("stop previous router: %v", err)
		}
		w.router = nil
	}
	w.imports = make(map[string]bool)
	w.mu.Unlock()

	target := normalizeURL(doc.URL)
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}

	router := page.HijackRequests()
	err = router.Add("*", "", func(h *rod.Hijack) {
		requested := h.Request.URL().String()

		if h.Request.Type() == proto.NetworkResourceTypeDocument && normalizeURL(requested) == target {
			h.Response.SetHeader("Content-Type", contentType)
			h.Response.Payload().ResponseCode = 200
			h.Response.SetBody(doc.Body)
			return
		}

		if w.blocked(h.Request.Type(), requested, target, policy) {
			log.Debugf("blocked %s %s", h.Request.Type(), requested)
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return fmt.Errorf("hijack requests: %w", err)
	}
	go router.Run()

	w.mu.Lock()
	w.router = router
	w.mu.Unlock()

	if err := page.Context(ctx).Navigate(doc.URL); err != nil {
		return fmt.Errorf("navigate %s: %w", doc.URL, err)
	}

	w.setLast(doc.URL)
	return nil
}

func (w *Web) blocked(kind proto.NetworkResourceType, requested, document string, policy Policy) bool {
	w.mu.Lock()
	imported := w.imports[requested]
	w.mu.Unlock()

	if imported {
		return false
	}

	return blockedResource(kind, requested, document, policy)
}

func blockedResource(kind proto.NetworkResourceType, requested, document string, policy Policy) bool {
	switch kind {
	case proto.NetworkResourceTypeScript:
		return !policy.AllowExternalScripts && !sameOrigin(requested, document)
	case proto.NetworkResourceTypeXHR, proto.NetworkResourceTypeFetch,
		proto.NetworkResourceTypeWebSocket, proto.NetworkResourceTypeEventSource:
		return !policy.AllowNetwork
	default:
		return false
	}
}

// WaitReady waits for the load event of the current document.
func (w *Web) WaitReady(ctx context.Context) error {
	page, err := w.ensure()
	if err != nil {
		return err
	}
	return page.Context(ctx).WaitLoad()
}

func (w *Web) PrepareContainer(ctx context.Context) error {
	_, err := w.evaluate(ctx, extract.EnsureContainerJS, true)
	return err
}

func (w *Web) RemoveScripts(ctx context.Context) error {
	_, err := w.evaluate(ctx, extract.RemoveScriptsJS, true)
	return err
}

// Inject evaluates code and waits for it, and for any promise it returns, to settle.
// An exception thrown by the code is logged and swallowed.
func (w *Web) Inject(ctx context.Context, code string) error {
	_, err := w.evaluate(ctx, code, false)
	return err
}

// ImportURL loads an external script into the document.
func (w *Web) ImportURL(ctx context.Context, src string) error {
	w.mu.Lock()
	w.imports[src] = true
	w.mu.Unlock()

	_, err := w.evaluate(ctx, extract.ImportJS(src), true)
	return err
}

// Collect returns the text of every line in the reserved container.
func (w *Web) Collect(ctx context.Context) ([]string, error) {
	res, err := w.evaluate(ctx, extract.CollectJS, true)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, v := range res.Value.Arr() {
		lines = append(lines, v.Str())
	}
	return lines, nil
}

var errScript = errors.New("script error")

// evaluate runs expr in the page. With strict, a thrown exception is returned
// as an error; otherwise it is only logged.
func (w *Web) evaluate(ctx context.Context, expr string, strict bool) (*proto.RuntimeRemoteObject, error) {
	page, err := w.ensure()
	if err != nil {
		return nil, err
	}

	res, err := proto.RuntimeEvaluate{
		Expression:    expr,
		AwaitPromise:  true,
		ReturnByValue: true,
	}.Call(page.Context(ctx))
	if err != nil {
		return nil, err
	}

	if res.ExceptionDetails != nil {
		msg := res.ExceptionDetails.Text
		if res.ExceptionDetails.Exception != nil && res.ExceptionDetails.Exception.Description != "" {
			msg = res.ExceptionDetails.Exception.Description
		}
		if strict {
			return nil, fmt.Errorf("%w: %s", errScript, msg)
		}
		log.Warnf("module script threw: %s", msg)
	}

	return res.Result, nil
}

// Close shuts down the page and the browser.
func (w *Web) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cleanupLocked()
}

func (w *Web) cleanupLocked() error {
	var firstErr error

	if w.router != nil {
		if err := w.router.Stop(); err != nil {
			firstErr = err
		}
		w.router = nil
	}
	if w.page != nil {
		if err := w.page.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		w.page = nil
	}
	if w.browser != nil {
		if err := w.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		w.browser = nil
	}
	if w.lnch != nil {
		w.lnch.Cleanup()
		w.lnch = nil
	}

	return firstErr
}

func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

func sameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Scheme == ub.Scheme && ua.Host == ub.Host
}
