// Package network provides the HTTP collaborator module requests and package downloads go through.
package network

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/log"
	"github.com/anisan-cli/modhost/module"
)

// Options configure a Client.
type Options struct {
	Timeout time.Duration
	// Fingerprint routes TLS connections through a Chrome ClientHello.
	Fingerprint bool
	UserAgent   string
	// DNS names the resolver used for lookups, see Resolvers.
	DNS string
}

// Response is a fully read HTTP response.
type Response struct {
	Status      int
	URL         string
	ContentType string
	Header      http.Header
	Body        []byte
}

// Client performs HTTP requests on behalf of modules.
type Client struct {
	opts  Options
	plain *http.Client
	tls   *tlsTransport
}

// New returns a client configured with opts.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constant.UserAgent
	}

	dialer := &net.Dialer{
		Timeout:  30 * time.Second,
		Resolver: NewResolver(opts.DNS),
	}

	plain := &http.Client{
		Timeout:   opts.Timeout,
		Transport: newTransport(dialer),
	}

	c := &Client{opts: opts, plain: plain}

	if opts.Fingerprint {
		c.tls = newTLSTransport(dialer, opts.Timeout)
	}

	return c
}

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport(dialer *net.Dialer) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = dialer.DialContext
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}

// HTTP exposes a plain client for callers that stream bodies themselves.
func (c *Client) HTTP() *http.Client {
	return c.plain
}

// Do sends req and reads the whole response. Any transport error or a status
// of 400 and above is returned as a network failure.
func (c *Client) Do(ctx context.Context, req module.Resolved) (*Response, error) {
	const op = "network.do"

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	build := func() (*http.Request, error) {
		var body io.Reader
		if req.Body != "" {
			body = strings.NewReader(req.Body)
		}

		r, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, body)
		if err != nil {
			return nil, err
		}

		r.Header.Set("User-Agent", c.opts.UserAgent)
		r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Header.Set("Accept-Language", "en-US,en;q=0.5")
		for _, h := range req.Headers {
			r.Header.Set(h.Key, h.Value)
		}
		return r, nil
	}

	r, err := build()
	if err != nil {
		return nil, failure.New(failure.Network, op, fmt.Errorf("create request: %w", err))
	}

	log.Debugf("%s %s", req.Method, req.URL)

	var resp *http.Response
	if c.tls != nil && r.URL.Scheme == "https" {
		resp, err = c.tls.do(r, build)
	} else {
		resp, err = c.plain.Do(r)
	}
	if err != nil {
		return nil, failure.New(failure.Network, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.New(failure.Network, op, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, failure.Newf(failure.Network, op, "%s %s: %s", req.Method, req.URL, resp.Status)
	}

	return &Response{
		Status:      resp.StatusCode,
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
		Body:        data,
	}, nil
}

// Get is a shorthand for a GET request without extra headers.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, module.Resolved{Method: module.MethodGet, URL: url})
}
