package module

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/anisan-cli/modhost/constant"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Method is an HTTP verb a request descriptor may declare.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Valid reports whether m is one of the supported verbs.
func (m Method) Valid() bool {
	return lo.Contains([]Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions}, m)
}

// Header is a single request header.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Request is the declarative HTTP request a script block runs against.
// An empty URL means "reuse the URL the surface holds".
type Request struct {
	Method  Method
	URL     string
	Headers []Header
	Body    mo.Option[string]
}

// NewRequest builds a request descriptor, normalizing the method and dropping blank headers.
func NewRequest(method, rawURL string, headers []Header, body mo.Option[string]) Request {
	m := Method(strings.ToUpper(strings.TrimSpace(method)))
	if m == "" {
		m = MethodGet
	}

	return Request{
		Method: m,
		URL:    strings.TrimSpace(rawURL),
		Headers: lo.Filter(headers, func(h Header, _ int) bool {
			return strings.TrimSpace(h.Key) != "" && strings.TrimSpace(h.Value) != ""
		}),
		Body: body,
	}
}

// Usable reports whether the descriptor can be sent at all.
func (r Request) Usable() bool {
	return r.Method.Valid()
}

// Resolved is a request with placeholders and secrets substituted, ready to send.
type Resolved struct {
	Method  Method
	URL     string
	Headers []Header
	Body    string
}

// SecretFunc looks up a named secret for header substitution.
type SecretFunc func(name string) (string, error)

// ErrNoURL is returned when neither the descriptor nor the fallback provide a URL.
var ErrNoURL = errors.New("request has no url and no fallback is available")

var secretPattern = regexp.MustCompile(`\$\{secret:([A-Za-z0-9_.-]+)\}`)

// Resolve substitutes the per-call input into the descriptor. {{query}} is
// query-escaped in the URL, {{input}} is inserted verbatim; the body receives
// both verbatim. When the descriptor has no URL, fallback is used as is.
func (r Request) Resolve(input, fallback string, secret SecretFunc) (Resolved, error) {
	target := r.URL
	if target == "" {
		target = fallback
	} else {
		target = strings.ReplaceAll(target, constant.QueryPlaceholder, url.QueryEscape(input))
		target = strings.ReplaceAll(target, constant.InputPlaceholder, input)
	}

	if target == "" {
		return Resolved{}, ErrNoURL
	}

	if _, err := url.ParseRequestURI(target); err != nil {
		return Resolved{}, fmt.Errorf("invalid request url %q: %w", target, err)
	}

	headers := make([]Header, 0, len(r.Headers))
	for _, h := range r.Headers {
		value, err := expandSecrets(h.Value, secret)
		if err != nil {
			return Resolved{}, fmt.Errorf("header %s: %w", h.Key, err)
		}
		headers = append(headers, Header{Key: h.Key, Value: value})
	}

	body := r.Body.OrEmpty()
	body = strings.ReplaceAll(body, constant.QueryPlaceholder, input)
	body = strings.ReplaceAll(body, constant.InputPlaceholder, input)

	return Resolved{
		Method:  r.Method,
		URL:     target,
		Headers: headers,
		Body:    body,
	}, nil
}

func expandSecrets(value string, secret SecretFunc) (string, error) {
	var firstErr error

	expanded := secretPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := secretPattern.FindStringSubmatch(match)[1]
		if secret == nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("secret %q requested but no secret store is configured", name)
			}
			return ""
		}

		v, err := secret(name)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("secret %q: %w", name, err)
		}
		return v
	})

	return expanded, firstErr
}
