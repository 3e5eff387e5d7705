package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// tlsTransport sends requests with a Chrome TLS fingerprint. HTTP/2 is tried
// first; servers that refuse it are retried over HTTP/1.1 with the same hello.
type tlsTransport struct {
	h2     *http.Client
	h1     *http.Client
	dialer *net.Dialer
}

func newTLSTransport(dialer *net.Dialer, timeout time.Duration) *tlsTransport {
	t := &tlsTransport{dialer: dialer}

	t.h2 = &http.Client{
		Timeout: timeout,
		Transport: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return t.dial(ctx, network, addr, nil)
			},
		},
	}

	t.h1 = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return t.dial(ctx, network, addr, []string{"http/1.1"})
			},
		},
	}

	return t
}

// do sends req over h2 and falls back to h1. build recreates the request
// because a body reader cannot be replayed.
func (t *tlsTransport) do(req *http.Request, build func() (*http.Request, error)) (*http.Response, error) {
	resp, err := t.h2.Do(req)
	if err == nil {
		return resp, nil
	}

	if req.Context().Err() != nil {
		return nil, err
	}

	retry, buildErr := build()
	if buildErr != nil {
		return nil, buildErr
	}

	resp, err = t.h1.Do(retry)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// dial opens a TLS connection mimicking Chrome's ClientHello. A nil protos
// keeps the hello's own ALPN list (h2 and http/1.1).
func (t *tlsTransport) dial(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := t.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
