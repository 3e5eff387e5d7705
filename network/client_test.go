package network

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/module"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given a test server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/echo":
				body, _ := io.ReadAll(r.Body)
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte(r.Method + " " + r.Header.Get("X-Test") + " " + r.Header.Get("User-Agent") + " " + string(body)))
			case "/slow":
				time.Sleep(200 * time.Millisecond)
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		c := New(Options{Timeout: time.Second, UserAgent: "modhost-test"})

		Convey("Do sends method, headers and body", func() {
			resp, err := c.Do(context.Background(), module.Resolved{
				Method:  module.MethodPost,
				URL:     srv.URL + "/echo",
				Headers: []module.Header{{Key: "X-Test", Value: "yes"}},
				Body:    "payload",
			})
			So(err, ShouldBeNil)
			So(resp.Status, ShouldEqual, http.StatusOK)
			So(string(resp.Body), ShouldEqual, "POST yes modhost-test payload")
			So(resp.ContentType, ShouldEqual, "text/plain")
		})

		Convey("Error statuses are network failures", func() {
			_, err := c.Get(context.Background(), srv.URL+"/missing")
			So(failure.Is(err, failure.Network), ShouldBeTrue)
		})

		Convey("The caller's deadline is honoured", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err := c.Get(ctx, srv.URL+"/slow")
			So(failure.Is(err, failure.Network), ShouldBeTrue)
		})
	})
}

func TestDNS(t *testing.T) {
	Convey("DNS choices", t, func() {
		So(DNSChoices()[0], ShouldEqual, DNSSystem)
		So(ValidDNS("cloudflare"), ShouldBeTrue)
		So(ValidDNS("nope"), ShouldBeFalse)
		So(NewResolver(DNSSystem), ShouldBeNil)
		So(NewResolver("quad9"), ShouldNotBeNil)
	})
}
