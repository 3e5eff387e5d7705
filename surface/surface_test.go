package surface

import (
	"context"
	"testing"
	"time"

	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/network"
	"github.com/go-rod/rod/lib/proto"
	. "github.com/smartystreets/goconvey/convey"
)

type stubFetcher struct{}

func (stubFetcher) Do(_ context.Context, req module.Resolved) (*network.Response, error) {
	return &network.Response{Status: 200, URL: req.URL, Body: []byte(`output.write("imported")`)}, nil
}

func TestState(t *testing.T) {
	Convey("State is last-write-wins", t, func() {
		s := &State{}
		So(s.NextURL(), ShouldBeEmpty)
		s.SetNextURL("a")
		s.SetNextURL("b")
		So(s.NextURL(), ShouldEqual, "b")
		s.setLast("https://example.com")
		So(s.LastURL(), ShouldEqual, "https://example.com")
	})
}

func TestLua(t *testing.T) {
	Convey("Given a Lua surface with a loaded document", t, func() {
		ctx := context.Background()
		s := NewLua(stubFetcher{}, nil)
		defer s.Close()

		doc := Document{
			URL:  "https://example.com/list",
			Body: []byte(`<html><body><ul><li><a href="/a">A</a></li><li><a href="/b">B</a></li></ul><script>evil()</script></body></html>`),
		}
		So(s.Load(ctx, doc, Policy{}), ShouldBeNil)
		So(s.WaitReady(ctx), ShouldBeNil)
		So(s.PrepareContainer(ctx), ShouldBeNil)
		So(s.LastURL(), ShouldEqual, doc.URL)

		Convey("Scripts read the document and write output lines", func() {
			code := `
for _, a in ipairs(document.select("li a")) do
  output.write(a.text .. "=" .. a.attrs.href)
end
output.write(document.url())`
			So(s.Inject(ctx, code), ShouldBeNil)

			lines, err := s.Collect(ctx)
			So(err, ShouldBeNil)
			So(lines, ShouldResemble, []string{"A=/a", "B=/b", "https://example.com/list"})
		})

		Convey("Markup written to output is kept as text", func() {
			So(s.Inject(ctx, `output.write("<b>x</b>")`), ShouldBeNil)
			lines, _ := s.Collect(ctx)
			So(lines, ShouldResemble, []string{"<b>x</b>"})
		})

		Convey("Preparing the container again empties it", func() {
			So(s.Inject(ctx, `output.write("old")`), ShouldBeNil)
			So(s.PrepareContainer(ctx), ShouldBeNil)
			lines, _ := s.Collect(ctx)
			So(lines, ShouldBeEmpty)
		})

		Convey("Document scripts can be removed", func() {
			So(s.RemoveScripts(ctx), ShouldBeNil)
			So(s.Inject(ctx, `
local h = document.html()
if string.find(h, "evil") then output.write("present") else output.write("gone") end`), ShouldBeNil)
			lines, _ := s.Collect(ctx)
			So(lines, ShouldResemble, []string{"gone"})
		})

		Convey("Script errors are swallowed and partial output is kept", func() {
			So(s.Inject(ctx, `output.write("partial") error("boom")`), ShouldBeNil)
			lines, _ := s.Collect(ctx)
			So(lines, ShouldResemble, []string{"partial"})
		})

		Convey("A script that outlives its context is reported", func() {
			tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			So(s.Inject(tctx, `while true do end`), ShouldNotBeNil)
		})

		Convey("Globals of one block are gone in the next", func() {
			So(s.Inject(ctx, `token = "secret"`), ShouldBeNil)
			So(s.PrepareContainer(ctx), ShouldBeNil)
			So(s.Inject(ctx, `output.write(tostring(token))`), ShouldBeNil)

			lines, _ := s.Collect(ctx)
			So(lines, ShouldResemble, []string{"nil"})
		})

		Convey("Code injected for the same block shares its globals", func() {
			So(s.Inject(ctx, `function greet() return "hi" end`), ShouldBeNil)
			So(s.Inject(ctx, `output.write(greet())`), ShouldBeNil)

			lines, _ := s.Collect(ctx)
			So(lines, ShouldResemble, []string{"hi"})
		})

		Convey("Returned values are not left on the stack", func() {
			for i := 0; i < 3; i++ {
				So(s.Inject(ctx, `return 1, 2, 3`), ShouldBeNil)
			}
			So(s.ls.GetTop(), ShouldEqual, 0)
		})

		Convey("Remote imports run before the block", func() {
			So(s.ImportURL(ctx, "https://cdn.example.com/lib.lua"), ShouldBeNil)
			lines, _ := s.Collect(ctx)
			So(lines, ShouldResemble, []string{"imported"})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool", t, func() {
		p := NewPool(Config{}, stubFetcher{})
		defer p.Close()

		Convey("Surfaces are created once per engine and share state", func() {
			a, err := p.Get(constant.EngineLua)
			So(err, ShouldBeNil)
			b, err := p.Get(constant.EngineLua)
			So(err, ShouldBeNil)
			So(a, ShouldEqual, b)

			a.SetNextURL("next")
			So(p.State().NextURL(), ShouldEqual, "next")
		})

		Convey("Unknown engines are rejected", func() {
			_, err := p.Get("wasm")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPolicy(t *testing.T) {
	Convey("Resource blocking", t, func() {
		doc := "https://example.com/page"

		So(blockedResource(proto.NetworkResourceTypeScript, "https://cdn.other.com/x.js", doc, Policy{}), ShouldBeTrue)
		So(blockedResource(proto.NetworkResourceTypeScript, "https://example.com/x.js", doc, Policy{}), ShouldBeFalse)
		So(blockedResource(proto.NetworkResourceTypeScript, "https://cdn.other.com/x.js", doc, Policy{AllowExternalScripts: true}), ShouldBeFalse)
		So(blockedResource(proto.NetworkResourceTypeXHR, "https://example.com/api", doc, Policy{}), ShouldBeTrue)
		So(blockedResource(proto.NetworkResourceTypeFetch, "https://example.com/api", doc, Policy{AllowNetwork: true}), ShouldBeFalse)
		So(blockedResource(proto.NetworkResourceTypeImage, "https://img.other.com/a.png", doc, Policy{}), ShouldBeFalse)
	})

	Convey("Document URLs are compared without fragments", t, func() {
		So(normalizeURL("https://example.com"), ShouldEqual, "https://example.com/")
		So(normalizeURL("https://example.com/a#top"), ShouldEqual, "https://example.com/a")
	})
}
