package module

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/anisan-cli/modhost/filesystem"
	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleManifest = `{
  "id": "sample",
  "type": "video",
  "subtypes": ["anime"],
  "name": "Sample",
  "version": "1.0.0",
  "formatVersion": 2,
  "meta": {"author": "me", "baseUrl": "https://example.com"},
  "code": {"anime": {"search": "anime/search", "info": "anime/info"}}
}`

func writeModule(dir string, files map[string]string) {
	for name, content := range files {
		lo.Must0(filesystem.API().WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestLoad(t *testing.T) {
	Convey("Given a module directory", t, func() {
		filesystem.SetMemMapFs()
		dir := "/modules/sample"

		Convey("Without a manifest", func() {
			lo.Must0(filesystem.API().MkdirAll(dir, 0o755))
			_, err := Load(dir)
			So(errors.Is(err, ErrNoManifest), ShouldBeTrue)
		})

		Convey("With a JSON manifest and two ordered search blocks", func() {
			writeModule(dir, map[string]string{
				"manifest.json":      sampleManifest,
				"anime/search1.js":   "first()",
				"anime/search1.json": `{"removeScripts": true, "request": {"method": "get", "url": "https://example.com/s?q={{query}}", "headers": [{"key": "Referer", "value": "https://example.com"}, {"key": "", "value": "x"}]}}`,
				"anime/search2.js":   "second()",
				"anime/search4.js":   "unreachable()",
				"anime/info1.js":     "info()",
			})

			m, err := Load(dir)
			So(err, ShouldBeNil)
			So(m.ID(), ShouldEqual, "sample")

			bundles, err := m.Resolve("anime")
			So(err, ShouldBeNil)

			Convey("Blocks run in ordinal order and stop at the first gap", func() {
				So(bundles.Search, ShouldHaveLength, 2)
				So(bundles.Search[0].Code, ShouldEqual, "first()")
				So(bundles.Search[1].Code, ShouldEqual, "second()")
				So(bundles.Search[0].Name, ShouldEqual, "anime/search1")
			})

			Convey("Metadata is applied and blank headers are filtered", func() {
				b := bundles.Search[0]
				So(b.RemoveScripts, ShouldBeTrue)
				req, ok := b.Request.Get()
				So(ok, ShouldBeTrue)
				So(req.Method, ShouldEqual, MethodGet)
				So(req.Headers, ShouldHaveLength, 1)
				So(bundles.Search[1].Request.IsPresent(), ShouldBeFalse)
			})

			Convey("Undeclared features resolve to empty bundles", func() {
				So(bundles.Home, ShouldNotBeNil)
				So(bundles.Home.Empty(), ShouldBeTrue)
				So(bundles.Media.Empty(), ShouldBeTrue)
				So(bundles.Get(FeatureInfo), ShouldHaveLength, 1)
			})

			Convey("Unknown subtypes are rejected", func() {
				_, err := m.Resolve("manga")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("With a YAML manifest", func() {
			writeModule(dir, map[string]string{
				"manifest.yaml": "id: sample\nname: Sample\nversion: 1.0.0\nformatVersion: 1\nengine: lua\nsubtypes: [anime]\ncode:\n  anime:\n    search: anime/search\n",
				"anime/search1.lua": "output.write('x')",
			})

			m, err := Load(dir)
			So(err, ShouldBeNil)
			So(m.Manifest.EngineName(), ShouldEqual, "lua")

			bundles, err := m.Resolve("anime")
			So(err, ShouldBeNil)
			So(bundles.Search, ShouldHaveLength, 1)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Manifest validation", t, func() {
		m, err := ParseManifest([]byte(sampleManifest), "manifest.json")
		So(err, ShouldBeNil)
		So(m.Validate(), ShouldBeNil)

		Convey("rejects ids that are not directory safe", func() {
			m.ID = "../escape"
			So(m.Validate(), ShouldNotBeNil)
		})

		Convey("rejects unsupported format versions", func() {
			m.FormatVersion = 99
			So(m.Validate(), ShouldNotBeNil)
		})

		Convey("rejects code paths outside the module", func() {
			m.Code["anime"][FeatureSearch] = "../../etc/passwd"
			So(m.Validate(), ShouldNotBeNil)
		})

		Convey("rejects unknown engines", func() {
			m.Engine = "wasm"
			So(m.Validate(), ShouldNotBeNil)
		})
	})

	Convey("Schema describes the manifest", t, func() {
		s := Schema()
		So(s, ShouldNotBeNil)
		_, ok := s.Properties.Get("formatVersion")
		So(ok, ShouldBeTrue)
	})
}

func TestRequestResolve(t *testing.T) {
	Convey("Given a request with placeholders", t, func() {
		req := NewRequest("post", "https://example.com/search?q={{query}}&raw={{input}}",
			[]Header{{Key: "Authorization", Value: "Bearer ${secret:token}"}},
			mo.Some(`{"q":"{{query}}"}`))

		secrets := func(name string) (string, error) {
			if name == "token" {
				return "abc", nil
			}
			return "", errors.New("missing")
		}

		Convey("Resolve substitutes query, input, body and secrets", func() {
			r, err := req.Resolve("one piece", "", secrets)
			So(err, ShouldBeNil)
			So(r.Method, ShouldEqual, MethodPost)
			So(r.URL, ShouldEqual, "https://example.com/search?q=one+piece&raw=one piece")
			So(r.Body, ShouldEqual, `{"q":"one piece"}`)
			So(r.Headers[0].Value, ShouldEqual, "Bearer abc")
		})

		Convey("A missing secret fails resolution", func() {
			_, err := req.Resolve("x", "", func(string) (string, error) { return "", errors.New("nope") })
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a request without a url", t, func() {
		req := NewRequest("", "", nil, mo.None[string]())

		Convey("The fallback url is used verbatim", func() {
			r, err := req.Resolve("ignored", "https://example.com/page/2", nil)
			So(err, ShouldBeNil)
			So(r.URL, ShouldEqual, "https://example.com/page/2")
			So(r.Method, ShouldEqual, MethodGet)
		})

		Convey("No fallback is an error", func() {
			_, err := req.Resolve("x", "", nil)
			So(errors.Is(err, ErrNoURL), ShouldBeTrue)
		})
	})
}

func TestResolveImport(t *testing.T) {
	Convey("Given a module with a local helper", t, func() {
		filesystem.SetMemMapFs()
		writeModule("/m", map[string]string{"lib/util.js": "function util() {}"})
		m := &Module{Dir: "/m"}

		Convey("Local imports are read from the module", func() {
			imp, err := m.ResolveImport("lib/util.js")
			So(err, ShouldBeNil)
			So(imp.Remote(), ShouldBeFalse)
			So(imp.Code, ShouldContainSubstring, "util")
		})

		Convey("URL imports are left to the surface", func() {
			imp, err := m.ResolveImport("https://cdn.example.com/lib.js")
			So(err, ShouldBeNil)
			So(imp.Remote(), ShouldBeTrue)
		})

		Convey("Traversal is rejected", func() {
			_, err := m.ResolveImport("../other/secret.js")
			So(err, ShouldNotBeNil)
		})
	})
}
