package module

import (
	"testing"

	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScaffold(t *testing.T) {
	Convey("Given an empty modules directory", t, func() {
		filesystem.SetMemMapFs()

		opts := ScaffoldOptions{
			ID:      "example",
			Name:    `Example "Site"`,
			Subtype: "anime",
			Author:  "me",
			URL:     "https://example.com/",
		}

		Convey("A web module loads and resolves its search block", func() {
			m, err := Scaffold("/modules/example", opts)
			So(err, ShouldBeNil)
			So(m.Manifest.Name, ShouldEqual, `Example "Site"`)
			So(m.Manifest.EngineName(), ShouldEqual, constant.EngineWeb)

			bundles, err := m.Resolve("anime")
			So(err, ShouldBeNil)
			So(bundles.Search, ShouldHaveLength, 1)
			So(bundles.Home.Empty(), ShouldBeTrue)

			block := bundles.Search[0]
			So(block.Code, ShouldContainSubstring, constant.ContainerID)
			So(block.RemoveScripts, ShouldBeTrue)
			So(block.Request.MustGet().URL, ShouldEqual, "https://example.com/search?q="+constant.QueryPlaceholder)
		})

		Convey("A lua module gets a lua search block", func() {
			opts.Engine = constant.EngineLua
			m, err := Scaffold("/modules/example", opts)
			So(err, ShouldBeNil)

			bundles := lo.Must(m.Resolve("anime"))
			So(bundles.Search, ShouldHaveLength, 1)
			So(bundles.Search[0].Code, ShouldContainSubstring, "output.write")
		})

		Convey("An existing directory is left alone", func() {
			lo.Must0(filesystem.API().MkdirAll("/modules/example", 0o755))
			_, err := Scaffold("/modules/example", opts)
			So(err, ShouldNotBeNil)
		})

		Convey("Bad input is rejected before anything is written", func() {
			for _, bad := range []ScaffoldOptions{
				{ID: "x", Name: " ", Subtype: "anime", URL: "https://e.com"},
				{ID: "x", Name: "X", Subtype: "../up", URL: "https://e.com"},
				{ID: "x", Name: "X", Subtype: "anime", URL: "ftp://e.com"},
			} {
				_, err := Scaffold("/modules/x", bad)
				So(err, ShouldNotBeNil)
			}
			exists, _ := filesystem.API().Exists("/modules/x")
			So(exists, ShouldBeFalse)
		})

		Convey("An invalid id fails validation and cleans up", func() {
			opts.ID = "bad id"
			_, err := Scaffold("/modules/bad", opts)
			So(err, ShouldNotBeNil)
			exists, _ := filesystem.API().Exists("/modules/bad")
			So(exists, ShouldBeFalse)
		})
	})
}
