package util

import (
	"testing"

	"github.com/anisan-cli/modhost/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("file:name?.txt"), ShouldEqual, "file_name_.txt")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("file__name.txt"), ShouldEqual, "file_name.txt")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-file-name-"), ShouldEqual, "file-name")
		})
	})
}

func TestSlug(t *testing.T) {
	Convey("Slug", t, func() {
		So(Slug("  Anime Site "), ShouldEqual, "anime_site")
		So(Slug("Foo: Bar!"), ShouldEqual, "foo_bar")
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "file", "files"), ShouldEqual, "1 file")
		So(Quantify(2, "file", "files"), ShouldEqual, "2 files")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a directory tree", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		lo.Must0(fs.MkdirAll("/tmp/a/b", 0o755))
		lo.Must0(fs.WriteFile("/tmp/a/b/c.txt", []byte("x"), 0o644))

		So(Delete("/tmp/a"), ShouldBeNil)
		_, err := fs.Stat("/tmp/a/b/c.txt")
		So(err, ShouldNotBeNil)

		So(Delete("/tmp/missing"), ShouldNotBeNil)
	})
}
