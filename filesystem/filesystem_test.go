package filesystem

import (
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})
	})
}

func TestCopyTree(t *testing.T) {
	Convey("Given a source tree on another filesystem", t, func() {
		SetMemMapFs()
		src := afero.NewMemMapFs()
		lo.Must0(afero.WriteFile(src, "/pkg/manifest.json", []byte(`{}`), 0o644))
		lo.Must0(afero.WriteFile(src, "/pkg/anime/search1.js", []byte(`1`), 0o644))

		Convey("CopyTree reproduces it under the destination", func() {
			So(CopyTree(src, "/pkg", "/dst"), ShouldBeNil)

			data, err := API().ReadFile(filepath.Join("/dst", "anime", "search1.js"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "1")
			So(lo.Must(API().Exists("/dst/manifest.json")), ShouldBeTrue)
		})
	})
}

func TestMove(t *testing.T) {
	Convey("Given a directory", t, func() {
		SetMemMapFs()
		lo.Must0(API().WriteFile("/work/a/file.txt", []byte("x"), 0o644))

		Convey("Move relocates it", func() {
			So(Move("/work/a", "/final/a"), ShouldBeNil)
			So(lo.Must(API().Exists("/final/a/file.txt")), ShouldBeTrue)
			So(lo.Must(API().Exists("/work/a")), ShouldBeFalse)
		})
	})
}
