package where

import (
	"path/filepath"
	"testing"

	"github.com/anisan-cli/modhost/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Modules()", func() {
			path := Modules()
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			So(filepath.Dir(path), ShouldEqual, Config())
		})

		Convey("Module(id) lives under Modules()", func() {
			So(Module("sample"), ShouldEqual, filepath.Join(Modules(), "sample"))
		})

		Convey("Logs()", func() {
			So(lo.Must(filesystem.API().IsDir(Logs())), ShouldBeTrue)
		})

		Convey("Temp()", func() {
			So(lo.Must(filesystem.API().IsDir(Temp())), ShouldBeTrue)
		})

		Convey("Queries() is a file under Cache()", func() {
			So(filepath.Dir(Queries()), ShouldEqual, Cache())
		})

		Convey("Preferences() is a file under Config()", func() {
			So(filepath.Dir(Preferences()), ShouldEqual, Config())
		})
	})
}
