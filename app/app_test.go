package app

import (
	"testing"

	"github.com/anisan-cli/modhost/filesystem"
	"github.com/anisan-cli/modhost/network"
	"github.com/anisan-cli/modhost/prefs"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func testOptions() Options {
	return Options{
		ModulesDir: "/data/modules",
		TempDir:    "/tmp/modhost",
		PrefsPath:  "/data/prefs.json",
		Network:    network.Options{DNS: network.DNSSystem},
	}
}

func TestNew(t *testing.T) {
	Convey("Given an empty data directory", t, func() {
		filesystem.SetMemMapFs()

		a := New(testOptions())

		Convey("Every service is built", func() {
			So(a.Prefs, ShouldNotBeNil)
			So(a.Client, ShouldNotBeNil)
			So(a.Installer, ShouldNotBeNil)
			So(a.Runner, ShouldNotBeNil)
			So(a.Media, ShouldNotBeNil)
			So(a.Registry.Dir(), ShouldEqual, "/data/modules")
		})

		Convey("Nothing is selected", func() {
			_, ok := a.Registry.Selected()
			So(ok, ShouldBeFalse)
		})

		Convey("Close is safe to call twice", func() {
			So(a.Close(), ShouldBeNil)
			So(a.Close(), ShouldBeNil)
		})
	})

	Convey("Given a stored DNS preference", t, func() {
		filesystem.SetMemMapFs()
		lo.Must0(prefs.New("/data/prefs.json").Set(prefs.DNS, "quad9"))

		a := New(testOptions())
		defer a.Close()

		dns, ok, err := a.Prefs.Get(prefs.DNS)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(dns, ShouldEqual, "quad9")
	})
}
