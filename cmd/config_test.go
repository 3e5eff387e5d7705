package cmd

import (
	"testing"

	"github.com/anisan-cli/modhost/config"
	"github.com/anisan-cli/modhost/key"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseConfigValue(t *testing.T) {
	Convey("Given config fields", t, func() {
		Convey("Values take the type of the default", func() {
			v, err := parseConfigValue(config.Default[key.SurfaceHeadless], []string{"false"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, false)

			v, err = parseConfigValue(config.Default[key.HTTPTimeout], []string{"15"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 15)
		})

		Convey("Timeouts must be positive", func() {
			_, err := parseConfigValue(config.Default[key.SurfaceReadyTimeout], []string{"0"})
			So(err, ShouldNotBeNil)
		})

		Convey("Malformed values are rejected", func() {
			_, err := parseConfigValue(config.Default[key.LogsWrite], []string{"maybe"})
			So(err, ShouldNotBeNil)

			_, err = parseConfigValue(config.Default[key.HTTPTimeout], nil)
			So(err, ShouldNotBeNil)
		})

		Convey("Keys with choices only accept them", func() {
			v, err := parseConfigValue(config.Default[key.Player], []string{"iina"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "iina")

			_, err = parseConfigValue(config.Default[key.Player], []string{"vlc"})
			So(err, ShouldNotBeNil)

			_, err = parseConfigValue(config.Default[key.LogsLevel], []string{"debug"})
			So(err, ShouldBeNil)
		})

		Convey("Unknown keys suggest the closest one", func() {
			_, err := lookupField("player.defualt")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, key.Player)
		})
	})
}
