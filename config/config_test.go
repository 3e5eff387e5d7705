package config

import (
	"testing"

	"github.com/anisan-cli/modhost/filesystem"
	"github.com/anisan-cli/modhost/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without a config file", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should populate defaults", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetInt(key.SurfaceReadyTimeout), ShouldEqual, 30)
			So(viper.GetBool(key.HTTPFingerprint), ShouldBeTrue)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("surface.ready_timeout"), ShouldEqual, "surface_ready_timeout")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.SurfaceRemoteURL]

		Convey("Env should be prefixed with the application name", func() {
			So(field.Env(), ShouldEqual, "MODHOST_SURFACE_REMOTE_URL")
		})

		Convey("typeName should reflect the default value", func() {
			So(field.typeName(), ShouldEqual, "string")
			timeout := Default[key.SurfaceScriptTimeout]
			So(timeout.typeName(), ShouldEqual, "int")
		})
	})
}
