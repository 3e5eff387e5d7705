package icon

import (
	"testing"

	"github.com/anisan-cli/modhost/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestGet(t *testing.T) {
	Convey("Given a registered icon", t, func() {
		Convey("Every icon renders in every variant", func() {
			for _, variant := range AvailableVariants() {
				viper.Set(key.IconsVariant, variant)
				for i := range icons {
					So(Get(i), ShouldNotBeEmpty)
				}
			}
		})

		Convey("An unknown variant falls back to plain", func() {
			viper.Set(key.IconsVariant, "sparkles")
			So(Get(Success), ShouldEqual, "OK")
		})

		Convey("An unregistered icon renders nothing", func() {
			viper.Set(key.IconsVariant, plain)
			So(Get(Icon(0)), ShouldBeEmpty)
		})
	})
}
