package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestURL(t *testing.T) {
	Convey("Only web addresses are opened", t, func() {
		for _, raw := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "https://", "--help"} {
			So(URL(raw), ShouldNotBeNil)
		}
	})
}
