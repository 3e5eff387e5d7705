package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFailure(t *testing.T) {
	Convey("Given a wrapped failure", t, func() {
		base := New(SurfaceTimeout, "wait ready", context.DeadlineExceeded)
		err := fmt.Errorf("search: %w", base)

		Convey("KindOf finds it through the chain", func() {
			So(KindOf(err), ShouldEqual, SurfaceTimeout)
			So(Is(err, SurfaceTimeout), ShouldBeTrue)
			So(Is(err, Network), ShouldBeFalse)
		})

		Convey("The cause stays reachable", func() {
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("The message names the operation and kind", func() {
			So(base.Error(), ShouldEqual, "wait ready: surface timeout: context deadline exceeded")
		})
	})

	Convey("Plain errors have no kind", t, func() {
		So(KindOf(errors.New("x")), ShouldEqual, Unknown)
		So(Is(nil, Unknown), ShouldBeFalse)
	})
}
