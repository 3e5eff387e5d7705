package auth

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/zalando/go-keyring"
)

func TestSecrets(t *testing.T) {
	Convey("Given an in-memory keyring", t, func() {
		keyring.MockInit()

		Convey("Secrets are scoped per module", func() {
			So(SetSecret("a", "token", "one"), ShouldBeNil)
			So(SetSecret("b", "token", "two"), ShouldBeNil)

			v, err := Secret("a", "token")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "one")

			v, err = Lookup("b")("token")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "two")
		})

		Convey("Missing secrets report ErrNotFound", func() {
			_, err := Secret("a", "missing")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			So(SetSecret("a", "gone", "x"), ShouldBeNil)
			So(DeleteSecret("a", "gone"), ShouldBeNil)
			So(errors.Is(DeleteSecret("a", "gone"), ErrNotFound), ShouldBeTrue)
		})
	})
}
