package notify

import (
	"errors"
	"testing"

	"github.com/anisan-cli/modhost/failure"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNotifier(t *testing.T) {
	Convey("Given a notifier with a subscriber", t, func() {
		n := New()
		ch := n.Subscribe(2)

		Convey("Failures carry their kind", func() {
			n.Failure(failure.New(failure.Decode, "search", errors.New("bad shape")))
			msg := <-ch
			So(msg.Level, ShouldEqual, LevelError)
			So(msg.Kind, ShouldEqual, failure.Decode)
			So(msg.Text, ShouldContainSubstring, "bad shape")
		})

		Convey("A nil failure publishes nothing", func() {
			n.Failure(nil)
			So(len(ch), ShouldEqual, 0)
		})

		Convey("A full subscriber drops instead of blocking", func() {
			n.Info("a")
			n.Info("b")
			n.Info("c")
			So(len(ch), ShouldEqual, 2)
		})

		Convey("Close closes subscribers", func() {
			n.Close()
			_, ok := <-ch
			So(ok, ShouldBeFalse)
			n.Info("after close")
		})
	})
}
