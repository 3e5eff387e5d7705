package query

import (
	"testing"

	"github.com/anisan-cli/modhost/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHistory(t *testing.T) {
	Convey("Given a query history", t, func() {
		filesystem.SetMemMapFs()
		h := New("/cache/queries.json")

		So(h.Remember("alpha", "Naruto", 1), ShouldBeNil)
		So(h.Remember("alpha", "  BLEACH ", 10), ShouldBeNil)
		So(h.Remember("alpha", "bleach brave souls", 2), ShouldBeNil)
		So(h.Remember("beta", "berserk", 1), ShouldBeNil)

		Convey("Suggestions are ranked and sanitized", func() {
			So(h.SuggestMany("alpha", "ble"), ShouldResemble, []string{"bleach", "bleach brave souls"})
			So(h.Suggest("alpha", "NAR").MustGet(), ShouldEqual, "naruto")
		})

		Convey("Remembering again raises the rank", func() {
			So(h.Remember("alpha", "bleach brave souls", 20), ShouldBeNil)
			So(h.SuggestMany("alpha", "ble")[0], ShouldEqual, "bleach brave souls")
		})

		Convey("Histories are kept per module", func() {
			So(h.SuggestMany("beta", "b"), ShouldResemble, []string{"berserk"})
			So(h.Suggest("gamma", "b").IsPresent(), ShouldBeFalse)
		})

		Convey("History survives reopening", func() {
			So(New("/cache/queries.json").SuggestMany("alpha", "nar"), ShouldResemble, []string{"naruto"})
		})

		Convey("Blank queries are ignored", func() {
			So(h.Remember("alpha", "   ", 5), ShouldBeNil)
			So(h.SuggestMany("alpha", ""), ShouldHaveLength, 3)
		})
	})
}
