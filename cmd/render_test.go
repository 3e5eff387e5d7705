package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/anisan-cli/modhost/decode"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRender(t *testing.T) {
	Convey("Given decoded payloads", t, func() {
		var buf bytes.Buffer
		total := 12

		Convey("Search results are numbered with their urls", func() {
			render(&buf, decode.SearchResults{Items: []decode.SearchItem{
				{Title: "One <b>Piece</b>", URL: "https://e.com/op", Total: &total},
				{Title: "Naruto", URL: "https://e.com/n"},
			}}, 80)

			out := buf.String()
			So(out, ShouldContainSubstring, "One Piece")
			So(out, ShouldNotContainSubstring, "<b>")
			So(out, ShouldContainSubstring, "https://e.com/n")
			So(out, ShouldContainSubstring, "12")
		})

		Convey("Info descriptions are stripped of markup and unescaped", func() {
			render(&buf, decode.InfoDetail{
				Titles:      decode.Titles{Primary: "Show"},
				Description: "<p>Tom &amp; Jerry<script>alert(1)</script></p>",
				MediaList: []decode.EpisodeGroup{{Title: "Sub", List: []decode.Episode{
					{Number: 1.5, URL: "https://e.com/1"},
				}}},
			}, 80)

			out := buf.String()
			So(out, ShouldContainSubstring, "Tom & Jerry")
			So(out, ShouldNotContainSubstring, "alert")
			So(out, ShouldContainSubstring, "1.5")
		})

		Convey("Unrecognized output shows the raw text", func() {
			render(&buf, decode.Unrecognized{Text: "oops", Expected: decode.Media}, 80)
			So(buf.String(), ShouldContainSubstring, "media output did not match")
			So(buf.String(), ShouldContainSubstring, "oops")
		})

		Convey("JSON output round-trips the payload fields", func() {
			So(renderJSON(&buf, decode.MediaBundle{Sources: []decode.Source{{File: "https://e.com/a.m3u8"}}}), ShouldBeNil)

			var got map[string]any
			So(json.Unmarshal(buf.Bytes(), &got), ShouldBeNil)
			So(got, ShouldContainKey, "sources")
		})
	})
}

func TestPickSource(t *testing.T) {
	Convey("Given a bundle with two sources", t, func() {
		bundle := decode.MediaBundle{Sources: []decode.Source{{File: "a"}, {File: "b"}}}

		Convey("The flag picks a 1-based source", func() {
			index, err := pickSource(bundle, 2)
			So(err, ShouldBeNil)
			So(index, ShouldEqual, 1)
		})

		Convey("An out of range flag is an error", func() {
			_, err := pickSource(bundle, 3)
			So(err, ShouldNotBeNil)
		})

		Convey("A single source needs no prompt", func() {
			index, err := pickSource(decode.MediaBundle{Sources: bundle.Sources[:1]}, 0)
			So(err, ShouldBeNil)
			So(index, ShouldEqual, 0)
		})
	})

	Convey("A single server needs no prompt", t, func() {
		server, err := pickServer(decode.ServerList{Groups: []decode.ServerGroup{
			{Title: "Sub", List: []decode.Server{{Name: "vidstream", URL: "https://e.com/s"}}},
			{Title: "Dub"},
		}})
		So(err, ShouldBeNil)
		So(server.URL, ShouldEqual, "https://e.com/s")

		_, err = pickServer(decode.ServerList{})
		So(err, ShouldNotBeNil)
	})
}
