package player

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/anisan-cli/modhost/decode"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSeeker struct {
	seeks []float64
	err   error
}

func (f *fakeSeeker) Seek(seconds float64) error {
	f.seeks = append(f.seeks, seconds)
	return f.err
}

func TestArgs(t *testing.T) {
	Convey("Given a stream with headers and subtitles", t, func() {
		s := Stream{
			URL:       "https://cdn.example.com/ep1.m3u8",
			Title:     "Episode\n1",
			Headers:   map[string]string{"Referer": "https://example.com", "Cookie": "a=1,b=2"},
			Subtitles: []string{"https://cdn.example.com/en.vtt", "-o=/etc/passwd", ""},
		}

		Convey("mpv gets sorted headers, safe subtitles and the target after --", func() {
			args, err := mpvArgs("/tmp/x.sock", s)
			So(err, ShouldBeNil)
			So(args, ShouldContain, "--input-ipc-server=/tmp/x.sock")
			So(args, ShouldContain, "--force-media-title=Episode 1")
			So(args, ShouldContain, "--http-header-fields=Cookie: a=1%2Cb=2,Referer: https://example.com")
			So(args, ShouldContain, "--sub-file=https://cdn.example.com/en.vtt")
			So(strings.Join(args, " "), ShouldNotContainSubstring, "passwd")
			So(args[len(args)-2:], ShouldResemble, []string{"--", "https://cdn.example.com/ep1.m3u8"})
		})

		Convey("iina forwards the same options with the mpv prefix", func() {
			args, err := iinaArgs(s)
			So(err, ShouldBeNil)
			So(args[:3], ShouldResemble, []string{"-a", "IINA", "--args"})
			So(args, ShouldContain, "--mpv-sub-file=https://cdn.example.com/en.vtt")
			So(args[len(args)-1], ShouldEqual, s.URL)
		})

		Convey("unsafe targets are refused", func() {
			for _, target := range []string{"", "--script=evil.lua", "file:///etc/passwd", "https://x\n--y"} {
				s.URL = target
				_, err := mpvArgs("/tmp/x.sock", s)
				So(err, ShouldNotBeNil)
			}
		})
	})

	Convey("Local paths are cleaned", t, func() {
		target, err := sanitizeMediaTarget(" ./videos/../videos/ep1.mkv ")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, "videos/ep1.mkv")
	})
}

func TestStreamFrom(t *testing.T) {
	Convey("Given a resolved media bundle", t, func() {
		bundle := decode.MediaBundle{
			Sources:   []decode.Source{{File: "https://a/1.m3u8"}, {File: "https://a/2.mp4"}},
			Subtitles: []decode.Subtitle{{URL: "https://a/en.vtt", Language: "en"}, {URL: " "}},
			SkipTimes: []decode.SkipTime{{Start: 10, End: 90, Type: "op"}},
		}

		s, err := StreamFrom(bundle, 1, "Ep", map[string]string{"Referer": "https://a"})
		So(err, ShouldBeNil)
		So(s.URL, ShouldEqual, "https://a/2.mp4")
		So(s.Subtitles, ShouldResemble, []string{"https://a/en.vtt"})
		So(s.Skips, ShouldHaveLength, 1)

		_, err = StreamFrom(bundle, 2, "Ep", nil)
		So(err, ShouldNotBeNil)
	})

	Convey("Unknown players are rejected", t, func() {
		_, err := New("vlc")
		So(err, ShouldNotBeNil)

		p, err := New("MPV")
		So(err, ShouldBeNil)
		So(p, ShouldHaveSameTypeAs, &MPV{})
	})
}

func TestSkipper(t *testing.T) {
	Convey("Given skip ranges", t, func() {
		seeker := &fakeSeeker{}
		skipper := NewSkipper(seeker, []decode.SkipTime{
			{Start: 1300, End: 1390, Type: "ed"},
			{Start: 30, End: 120, Type: "op"},
			{Start: 50, End: 40, Type: "broken"},
		})

		Convey("a position inside a range seeks to its end", func() {
			skipped, err := skipper.Check(45)
			So(err, ShouldBeNil)
			So(skipped, ShouldBeTrue)
			So(seeker.seeks, ShouldResemble, []float64{120})
		})

		Convey("a position outside every range does nothing", func() {
			skipped, _ := skipper.Check(120)
			So(skipped, ShouldBeFalse)
			So(seeker.seeks, ShouldBeEmpty)
		})

		Convey("seek failures are returned", func() {
			seeker.err = errors.New("ipc down")
			_, err := skipper.Check(1300)
			So(err, ShouldNotBeNil)
		})

		Convey("chapters mark each valid range in order", func() {
			chapters := skipper.Chapters()
			So(chapters, ShouldHaveLength, 5)
			So(chapters[1]["title"], ShouldEqual, "Opening")
			So(chapters[1]["time"], ShouldEqual, 30.0)
			So(chapters[3]["title"], ShouldEqual, "Ending")
		})
	})
}

func TestIPC(t *testing.T) {
	Convey("Replies are read past interleaved events", t, func() {
		r := bufio.NewReader(strings.NewReader(
			`{"event":"property-change","name":"time-pos","data":3}` + "\n" +
				`{"data":12.5,"error":"success"}` + "\n"))

		data, err := readReply(r)
		So(err, ShouldBeNil)
		So(data, ShouldEqual, 12.5)
	})

	Convey("mpv errors are surfaced", t, func() {
		_, err := readReply(bufio.NewReader(strings.NewReader(`{"error":"property unavailable"}` + "\n")))
		So(err, ShouldNotBeNil)
	})

	Convey("The listener forwards property changes only", t, func() {
		var got []string
		el := NewEventListener("/nonexistent", func(property string, _ any) {
			got = append(got, property)
		})

		el.processEvent([]byte(`{"event":"property-change","name":"time-pos","data":4.2}`))
		el.processEvent([]byte(`{"data":null,"error":"success"}`))
		el.processEvent([]byte(`{"event":"end-file"}`))
		el.processEvent([]byte(`not json`))

		So(got, ShouldResemble, []string{"time-pos", "end-file"})
		So(el.Start(), ShouldNotBeNil)
	})
}
