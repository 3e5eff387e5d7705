package media

import (
	"context"
	"errors"
	"testing"

	"github.com/anisan-cli/modhost/decode"
	"github.com/anisan-cli/modhost/failure"
	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/notify"
	"github.com/anisan-cli/modhost/registry"
	"github.com/anisan-cli/modhost/runner"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	bundle module.Bundle
	in     runner.Input
	family decode.Family
}

type fakeRunner struct {
	calls []call
	res   decode.Result
	err   error
}

func (f *fakeRunner) Exec(_ context.Context, _ *module.Module, bundle module.Bundle, in runner.Input, family decode.Family) (decode.Result, error) {
	f.calls = append(f.calls, call{bundle: bundle, in: in, family: family})
	return f.res, f.err
}

type fakeSelector struct {
	selection *registry.Selection
}

func (f fakeSelector) Selected() (*registry.Selection, bool) {
	return f.selection, f.selection != nil
}

func selection() *registry.Selection {
	return &registry.Selection{
		Module:  &module.Module{Manifest: module.Manifest{ID: "alpha", Name: "Alpha"}},
		Subtype: "anime",
		Bundles: module.Bundles{
			Home:   module.Bundle{{Name: "anime/home1"}},
			Search: module.Bundle{{Name: "anime/search1"}},
			Info:   module.Bundle{{Name: "anime/info1"}},
			Media:  module.Bundle{{Name: "anime/media1"}},
		},
	}
}

func TestService(t *testing.T) {
	Convey("Given a service with a selected module", t, func() {
		r := &fakeRunner{}
		n := notify.New()
		messages := n.Subscribe(4)
		s := New(r, fakeSelector{selection: selection()}, n)
		ctx := context.Background()

		Convey("Each call runs the matching bundle and family", func() {
			_, _ = s.Home(ctx)
			_, _ = s.Search(ctx, "naruto")
			_, _ = s.Info(ctx, "https://example.com/show")
			_, _ = s.Resolve(ctx, "https://example.com/ep/1")
			_, _ = s.More(ctx, decode.Search)

			So(r.calls, ShouldHaveLength, 5)
			So(r.calls[0].bundle[0].Name, ShouldEqual, "anime/home1")
			So(r.calls[1].in, ShouldResemble, runner.Input{Query: "naruto"})
			So(r.calls[1].family, ShouldEqual, decode.Search)
			So(r.calls[2].bundle[0].Name, ShouldEqual, "anime/info1")
			So(r.calls[2].in.Query, ShouldEqual, "https://example.com/show")
			So(r.calls[3].family, ShouldEqual, decode.Media)
			So(r.calls[4].in, ShouldResemble, runner.Input{Next: true})
			So(r.calls[4].bundle[0].Name, ShouldEqual, "anime/search1")
		})

		Convey("A successful search is remembered", func() {
			results := decode.SearchResults{Items: []decode.SearchItem{{URL: "https://example.com/a"}}}
			r.res = decode.Result{Payload: results, NextURL: mo.Some("https://example.com/page/2")}

			p, err := s.Search(ctx, "a")
			So(err, ShouldBeNil)
			So(p, ShouldResemble, results)

			last, ok := s.Last(decode.Search)
			So(ok, ShouldBeTrue)
			So(last, ShouldResemble, results)

			Convey("and kept when the next search fails to decode", func() {
				r.res = decode.Result{Payload: decode.Unrecognized{Text: "garbage", Expected: decode.Search}}
				r.err = &failure.Error{Kind: failure.Decode, Op: "decode.search", Text: "garbage", Err: errors.New("bad")}

				p, err := s.Search(ctx, "b")
				So(failure.Is(err, failure.Decode), ShouldBeTrue)
				So(p, ShouldResemble, results)

				last, _ := s.Last(decode.Search)
				So(last, ShouldResemble, results)

				msg := <-messages
				So(msg.Level, ShouldEqual, notify.LevelError)
				So(msg.Kind, ShouldEqual, failure.Decode)
			})

			Convey("and kept when the next run collects nothing", func() {
				r.err = failure.Newf(failure.ExtractionEmpty, "runner.run", "empty")

				p, err := s.Search(ctx, "b")
				So(failure.Is(err, failure.ExtractionEmpty), ShouldBeTrue)
				So(p, ShouldResemble, results)

				msg := <-messages
				So(msg.Kind, ShouldEqual, failure.ExtractionEmpty)
			})
		})

		Convey("A failure with no previous payload returns nil", func() {
			r.err = failure.Newf(failure.Network, "network.do", "unreachable")

			p, err := s.Home(ctx)
			So(p, ShouldBeNil)
			So(failure.Is(err, failure.Network), ShouldBeTrue)
		})

		Convey("Running out of pages is not notified", func() {
			r.err = runner.ErrNoNextPage

			_, err := s.More(ctx, decode.Search)
			So(errors.Is(err, runner.ErrNoNextPage), ShouldBeTrue)
			So(messages, ShouldBeEmpty)
		})
	})

	Convey("Given a service with nothing selected", t, func() {
		r := &fakeRunner{}
		s := New(r, fakeSelector{}, notify.New())

		_, err := s.Search(context.Background(), "x")
		So(errors.Is(err, ErrNoSelection), ShouldBeTrue)
		So(r.calls, ShouldBeEmpty)
	})
}
