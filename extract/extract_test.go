package extract

import (
	"testing"

	"github.com/anisan-cli/modhost/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJoin(t *testing.T) {
	Convey("Join strips the escaped newline marker", t, func() {
		So(Join([]string{`a\nb`}), ShouldEqual, "ab")
		So(Join([]string{`{"result":`, `[1,\n2]}`}), ShouldEqual, `{"result":[1,2]}`)
		So(Join(nil), ShouldEqual, "")
	})

	Convey("Real newlines are kept", t, func() {
		So(Join([]string{"a\nb"}), ShouldEqual, "a\nb")
	})
}

func TestFromHTML(t *testing.T) {
	Convey("Given a document with a populated container", t, func() {
		html := `<html><body>
<p>outside</p>
<div id="` + constant.ContainerID + `"><p>first</p><span>skip</span><div><p>nested</p></div><p>second\n</p></div>
</body></html>`

		lines, err := FromHTML(html)
		So(err, ShouldBeNil)

		Convey("Only container paragraphs are collected, in order", func() {
			So(lines, ShouldResemble, []string{"first", `second\n`})
			So(Join(lines), ShouldEqual, "firstsecond")
			So(NonEmpty(lines), ShouldBeTrue)
		})
	})

	Convey("A document without a container yields nothing", t, func() {
		lines, err := FromHTML("<p>hello</p>")
		So(err, ShouldBeNil)
		So(lines, ShouldBeEmpty)
		So(NonEmpty(lines), ShouldBeFalse)
		So(NonEmpty([]string{`\n`, "  "}), ShouldBeFalse)
	})
}

func TestSnippets(t *testing.T) {
	Convey("Snippets reference the reserved container", t, func() {
		So(EnsureContainerJS, ShouldContainSubstring, constant.ContainerID)
		So(CollectJS, ShouldContainSubstring, constant.ContainerID)
		So(ImportJS("https://cdn.example.com/a.js"), ShouldContainSubstring, `"https://cdn.example.com/a.js"`)
	})

	Convey("The browser collects with the same selector as the parser", t, func() {
		So(CollectJS, ShouldContainSubstring, jsString(Selector()))
		So(Selector(), ShouldEqual, "#"+constant.ContainerID+" > p")
	})

	Convey("Imported urls become valid JavaScript strings", t, func() {
		js := ImportJS("https://cdn.example.com/😀.js?a=1&b=</script>")
		So(js, ShouldContainSubstring, `"https://cdn.example.com/😀.js?a=1\u0026b=\u003c/script\u003e"`)
		So(js, ShouldNotContainSubstring, `\U`)
	})
}
