// Package extract implements the output convention module scripts use to hand
// text back to the host: every logical line is written as a <p> element inside
// a reserved container, and the host reads those elements back in order.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anisan-cli/modhost/constant"
	"github.com/samber/lo"
)

// NewlineMarker is the escaped newline artifact scripts leave in captured text.
const NewlineMarker = `\n`

// Clean strips every newline marker from a single captured line.
func Clean(line string) string {
	return strings.ReplaceAll(line, NewlineMarker, "")
}

// Join cleans each line and concatenates them in order.
func Join(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(Clean(line))
	}
	return b.String()
}

// Selector is the CSS selector of the output lines: paragraphs that are direct
// children of the container. Both engines collect with it.
func Selector() string {
	return "#" + constant.ContainerID + " > p"
}

// FromDocument collects the text of every output line in doc.
func FromDocument(doc *goquery.Document) []string {
	return doc.Find(Selector()).Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
}

// FromHTML parses html and collects its output lines.
func FromHTML(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return FromDocument(doc), nil
}

// NonEmpty reports whether any line carries text after cleaning.
func NonEmpty(lines []string) bool {
	return lo.SomeBy(lines, func(line string) bool {
		return strings.TrimSpace(Clean(line)) != ""
	})
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}

// EnsureContainerJS makes sure an empty reserved container is attached to the body.
var EnsureContainerJS = fmt.Sprintf(`(() => {
	let el = document.getElementById(%[1]s);
	if (!el) {
		el = document.createElement("div");
		el.id = %[1]s;
		el.style.display = "none";
		(document.body || document.documentElement).appendChild(el);
	}
	el.innerHTML = "";
	return true;
})()`, jsString(constant.ContainerID))

// RemoveScriptsJS strips every script element the document brought with it.
const RemoveScriptsJS = `(() => {
	const scripts = Array.from(document.getElementsByTagName("script"));
	scripts.forEach((s) => s.remove());
	return scripts.length;
})()`

// CollectJS returns the text of every output line as a string array.
var CollectJS = fmt.Sprintf(`(() => {
	return Array.from(document.querySelectorAll(%s)).map((p) => p.textContent);
})()`, jsString(Selector()))

// ImportJS appends an external script and resolves once it has loaded.
func ImportJS(src string) string {
	return fmt.Sprintf(`new Promise((resolve, reject) => {
	const s = document.createElement("script");
	s.src = %s;
	s.onload = () => resolve(true);
	s.onerror = () => reject(new Error("failed to load " + s.src));
	(document.head || document.documentElement).appendChild(s);
})`, jsString(src))
}
