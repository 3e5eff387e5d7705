package surface

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/extract"
	"github.com/anisan-cli/modhost/internal/engine"
	"github.com/anisan-cli/modhost/log"
	"github.com/anisan-cli/modhost/module"
	lua "github.com/yuin/gopher-lua"
)

const blankDocument = "<html><head></head><body></body></html>"

// Lua runs Lua module code against a parsed document. Scripts read the page
// through the document global and publish lines through output.write.
// Every block gets its own global environment, started when its container is
// prepared, so nothing a block assigns is visible to later blocks or modules.
type Lua struct {
	*State
	fetcher engine.Fetcher

	ls  *lua.LState
	env *lua.LTable
	doc *goquery.Document
	url string
}

// NewLua returns a Lua surface. fetcher backs http_tls and remote imports.
func NewLua(fetcher engine.Fetcher, state *State) *Lua {
	if state == nil {
		state = &State{}
	}
	return &Lua{State: state, fetcher: fetcher}
}

func (s *Lua) state() *lua.LState {
	if s.ls == nil {
		s.ls = engine.NewState(s.fetcher)
		s.bind()
	}
	return s.ls
}

func (s *Lua) environment() *lua.LTable {
	if s.env == nil {
		s.env = engine.NewEnv(s.state())
	}
	return s.env
}

func (s *Lua) document() *goquery.Document {
	if s.doc == nil {
		s.doc, _ = goquery.NewDocumentFromReader(strings.NewReader(blankDocument))
	}
	return s.doc
}

// Load parses doc as the current page. Lua code has no way to load
// sub-resources, so policy is not consulted.
func (s *Lua) Load(_ context.Context, doc Document, _ Policy) error {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(string(doc.Body)))
	if err != nil {
		return fmt.Errorf("parse document %s: %w", doc.URL, err)
	}

	s.doc = parsed
	s.url = doc.URL
	s.setLast(doc.URL)
	return nil
}

// WaitReady returns immediately: a parsed document is ready by construction.
func (s *Lua) WaitReady(ctx context.Context) error {
	return ctx.Err()
}

func (s *Lua) container() *goquery.Selection {
	return s.document().Find("#" + constant.ContainerID)
}

func (s *Lua) PrepareContainer(context.Context) error {
	s.env = engine.NewEnv(s.state())

	if c := s.container(); c.Length() > 0 {
		c.Empty()
		return nil
	}

	body := s.document().Find("body")
	if body.Length() == 0 {
		return errors.New("document has no body")
	}
	body.AppendHtml(fmt.Sprintf(`<div id="%s"></div>`, constant.ContainerID))
	return nil
}

func (s *Lua) RemoveScripts(context.Context) error {
	s.document().Find("script").Remove()
	return nil
}

// Inject runs code. A Lua error is logged and swallowed; running out of time is not.
func (s *Lua) Inject(ctx context.Context, code string) error {
	if err := engine.Run(ctx, s.state(), s.environment(), "block", code); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warnf("module script failed: %v", err)
	}
	return nil
}

// ImportURL fetches a Lua chunk and runs it in the module state.
func (s *Lua) ImportURL(ctx context.Context, src string) error {
	if s.fetcher == nil {
		return fmt.Errorf("import %s: no http client", src)
	}

	resp, err := s.fetcher.Do(ctx, module.Resolved{Method: module.MethodGet, URL: src})
	if err != nil {
		return fmt.Errorf("import %s: %w", src, err)
	}

	if err := engine.Run(ctx, s.state(), s.environment(), src, string(resp.Body)); err != nil {
		return fmt.Errorf("import %s: %w", src, err)
	}
	return nil
}

func (s *Lua) Collect(context.Context) ([]string, error) {
	return extract.FromDocument(s.document()), nil
}

func (s *Lua) Close() error {
	if s.ls != nil {
		s.ls.Close()
		s.ls = nil
		s.env = nil
	}
	return nil
}

// bind installs the document and output globals.
func (s *Lua) bind() {
	L := s.ls

	doc := L.NewTable()
	L.SetField(doc, "html", L.NewFunction(func(L *lua.LState) int {
		h, err := s.document().Html()
		if err != nil {
			L.RaiseError("document.html: %s", err.Error())
			return 0
		}
		L.Push(lua.LString(h))
		return 1
	}))
	L.SetField(doc, "url", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(s.url))
		return 1
	}))
	L.SetField(doc, "select", L.NewFunction(func(L *lua.LState) int {
		css := L.CheckString(1)
		L.Push(selectionTable(L, s.document().Find(css)))
		return 1
	}))
	L.SetGlobal("document", doc)

	output := L.NewTable()
	L.SetField(output, "write", L.NewFunction(func(L *lua.LState) int {
		line := L.CheckString(1)
		c := s.container()
		if c.Length() == 0 {
			L.RaiseError("output container is missing")
			return 0
		}
		c.AppendHtml("<p>" + html.EscapeString(line) + "</p>")
		return 0
	}))
	L.SetField(output, "clear", L.NewFunction(func(L *lua.LState) int {
		s.container().Empty()
		return 0
	}))
	L.SetGlobal("output", output)
}

// selectionTable converts matched elements to a list of {text, html, attrs}.
func selectionTable(L *lua.LState, sel *goquery.Selection) *lua.LTable {
	list := L.NewTable()
	sel.Each(func(_ int, el *goquery.Selection) {
		item := L.NewTable()
		L.SetField(item, "text", lua.LString(el.Text()))
		inner, _ := el.Html()
		L.SetField(item, "html", lua.LString(inner))

		attrs := L.NewTable()
		for _, node := range el.Nodes {
			for _, a := range node.Attr {
				L.SetField(attrs, a.Key, lua.LString(a.Val))
			}
		}
		L.SetField(item, "attrs", attrs)

		list.Append(item)
	})
	return list
}
