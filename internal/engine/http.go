package engine

import (
	"context"

	"github.com/anisan-cli/modhost/module"
	"github.com/samber/mo"
	lua "github.com/yuin/gopher-lua"
)

// registerHTTP injects the "http_tls" global module.
//
//	http_tls.get(url [, headers])  → body string
//	http_tls.request(options)      → {status, body, url}
func registerHTTP(L *lua.LState, fetcher Fetcher) {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		return httpGet(L, fetcher)
	}))
	L.SetField(mod, "request", L.NewFunction(func(L *lua.LState) int {
		return httpRequest(L, fetcher)
	}))
	L.SetGlobal("http_tls", mod)
}

func stateContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func httpGet(L *lua.LState, fetcher Fetcher) int {
	url := L.CheckString(1)
	headers := tableHeaders(L.OptTable(2, nil))

	resp, err := fetcher.Do(stateContext(L), module.Resolved{
		Method:  module.MethodGet,
		URL:     url,
		Headers: headers,
	})
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(resp.Body))
	return 1
}

func httpRequest(L *lua.LState, fetcher Fetcher) int {
	opts := L.CheckTable(1)

	url := getStringField(opts, "url", "")
	if url == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	req := module.NewRequest(getStringField(opts, "method", "GET"), url, nil, mo.None[string]())
	if !req.Usable() {
		L.RaiseError("http_tls.request: unsupported method %q", req.Method)
		return 0
	}

	var headers []module.Header
	if tbl, ok := opts.RawGetString("headers").(*lua.LTable); ok {
		headers = tableHeaders(tbl)
	}

	resp, err := fetcher.Do(stateContext(L), module.Resolved{
		Method:  req.Method,
		URL:     url,
		Headers: headers,
		Body:    getStringField(opts, "body", ""),
	})
	if err != nil {
		L.RaiseError("http_tls.request failed: %s", err.Error())
		return 0
	}

	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(resp.Status))
	L.SetField(result, "body", lua.LString(resp.Body))
	L.SetField(result, "url", lua.LString(resp.URL))
	L.Push(result)
	return 1
}

func tableHeaders(tbl *lua.LTable) []module.Header {
	if tbl == nil {
		return nil
	}

	var headers []module.Header
	tbl.ForEach(func(k, v lua.LValue) {
		headers = append(headers, module.Header{Key: k.String(), Value: v.String()})
	})
	return headers
}

// getStringField returns a string field from a Lua table with a default.
func getStringField(tbl *lua.LTable, key string, def string) string {
	val := tbl.RawGetString(key)
	if val == lua.LNil {
		return def
	}
	return val.String()
}
