// Package engine prepares gopher-lua states for module code and caches compiled chunks.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/anisan-cli/modhost/module"
	"github.com/anisan-cli/modhost/network"
	libs "github.com/metafates/mangal-lua-libs"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Fetcher is the HTTP collaborator exposed to Lua as http_tls.
type Fetcher interface {
	Do(ctx context.Context, req module.Resolved) (*network.Response, error)
}

var bytecodeCache sync.Map

// NewState returns a Lua state with the mangal libraries preloaded and the
// http_tls module bound to fetcher.
func NewState(fetcher Fetcher) *lua.LState {
	L := lua.NewState()
	libs.Preload(L)
	if fetcher != nil {
		registerHTTP(L, fetcher)
	}
	return L
}

// Compile returns the prototype of code, compiling it on the first call.
// Chunks are keyed by content so edited modules are recompiled.
func Compile(name, code string) (*lua.FunctionProto, error) {
	sum := sha256.Sum256([]byte(code))
	key := hex.EncodeToString(sum[:])

	if cached, ok := bytecodeCache.Load(key); ok {
		return cached.(*lua.FunctionProto), nil
	}

	chunk, err := parse.Parse(strings.NewReader(code), name)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, err
	}

	bytecodeCache.Store(key, proto)
	return proto, nil
}

// NewEnv returns a global table for one run of module code. Reads fall
// through to L's globals, so preloaded libraries stay reachable, while every
// assignment stays in the returned table.
func NewEnv(L *lua.LState) *lua.LTable {
	env := L.NewTable()
	env.RawSetString("_G", env)

	meta := L.NewTable()
	meta.RawSetString("__index", L.G.Global)
	L.SetMetatable(env, meta)
	return env
}

// Run executes code in L, bounded by ctx. A nil env runs it against L's
// globals. Values the chunk returns are dropped.
func Run(ctx context.Context, L *lua.LState, env *lua.LTable, name, code string) error {
	proto, err := Compile(name, code)
	if err != nil {
		return err
	}

	L.SetContext(ctx)
	defer L.RemoveContext()

	top := L.GetTop()
	defer L.SetTop(top)

	fn := L.NewFunctionFromProto(proto)
	if env != nil {
		fn.Env = env
	}
	L.Push(fn)
	return L.PCall(0, 0, nil)
}
