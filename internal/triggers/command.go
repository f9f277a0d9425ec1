package triggers

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// LuaTimeout bounds a single Lua command run
const LuaTimeout = 250 * time.Millisecond

// Compile turns source into a command callable with the given parameters
func Compile(src Source, params []string) (Command, error) {
	switch src.Language {
	case LanguageHandler:
		if src.Handler == nil {
			return nil, dherr.Authoringf("handler command has no handler")
		}
		return HandlerCommand(src.Handler), nil
	case LanguageLua:
		return NewLuaCommand(src.Code, params)
	case LanguageExpr, "":
		return NewExprCommand(src.Code, params)
	default:
		return nil, dherr.Authoringf("unknown command language %q", src.Language)
	}
}

// HandlerCommand adapts a Go function
type HandlerCommand HandlerFunc

func (h HandlerCommand) Run(ctx context.Context, call *Call) error {
	return h(ctx, call)
}

// ExprCommand is a command in the expr language. Scripts see their trigger
// parameters plus update(key, value) and set(key, value).
type ExprCommand struct {
	source  string
	params  []string
	program *vm.Program
}

// NewExprCommand compiles an expr command once
func NewExprCommand(code string, params []string) (*ExprCommand, error) {
	if strings.TrimSpace(code) == "" {
		return nil, dherr.Authoringf("empty trigger command")
	}

	// Parameters stay out of the compile env: their shape varies per call, so
	// they are checked as untyped identifiers. Helpers keep their signatures.
	program, err := expr.Compile(code, expr.Env(exprEnv(nil, &Call{})), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, dherr.WrapWithCode(err, dherr.CodeAuthoring, "failed to compile trigger command")
	}
	return &ExprCommand{source: code, params: params, program: program}, nil
}

func (c *ExprCommand) Run(ctx context.Context, call *Call) error {
	if _, err := expr.Run(c.program, exprEnv(c.params, call)); err != nil {
		return err
	}
	return nil
}

func exprEnv(params []string, call *Call) map[string]any {
	env := make(map[string]any, len(params)+2)
	for _, p := range params {
		if v, ok := call.Args[p]; ok && v != nil {
			env[p] = v
			continue
		}
		env[p] = map[string]any{}
	}
	if call.Config != nil {
		env["config"] = call.Config
	}
	env["update"] = func(key string, value any) (bool, error) {
		n, err := toInt(value)
		if err != nil {
			return false, err
		}
		call.Update(key, n)
		return true, nil
	}
	env["set"] = func(key string, value any) bool {
		call.Set(key, value)
		return true
	}
	return env
}

// LuaCommand runs a chunk in a restricted Lua state: only the base, string,
// table and math libraries, without file or module loading.
type LuaCommand struct {
	source string
	params []string
	proto  *lua.FunctionProto
}

// NewLuaCommand parses and compiles a Lua chunk once
func NewLuaCommand(code string, params []string) (*LuaCommand, error) {
	chunk, err := parse.Parse(strings.NewReader(code), "trigger")
	if err != nil {
		return nil, dherr.WrapWithCode(err, dherr.CodeAuthoring, "failed to parse trigger command")
	}
	proto, err := lua.Compile(chunk, "trigger")
	if err != nil {
		return nil, dherr.WrapWithCode(err, dherr.CodeAuthoring, "failed to compile trigger command")
	}
	return &LuaCommand{source: code, params: params, proto: proto}, nil
}

var luaBlocked = []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "collectgarbage"}

func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range luaBlocked {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func (c *LuaCommand) Run(ctx context.Context, call *Call) error {
	L := newSandbox()
	defer L.Close()

	runCtx, cancel := context.WithTimeout(ctx, LuaTimeout)
	defer cancel()
	L.SetContext(runCtx)

	for _, p := range c.params {
		L.SetGlobal(p, toLua(L, call.Args[p]))
	}
	if call.Config != nil {
		L.SetGlobal("config", toLua(L, call.Config))
	}
	L.SetGlobal("update", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		value := L.CheckNumber(2)
		call.Update(key, int(math.Round(float64(value))))
		return 0
	}))
	L.SetGlobal("set", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		call.Set(key, fromLua(L.Get(2)))
		return 0
	}))

	L.Push(L.NewFunctionFromProto(c.proto))
	return L.PCall(0, lua.MultRet, nil)
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(toLua(L, item))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

func fromLua(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		out := map[string]any{}
		val.ForEach(func(k, item lua.LValue) {
			out[k.String()] = fromLua(item)
		})
		return out
	default:
		return nil
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(math.Round(n)), nil
	default:
		return 0, fmt.Errorf("update value %v is not a number", v)
	}
}
