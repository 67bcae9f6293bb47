package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeoutMs bounds a single predicate evaluation.
const DefaultTimeoutMs = 2000

// ErrTimeout is returned when a predicate runs past its deadline.
var ErrTimeout = errors.New("sandbox timeout")

// Options configures the Lua sandbox.
type Options struct {
	// TimeoutMs bounds each evaluation; a negative value disables the deadline.
	TimeoutMs int
}

// Predicate decides whether a discovered file is processed.
type Predicate struct {
	code string
	opts Options
}

// New builds a predicate from inline Lua. Expressions without an explicit
// return are wrapped. An empty script keeps every file.
func New(inline string, opts Options) (*Predicate, error) {
	if opts.TimeoutMs == 0 {
		opts.TimeoutMs = DefaultTimeoutMs
	}
	code := "return true"
	if strings.TrimSpace(inline) != "" {
		code = inline
		if !strings.Contains(inline, "return") {
			code = "return (" + inline + ")"
		}
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	if _, err := L.LoadString(code); err != nil {
		return nil, fmt.Errorf("invalid filter: %v", err)
	}
	return &Predicate{code: code, opts: opts}, nil
}

// Keep evaluates the predicate with the global `locator` bound to the
// root-relative path of the file.
func (p *Predicate) Keep(ctx context.Context, locator string) (bool, error) {
	if p == nil {
		return true, nil
	}
	L := newSandboxState()
	defer L.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	if p.opts.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.opts.TimeoutMs)*time.Millisecond)
		defer cancel()
	}
	L.SetContext(ctx)
	L.SetGlobal("locator", lua.LString(locator))

	fn, err := L.LoadString(p.code)
	if err != nil {
		return false, err
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if isTimeoutError(err) {
			return false, ErrTimeout
		}
		return false, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

func newSandboxState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	return L
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadline") || strings.Contains(msg, "context canceled")
}
