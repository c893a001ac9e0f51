package bridge

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jvav-runtime/errors"
	"github.com/wippyai/jvav-runtime/internal/wasmbin"
	"github.com/wippyai/jvav-runtime/prompt"
)

type harness struct {
	ctx    context.Context
	rt     wazero.Runtime
	bridge *Bridge
	out    *bytes.Buffer
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	out := &bytes.Buffer{}
	b, err := Instantiate(ctx, rt, append([]Option{WithOutput(out)}, opts...)...)
	require.NoError(t, err)
	return &harness{ctx: ctx, rt: rt, bridge: b, out: out}
}

func (h *harness) instantiate(t *testing.T, m *wasmbin.Module) api.Module {
	t.Helper()
	mod, err := h.rt.InstantiateWithConfig(h.ctx, m.Encode(), wazero.NewModuleConfig().WithName("guest"))
	require.NoError(t, err)
	return mod
}

func TestImports_Surface(t *testing.T) {
	keys := make(map[string]bool)
	for _, s := range Imports() {
		keys[s.Key()] = true
	}
	for _, want := range []string{
		"env.createString", "env.readString", "env.print", "env.printString",
		"env.print_str", "env.ask", "env.memory",
		"console.log", "console.log_str", "js.mem",
	} {
		assert.True(t, keys[want], "missing %s", want)
	}
}

func TestImportSpec_Signature(t *testing.T) {
	for _, s := range Imports() {
		switch s.Key() {
		case "env.readString":
			assert.Equal(t, "(i32) -> (i32, i32)", s.Signature())
		case "env.print":
			assert.Equal(t, "(i32) -> ()", s.Signature())
		case "env.memory":
			assert.Equal(t, "memory", s.Signature())
		}
	}
}

func TestGuest_PrintsDataSegmentString(t *testing.T) {
	h := newHarness(t)

	g := wasmbin.NewModule()
	create := g.ImportFunc(EnvModule, "createString", i32x2, i32)
	printString := g.ImportFunc(EnvModule, "printString", i32, nil)
	g.ImportMemory(EnvModule, MemoryName, wasmbin.Limits{Min: 1})
	run := g.Func(nil, nil, nil, new(wasmbin.Code).
		I32Const(16).I32Const(5).Call(create).Call(printString).Bytes())
	g.ExportFunc("run", run)
	g.Data(16, []byte("hello"))

	mod := h.instantiate(t, g)
	_, err := mod.ExportedFunction("run").Call(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", h.out.String())
}

func TestGuest_ReadStringMultiValue(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.bridge.Arena().Write(1024, []byte("hi")))
	_, err := h.bridge.CreateString(1024, 2)
	require.NoError(t, err)

	g := wasmbin.NewModule()
	read := g.ImportFunc(EnvModule, "readString", i32, i32x2)
	fn := g.Func(i32, i32x2, nil, new(wasmbin.Code).LocalGet(0).Call(read).Bytes())
	g.ExportFunc("read", fn)

	mod := h.instantiate(t, g)

	res, err := mod.ExportedFunction("read").Call(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1024, 2}, res)

	res, err = mod.ExportedFunction("read").Call(h.ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0}, res)
}

func TestGuest_ConsoleAndJSAliases(t *testing.T) {
	h := newHarness(t)

	g := wasmbin.NewModule()
	create := g.ImportFunc(EnvModule, "createString", i32x2, i32)
	logStr := g.ImportFunc(ConsoleModule, "log_str", i32, nil)
	logNum := g.ImportFunc(ConsoleModule, "log", i32, nil)
	printStr := g.ImportFunc(EnvModule, "print_str", i32, nil)
	g.ImportMemory(JSModule, JSMemoryName, wasmbin.Limits{Min: 1})
	run := g.Func(nil, nil, []api.ValueType{api.ValueTypeI32}, new(wasmbin.Code).
		I32Const(32).I32Const(3).Call(create).LocalSet(0).
		LocalGet(0).Call(logStr).
		LocalGet(0).Call(printStr).
		I32Const(-3).Call(logNum).Bytes())
	g.ExportFunc("run", run)
	g.Data(32, []byte("abc"))

	mod := h.instantiate(t, g)
	_, err := mod.ExportedFunction("run").Call(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc\nabc\n-3\n", h.out.String())

	// js.mem and env.memory are the same memory.
	text, ok := h.bridge.Text(1)
	assert.True(t, ok)
	assert.Equal(t, "abc", text)
}

func TestGuest_AskThroughScriptedPrompter(t *testing.T) {
	h := newHarness(t, WithPrompter(prompt.NewScripted("x", "y")))

	g := wasmbin.NewModule()
	create := g.ImportFunc(EnvModule, "createString", i32x2, i32)
	ask := g.ImportFunc(EnvModule, "ask", i32x2, i32)
	printString := g.ImportFunc(EnvModule, "printString", i32, nil)
	g.ImportMemory(EnvModule, MemoryName, wasmbin.Limits{Min: 1})
	run := g.Func(nil, i32, []api.ValueType{api.ValueTypeI32}, new(wasmbin.Code).
		I32Const(64).I32Const(3).Call(create).
		I32Const(80).I32Const(3).Call(create).
		Call(ask).LocalSet(0).
		LocalGet(0).Call(printString).
		LocalGet(0).Bytes())
	g.ExportFunc("run", run)
	g.Data(64, []byte("Ok?"))
	g.Data(80, []byte("y/n"))

	mod := h.instantiate(t, g)
	res, err := mod.ExportedFunction("run").Call(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res[0])
	assert.Equal(t, "y\n", h.out.String())
}

func TestGuest_OutOfBoundsTraps(t *testing.T) {
	h := newHarness(t)

	g := wasmbin.NewModule()
	create := g.ImportFunc(EnvModule, "createString", i32x2, i32)
	run := g.Func(nil, i32, nil, new(wasmbin.Code).I32Const(70000).I32Const(10).Call(create).Bytes())
	g.ExportFunc("run", run)

	mod := h.instantiate(t, g)
	_, err := mod.ExportedFunction("run").Call(h.ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOutOfBounds))
}

func compile(t *testing.T, m *wasmbin.Module) wazero.CompiledModule {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	c, err := rt.CompileModule(ctx, m.Encode())
	require.NoError(t, err)
	return c
}

func TestCheckImports(t *testing.T) {
	t.Run("provided", func(t *testing.T) {
		g := wasmbin.NewModule()
		g.ImportFunc(EnvModule, "print", i32, nil)
		g.ImportFunc(ConsoleModule, "log", i32, nil)
		g.ImportMemory(EnvModule, MemoryName, wasmbin.Limits{Min: 1})
		assert.NoError(t, CheckImports(compile(t, g)))
	})

	t.Run("missing", func(t *testing.T) {
		g := wasmbin.NewModule()
		g.ImportFunc(EnvModule, "print", i32, nil)
		g.ImportFunc(EnvModule, "parseInt", i32, i32)
		g.ImportMemory(EnvModule, "heap", wasmbin.Limits{Min: 1})

		err := CheckImports(compile(t, g))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInstantiation))

		var missing *errors.MissingImportsError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []errors.MissingImport{
			{Namespace: "env", Name: "parseInt"},
			{Namespace: "env", Name: "heap"},
		}, missing.Imports)
	})

	t.Run("signature mismatch", func(t *testing.T) {
		g := wasmbin.NewModule()
		g.ImportFunc(EnvModule, "print", []api.ValueType{api.ValueTypeI64}, nil)

		err := CheckImports(compile(t, g))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInstantiation))
		assert.Contains(t, err.Error(), "(i32) -> ()")
		assert.Contains(t, err.Error(), "(i64) -> ()")
	})

	t.Run("memory name used as function", func(t *testing.T) {
		g := wasmbin.NewModule()
		g.ImportFunc(EnvModule, MemoryName, nil, nil)
		assert.Error(t, CheckImports(compile(t, g)))
	})
}
