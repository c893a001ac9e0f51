package bridge

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jvav-runtime/errors"
	"github.com/wippyai/jvav-runtime/internal/wasmbin"
	"github.com/wippyai/jvav-runtime/registry"
)

// Import namespaces presented to guests.
const (
	HostModule    = "jvav:host"
	EnvModule     = "env"
	ConsoleModule = "console"
	JSModule      = "js"

	MemoryName   = "memory"
	JSMemoryName = "mem"
)

var (
	i32   = []api.ValueType{api.ValueTypeI32}
	i32x2 = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
)

// ImportSpec describes one import the bridge satisfies.
type ImportSpec struct {
	Module  string
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
	Memory  bool
}

// Key returns "module.name".
func (s ImportSpec) Key() string {
	return s.Module + "." + s.Name
}

// Signature renders the function type, e.g. "(i32, i32) -> i32".
func (s ImportSpec) Signature() string {
	if s.Memory {
		return "memory"
	}
	return wasmbin.Signature(s.Params, s.Results)
}

type binding struct {
	spec    ImportSpec
	handler func(b *Bridge, ctx context.Context, stack []uint64)
}

var bindings = []binding{
	{ImportSpec{Module: EnvModule, Name: "createString", Params: i32x2, Results: i32}, (*Bridge).hostCreateString},
	{ImportSpec{Module: EnvModule, Name: "readString", Params: i32, Results: i32x2}, (*Bridge).hostReadString},
	{ImportSpec{Module: EnvModule, Name: "print", Params: i32}, (*Bridge).hostPrint},
	{ImportSpec{Module: EnvModule, Name: "printString", Params: i32}, (*Bridge).hostPrintString},
	{ImportSpec{Module: EnvModule, Name: "print_str", Params: i32}, (*Bridge).hostPrintString},
	{ImportSpec{Module: EnvModule, Name: "ask", Params: i32x2, Results: i32}, (*Bridge).hostAsk},
	{ImportSpec{Module: ConsoleModule, Name: "log", Params: i32}, (*Bridge).hostLog},
	{ImportSpec{Module: ConsoleModule, Name: "log_str", Params: i32}, (*Bridge).hostPrintString},
}

// Imports returns every import a guest may declare, functions first.
func Imports() []ImportSpec {
	specs := make([]ImportSpec, 0, len(bindings)+2)
	for _, b := range bindings {
		specs = append(specs, b.spec)
	}
	return append(specs,
		ImportSpec{Module: EnvModule, Name: MemoryName, Memory: true},
		ImportSpec{Module: JSModule, Name: JSMemoryName, Memory: true},
	)
}

// CheckImports verifies that every import of compiled is provided with a
// matching type. Unknown imports are collected into a MissingImportsError;
// the first type mismatch is reported on its own. Both are wrapped in an
// instantiation error.
func CheckImports(compiled wazero.CompiledModule) error {
	provided := make(map[string]ImportSpec)
	for _, s := range Imports() {
		provided[s.Key()] = s
	}

	var missing []string
	for _, def := range compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		spec, ok := provided[mod+"."+name]
		if !ok || spec.Memory {
			missing = append(missing, mod+"."+name)
			continue
		}
		if !sameTypes(spec.Params, def.ParamTypes()) || !sameTypes(spec.Results, def.ResultTypes()) {
			got := wasmbin.Signature(def.ParamTypes(), def.ResultTypes())
			return errors.Instantiation(errors.SignatureMismatch(mod, name, spec.Signature(), got))
		}
	}
	for _, def := range compiled.ImportedMemories() {
		mod, name, _ := def.Import()
		if spec, ok := provided[mod+"."+name]; !ok || !spec.Memory {
			missing = append(missing, mod+"."+name)
		}
	}

	if len(missing) > 0 {
		return errors.Instantiation(errors.NewMissingImportsError(missing))
	}
	return nil
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Host function adapters. A returned error panics so that wazero aborts the
// guest call with the error in its chain.

func (b *Bridge) hostCreateString(_ context.Context, stack []uint64) {
	h, err := b.CreateString(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if err != nil {
		panic(err)
	}
	stack[0] = api.EncodeU32(uint32(h))
}

func (b *Bridge) hostReadString(_ context.Context, stack []uint64) {
	offset, length := b.ReadString(registry.Handle(api.DecodeU32(stack[0])))
	stack[0] = api.EncodeU32(offset)
	stack[1] = api.EncodeU32(length)
}

func (b *Bridge) hostPrint(_ context.Context, stack []uint64) {
	b.Print(api.DecodeI32(stack[0]))
}

func (b *Bridge) hostLog(_ context.Context, stack []uint64) {
	b.Log(api.DecodeI32(stack[0]))
}

func (b *Bridge) hostPrintString(_ context.Context, stack []uint64) {
	b.PrintString(registry.Handle(api.DecodeU32(stack[0])))
}

func (b *Bridge) hostAsk(ctx context.Context, stack []uint64) {
	h, err := b.Ask(ctx,
		registry.Handle(api.DecodeU32(stack[0])),
		registry.Handle(api.DecodeU32(stack[1])))
	if err != nil {
		panic(err)
	}
	stack[0] = api.EncodeU32(uint32(h))
}
