package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/jvav-runtime/bridge"
	"github.com/wippyai/jvav-runtime/errors"
)

// Instance is a live guest module with its own memory and string registry.
// Calls must not overlap.
type Instance struct {
	runtime *Runtime
	wr      wazero.Runtime
	module  api.Module
	bridge  *bridge.Bridge
	logger  *zap.Logger
	entry   *Export
	byName  map[string]Export
	exports []Export
	closed  bool
}

func newInstance(r *Runtime, wr wazero.Runtime, mod api.Module, compiled wazero.CompiledModule, b *bridge.Bridge, logger *zap.Logger) *Instance {
	inst := &Instance{
		runtime: r,
		wr:      wr,
		module:  mod,
		bridge:  b,
		logger:  logger,
		byName:  make(map[string]Export),
	}
	for _, e := range exportsOf(compiled.ExportedFunctions()) {
		inst.byName[e.Name] = e
		if e.Name == r.cfg.EntryPoint {
			entry := e
			inst.entry = &entry
			continue
		}
		inst.exports = append(inst.exports, e)
	}
	return inst
}

// Name returns the guest module name.
func (i *Instance) Name() string {
	return i.module.Name()
}

// Exports returns every exported function except the entry point, by name.
func (i *Instance) Exports() []Export {
	return i.exports
}

// Entry returns the entry point descriptor.
func (i *Instance) Entry() (Export, bool) {
	if i.entry == nil {
		return Export{}, false
	}
	return *i.entry, true
}

// Export looks up any exported function, the entry point included.
func (i *Instance) Export(name string) (Export, bool) {
	e, ok := i.byName[name]
	return e, ok
}

// Bridge returns the host side state of this instance.
func (i *Instance) Bridge() *bridge.Bridge {
	return i.bridge
}

// RunMain calls the entry point with no arguments.
func (i *Instance) RunMain(ctx context.Context) (Result, error) {
	if i.entry == nil {
		return Result{}, errors.New(errors.PhaseRuntime, errors.KindNotFound).
			Path(i.runtime.cfg.EntryPoint).
			Detail("module has no entry point").
			Build()
	}
	return i.Call(ctx, i.entry.Name)
}

// Call invokes an exported function. The number of arguments must match the
// export's arity.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) (Result, error) {
	if i.closed {
		return Result{}, errors.InvalidInput(errors.PhaseRuntime, "instance is closed")
	}
	e, ok := i.byName[name]
	if !ok {
		return Result{}, errors.New(errors.PhaseRuntime, errors.KindNotFound).
			Path(name).
			Detail("no exported function").
			Build()
	}
	if len(args) != e.Arity() {
		return Result{}, errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("%s takes %d argument(s), got %d", e, e.Arity(), len(args)))
	}

	i.logger.Debug("calling export", zap.String("export", name), zap.Int("args", len(args)))
	values, err := i.module.ExportedFunction(name).Call(ctx, args...)
	if err != nil {
		return Result{}, errors.Trap(name, err)
	}
	return Result{Types: e.Results, Values: append([]uint64(nil), values...)}, nil
}

// Close releases the instance's wazero runtime.
func (i *Instance) Close(ctx context.Context) error {
	if i.closed {
		return nil
	}
	i.closed = true
	i.runtime.forget(i)
	return i.wr.Close(ctx)
}
