package bridge

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/jvav-runtime/arena"
	"github.com/wippyai/jvav-runtime/errors"
	"github.com/wippyai/jvav-runtime/internal/wasmbin"
)

// Instantiate registers the import surface in r and returns the bridge bound
// to the new env memory. Module names are global to a wazero runtime, so r
// can host at most one bridge.
func Instantiate(ctx context.Context, r wazero.Runtime, opts ...Option) (*Bridge, error) {
	cfg := newConfig(opts)
	b := newBridge(nil, cfg)

	host := r.NewHostModuleBuilder(HostModule)
	console := r.NewHostModuleBuilder(ConsoleModule)
	env := wasmbin.NewModule()

	for _, fn := range bindings {
		handler := fn.handler
		gofn := api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
			handler(b, ctx, stack)
		})

		switch fn.spec.Module {
		case EnvModule:
			host.NewFunctionBuilder().
				WithGoModuleFunction(gofn, fn.spec.Params, fn.spec.Results).
				Export(fn.spec.Name)
			idx := env.ImportFunc(HostModule, fn.spec.Name, fn.spec.Params, fn.spec.Results)
			env.ExportFunc(fn.spec.Name, idx)
		case ConsoleModule:
			console.NewFunctionBuilder().
				WithGoModuleFunction(gofn, fn.spec.Params, fn.spec.Results).
				Export(fn.spec.Name)
		}
	}

	limits := wasmbin.Limits{Min: cfg.initialPages}
	if cfg.maxPages > 0 {
		maxPages := cfg.maxPages
		limits.Max = &maxPages
	}
	env.DefineMemory(limits)
	env.ExportMemory(MemoryName)

	if _, err := host.Instantiate(ctx); err != nil {
		return nil, errors.Wrap(errors.PhaseLinking, errors.KindInstantiation, err, "instantiate host module")
	}
	envMod, err := r.InstantiateWithConfig(ctx, env.Encode(), wazero.NewModuleConfig().WithName(EnvModule))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLinking, errors.KindInstantiation, err, "instantiate env module")
	}

	js := wasmbin.NewModule()
	js.ImportMemory(EnvModule, MemoryName, limits)
	js.ExportMemory(JSMemoryName)
	if _, err := r.InstantiateWithConfig(ctx, js.Encode(), wazero.NewModuleConfig().WithName(JSModule)); err != nil {
		return nil, errors.Wrap(errors.PhaseLinking, errors.KindInstantiation, err, "instantiate js module")
	}
	if _, err := console.Instantiate(ctx); err != nil {
		return nil, errors.Wrap(errors.PhaseLinking, errors.KindInstantiation, err, "instantiate console module")
	}

	arenaOpts := []arena.Option{
		arena.WithBase(cfg.heapBase),
		arena.WithLogger(cfg.logger.Named("arena")),
	}
	if cfg.maxPages > 0 {
		arenaOpts = append(arenaOpts, arena.WithMaxPages(cfg.maxPages))
	}
	b.arena = arena.New(envMod.ExportedMemory(MemoryName), arenaOpts...)

	cfg.logger.Debug("bridge instantiated",
		zap.Uint32("initial_pages", cfg.initialPages),
		zap.Uint32("max_pages", cfg.maxPages),
		zap.Uint32("heap_base", cfg.heapBase))
	return b, nil
}
