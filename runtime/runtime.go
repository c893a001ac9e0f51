package runtime

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/jvav-runtime/bridge"
	"github.com/wippyai/jvav-runtime/errors"
	"github.com/wippyai/jvav-runtime/internal/wasmbin"
)

// Runtime loads guest modules. It is safe for concurrent use; the instances
// it returns are not.
type Runtime struct {
	cache     wazero.CompilationCache
	logger    *zap.Logger
	instances map[*Instance]struct{}
	cfg       Config
	mu        sync.Mutex
}

// New validates cfg and creates a runtime.
func New(_ context.Context, cfg Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runtime{
		cache:     wazero.NewCompilationCache(),
		logger:    logger,
		instances: make(map[*Instance]struct{}),
		cfg:       cfg,
	}, nil
}

// Config returns the runtime's settings.
func (r *Runtime) Config() Config {
	return r.cfg
}

// Close closes every open instance and the compilation cache.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	open := make([]*Instance, 0, len(r.instances))
	for inst := range r.instances {
		open = append(open, inst)
	}
	r.mu.Unlock()

	var firstErr error
	for _, inst := range open {
		if err := inst.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.cache.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ResolvePath appends the configured extension unless path already ends in
// it. Other extensions are part of the stem: hello.jvav becomes
// hello.jvav.wasm.
func (r *Runtime) ResolvePath(path string) string {
	if filepath.Ext(path) != r.cfg.Extension {
		return path + r.cfg.Extension
	}
	return path
}

// Load reads the module at path and instantiates it.
func (r *Runtime) Load(ctx context.Context, path string, opts ...LoadOption) (*Instance, error) {
	resolved := r.ResolvePath(path)

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, errors.FileNotFound(resolved, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.FileNotFound(resolved, nil)
	}

	wasm, err := os.ReadFile(resolved)
	if err != nil {
		return nil, errors.FileNotFound(resolved, err)
	}

	name := filepath.Base(resolved)
	name = name[:len(name)-len(filepath.Ext(name))]
	return r.LoadBytes(ctx, name, wasm, opts...)
}

// LoadBytes compiles wasm, checks its imports against the bridge and
// instantiates it under name.
func (r *Runtime) LoadBytes(ctx context.Context, name string, wasm []byte, opts ...LoadOption) (*Instance, error) {
	lc := &loadConfig{}
	for _, opt := range opts {
		opt(lc)
	}
	logger := r.logger.With(zap.String("module", name))

	rtCfg := wazero.NewRuntimeConfig().
		WithCompilationCache(r.cache).
		WithCloseOnContextDone(true)
	if r.cfg.MemoryLimitPages > 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(r.cfg.MemoryLimitPages)
	}
	wr := wazero.NewRuntimeWithConfig(ctx, rtCfg)

	inst, err := r.instantiate(ctx, wr, name, wasm, lc, logger)
	if err != nil {
		_ = wr.Close(ctx)
		return nil, err
	}

	r.mu.Lock()
	r.instances[inst] = struct{}{}
	r.mu.Unlock()

	logger.Debug("module loaded",
		zap.Int("exports", len(inst.exports)),
		zap.Bool("has_entry", inst.entry != nil),
		zap.Uint64("heap_start", inst.bridge.Arena().Cursor()))
	return inst, nil
}

func (r *Runtime) instantiate(ctx context.Context, wr wazero.Runtime, name string, wasm []byte, lc *loadConfig, logger *zap.Logger) (*Instance, error) {
	compiled, err := wr.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.CompileFailed(err)
	}
	if err := bridge.CheckImports(compiled); err != nil {
		return nil, err
	}

	bopts := []bridge.Option{
		bridge.WithLogger(logger.Named("bridge")),
		bridge.WithMemory(r.cfg.InitialPages, r.cfg.MemoryLimitPages),
		bridge.WithHeapBase(r.cfg.HeapBase),
	}
	if lc.prompter != nil {
		bopts = append(bopts, bridge.WithPrompter(lc.prompter))
	}
	if lc.out != nil {
		bopts = append(bopts, bridge.WithOutput(lc.out))
	}
	b, err := bridge.Instantiate(ctx, wr, bopts...)
	if err != nil {
		return nil, err
	}

	// Keep host allocations clear of the guest's static data.
	extent, err := wasmbin.DataExtent(wasm)
	if err != nil {
		logger.Warn("cannot scan data segments", zap.Error(err))
	}
	b.Arena().Reserve(extent)

	mod, err := wr.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(guestModuleName(name)).WithStartFunctions())
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	return newInstance(r, wr, mod, compiled, b, logger), nil
}

// guestModuleName keeps the guest clear of the bridge's module names.
func guestModuleName(name string) string {
	switch name {
	case "", bridge.HostModule, bridge.EnvModule, bridge.ConsoleModule, bridge.JSModule:
		return "guest"
	}
	return name
}

func (r *Runtime) forget(inst *Instance) {
	r.mu.Lock()
	delete(r.instances, inst)
	r.mu.Unlock()
}
