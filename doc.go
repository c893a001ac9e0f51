// Package jvavruntime hosts compiled Jvav programs on wazero.
//
// A Jvav program compiles to a core WebAssembly module that imports a small
// string ABI. This module supplies that ABI and the loader around it.
//
// # Architecture Overview
//
//	jvavruntime/
//	├── runtime/           Loader: resolve path, compile, check imports, instantiate, run main
//	├── bridge/            Host function ABI (env, console, js namespaces) over one Bridge
//	├── arena/             Bump allocator over linear memory, grows by pages
//	├── registry/          String handle table: 1, 2, 3, ... never reused
//	├── prompt/            Operator input providers for ask
//	├── errors/            Structured error types (phase + kind)
//	├── internal/wasmbin/  Minimal module encoder and data segment scanner
//	└── cmd/jvav-run/      Command line runner and interactive explorer
//
// # Quick Start
//
//	rt, err := runtime.New(ctx, runtime.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
//	inst, err := rt.Load(ctx, "program") // program.wasm
//	if err != nil {
//	    return err
//	}
//	res, err := inst.RunMain(ctx)
//
// # Guest ABI
//
// Strings cross the boundary as handles. The guest writes UTF-8 bytes into
// linear memory and calls createString(offset, length) to get a handle;
// readString(handle) returns the range again. Unknown handles never trap:
// readString yields (0, 0) and printString prints a placeholder. Offsets
// outside memory trap the call.
package jvavruntime
