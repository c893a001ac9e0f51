// Package runtime loads compiled guest modules and runs them against the
// string bridge.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	inst, err := rt.Load(ctx, "hello", runtime.WithPrompter(prompt.NewScripted("y")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	res, err := inst.RunMain(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !res.IsZero() {
//	    fmt.Println("returned:", res)
//	}
//
// # Loading
//
// Load appends the configured extension (".wasm") when the path has none and
// then reads the file. Failures are reported by kind:
//
//	file_not_found   the path does not resolve to a regular file
//	compile          the binary does not validate
//	instantiation    an import is missing or has the wrong type, or linking failed
//
// Every instance gets its own wazero runtime, so its env memory, arena and
// string registry are private. Compiled code is shared through a compilation
// cache owned by the Runtime.
//
// # Exports
//
// Export descriptors are resolved once at load time. Exports lists every
// exported function except the entry point; Entry returns the entry point
// when present.
package runtime
