// Package wasmbin reads and writes the small slice of the WebAssembly binary
// format the runtime needs.
//
// The builder assembles modules the host synthesizes at link time, such as the
// "env" module that owns the shared linear memory and re-exports the host
// functions next to it:
//
//	m := wasmbin.NewModule()
//	create := m.ImportFunc("jvav:host", "createString", i32i32, i32)
//	m.DefineMemory(wasmbin.Limits{Min: 1})
//	m.ExportMemory("memory")
//	m.ExportFunc("createString", create)
//	bin := m.Encode()
//
// The scanner reports where a module's active data segments end, so host-side
// allocations can start above the guest's static data:
//
//	end, err := wasmbin.DataExtent(bin)
//
// Only the MVP encoding with multi-value function types is produced.
package wasmbin
