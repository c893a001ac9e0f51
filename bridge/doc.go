// Package bridge implements the host side of the guest string ABI.
//
// A Bridge owns the Arena and the string Registry for one module instance and
// exposes the host functions a compiled guest imports:
//
//	env.createString(offset, length i32) -> handle i32
//	env.readString(handle i32) -> (offset i32, length i32)
//	env.print(value i32)
//	env.printString(handle i32)
//	env.print_str(handle i32)             alias of printString
//	env.ask(question, options i32) -> handle i32
//	env.memory                            linear memory
//	console.log(value i32)
//	console.log_str(handle i32)           alias of printString
//	js.mem                                alias of env.memory
//
// wazero host modules cannot define memory, so Instantiate registers the
// functions under an internal host module and builds a small synthetic "env"
// module that imports them, defines the memory, and re-exports both.
//
// Unknown handles never trap: readString yields (0, 0) and printString emits
// a placeholder. Out-of-range offsets and allocation failures do trap, and the
// guest call returns an error wrapping the *errors.Error that caused it.
package bridge
