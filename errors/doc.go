// Package errors provides structured error types for the jvav runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending import or memory range, an optional value, and
// a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
//		Path("env", "createString").
//		Value(offset).
//		Detail("range [%d, %d) exceeds %d bytes", offset, end, size).
//		Build()
//
// Or use convenience constructors for the taxonomy:
//
//	errors.FileNotFound(path, cause)       // load, fatal
//	errors.CompileFailed(cause)            // compile, fatal
//	errors.Instantiation(cause)            // linking, fatal
//	errors.OutOfBounds(offset, length, n)  // memory, fatal to the call
//	errors.OutOfMemory(size, capacity, c)  // memory, fatal to the call
//	errors.NotFound(handle)                // registry, recoverable
//	errors.Trap(function, cause)           // runtime, guest call aborted
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match any error of the same Kind regardless of Phase:
//
//	if errors.Is(err, errors.ErrInstantiation) { ... }
package errors
