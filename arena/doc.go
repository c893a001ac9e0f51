// Package arena hands out byte ranges of a guest module's linear memory.
//
// The arena is a bump allocator: every allocation starts where the previous
// one ended, so two ranges handed out by the same arena never overlap. When a
// request does not fit, the arena grows the underlying memory by whole 64KiB
// pages before failing with an out_of_memory error. There is no free; the
// arena only grows for the lifetime of the module instance.
//
//	a := arena.New(instance.ExportedMemory("memory"))
//	off, err := a.Allocate(uint32(len(b)))
//	if err != nil {
//	    return err
//	}
//	if err := a.Write(off, b); err != nil {
//	    return err
//	}
//
// Allocation starts at DefaultBase so low addresses stay free for the guest.
// Call Reserve with the end of the guest's static data to keep host
// allocations above it.
//
// An Arena is not safe for concurrent use. Host calls into it are serialized
// by the single guest thread that drives them.
package arena
