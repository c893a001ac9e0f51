// Package registry binds opaque string handles to byte ranges in guest memory.
//
// A guest module never sees a byte range directly. It holds a Handle, and the
// host resolves the Handle to a Descriptor when it needs the bytes. Handles are
// issued 1, 2, 3, ... and are never reused; Handle 0 is reserved and always
// invalid. Bindings are never removed, so a registry lives as long as the
// module instance that owns it.
package registry

import (
	"github.com/wippyai/jvav-runtime/errors"
)

// Handle is an opaque reference to a registered string.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Invalid is the reserved zero handle.
const Invalid Handle = 0

// Descriptor locates UTF-8 text in linear memory. It is immutable once registered.
type Descriptor struct {
	Offset uint32
	Length uint32
}

// Registry maps handles to descriptors. It is not safe for concurrent use.
type Registry struct {
	entries map[Handle]Descriptor
	next    Handle
}

// New creates an empty registry whose first handle is 1.
func New() *Registry {
	return &Registry{
		entries: make(map[Handle]Descriptor),
		next:    1,
	}
}

// Register binds d to the next handle and returns it.
func (r *Registry) Register(d Descriptor) Handle {
	h := r.next
	r.entries[h] = d
	r.next++
	return h
}

// Resolve returns the descriptor bound to h, or a not_found error for the
// zero handle and for handles never issued.
func (r *Registry) Resolve(h Handle) (Descriptor, error) {
	if h == Invalid {
		return Descriptor{}, errors.NotFound(uint32(h))
	}
	d, ok := r.entries[h]
	if !ok {
		return Descriptor{}, errors.NotFound(uint32(h))
	}
	return d, nil
}

// Len returns the number of registered strings.
func (r *Registry) Len() int {
	return len(r.entries)
}
