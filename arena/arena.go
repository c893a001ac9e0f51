package arena

import (
	"go.uber.org/zap"

	"github.com/wippyai/jvav-runtime/errors"
)

const (
	// PageSize is the WebAssembly page size.
	PageSize = 65536

	// DefaultBase is the first offset handed out by a new arena.
	DefaultBase = 1024

	maxAddressable = uint64(1) << 32
)

// LinearMemory is the subset of wazero's api.Memory the arena relies on.
type LinearMemory interface {
	Size() uint32
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

// Arena is a bump allocator over a LinearMemory.
type Arena struct {
	mem      LinearMemory
	logger   *zap.Logger
	cursor   uint64
	maxPages uint32
}

// Option configures an Arena.
type Option func(*Arena)

// WithBase sets the first offset handed out.
func WithBase(base uint32) Option {
	return func(a *Arena) {
		a.cursor = uint64(base)
	}
}

// WithMaxPages caps growth at the given total page count. Zero means no cap
// beyond what the memory itself enforces.
func WithMaxPages(pages uint32) Option {
	return func(a *Arena) {
		a.maxPages = pages
	}
}

// WithLogger sets the logger used for growth events.
func WithLogger(l *zap.Logger) Option {
	return func(a *Arena) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an arena over mem.
func New(mem LinearMemory, opts ...Option) *Arena {
	a := &Arena{
		mem:    mem,
		cursor: DefaultBase,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate reserves size contiguous bytes and returns their offset.
func (a *Arena) Allocate(size uint32) (uint32, error) {
	start := a.cursor
	end := start + uint64(size)
	if end > maxAddressable {
		return 0, errors.OutOfMemory(size, a.Capacity(), nil)
	}

	if capacity := a.Capacity(); end > capacity {
		if err := a.grow(end-capacity, size); err != nil {
			return 0, err
		}
	}

	a.cursor = end
	return uint32(start), nil
}

func (a *Arena) grow(deficit uint64, size uint32) error {
	pages := (deficit + PageSize - 1) / PageSize
	current := a.Capacity() / PageSize

	if a.maxPages > 0 && current+pages > uint64(a.maxPages) {
		return errors.OutOfMemory(size, a.Capacity(), nil)
	}
	if current+pages > maxAddressable/PageSize {
		return errors.OutOfMemory(size, a.Capacity(), nil)
	}

	prev, ok := a.mem.Grow(uint32(pages))
	if !ok {
		return errors.OutOfMemory(size, a.Capacity(), nil)
	}

	a.logger.Debug("arena grew",
		zap.Uint32("from_pages", prev),
		zap.Uint64("added_pages", pages),
		zap.Uint32("request", size))
	return nil
}

// Reserve advances the cursor to at least end. It never moves backwards.
func (a *Arena) Reserve(end uint32) {
	if uint64(end) > a.cursor {
		a.cursor = uint64(end)
	}
}

// CheckRange reports an out_of_bounds error unless [offset, offset+length)
// lies within the current capacity.
func (a *Arena) CheckRange(offset, length uint32) error {
	if uint64(offset)+uint64(length) > a.Capacity() {
		return errors.OutOfBounds(offset, length, a.Capacity())
	}
	return nil
}

// Write copies b into memory at offset.
func (a *Arena) Write(offset uint32, b []byte) error {
	if err := a.CheckRange(offset, uint32(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if !a.mem.Write(offset, b) {
		return errors.OutOfBounds(offset, uint32(len(b)), a.Capacity())
	}
	return nil
}

// Read returns a view of [offset, offset+length). The view aliases guest
// memory and is only valid until the memory next grows; callers must not
// modify it.
func (a *Arena) Read(offset, length uint32) ([]byte, error) {
	if err := a.CheckRange(offset, length); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	b, ok := a.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(offset, length, a.Capacity())
	}
	return b, nil
}

// Cursor returns the offset the next allocation will start at.
func (a *Arena) Cursor() uint64 {
	return a.cursor
}

// Capacity returns the current size of the memory in bytes.
func (a *Arena) Capacity() uint64 {
	return uint64(a.mem.Size())
}
