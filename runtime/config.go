package runtime

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wippyai/jvav-runtime/arena"
	"github.com/wippyai/jvav-runtime/errors"
)

var validate = validator.New()

// Config holds loader settings shared by every instance of a Runtime.
type Config struct {
	// Logger receives diagnostics. Nil means no logging.
	Logger *zap.Logger `validate:"-"`

	// EntryPoint is the export run by RunMain.
	EntryPoint string `validate:"required"`

	// Extension is appended to paths that have none.
	Extension string `validate:"required,startswith=."`

	// MemoryLimitPages caps the env memory in 64 KiB pages. 0 leaves it
	// unbounded up to 4 GiB. 256 = 16 MiB, 1024 = 64 MiB.
	MemoryLimitPages uint32 `validate:"omitempty,lte=65536,gtefield=InitialPages"`

	// InitialPages is the starting size of the env memory.
	InitialPages uint32 `validate:"gte=1,lte=65536"`

	// HeapBase is the lowest offset used for host allocations. Guest static
	// data above it pushes the first allocation higher.
	HeapBase uint32
}

// DefaultConfig returns the settings used by the command line runner.
func DefaultConfig() Config {
	return Config{
		EntryPoint:   "main",
		Extension:    ".wasm",
		InitialPages: 1,
		HeapBase:     arena.DefaultBase,
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "invalid runtime config")
	}
	return nil
}
