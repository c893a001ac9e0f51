package runtime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jvav-runtime/errors"
	"github.com/wippyai/jvav-runtime/internal/wasmbin"
)

// Export describes an exported guest function.
type Export struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Arity returns the number of parameters.
func (e Export) Arity() int {
	return len(e.Params)
}

// Nullary reports whether the export can be called with no arguments.
func (e Export) Nullary() bool {
	return len(e.Params) == 0
}

// String renders the export as "name(i32) -> i32".
func (e Export) String() string {
	return e.Name + wasmbin.Signature(e.Params, e.Results)
}

// ParseArgs encodes textual arguments according to the export's parameter
// types.
func (e Export) ParseArgs(raw []string) ([]uint64, error) {
	if len(raw) != e.Arity() {
		return nil, errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("%s takes %d argument(s), got %d", e, e.Arity(), len(raw)))
	}
	args := make([]uint64, len(raw))
	for i, s := range raw {
		v, err := parseValue(e.Params[i], strings.TrimSpace(s))
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err,
				fmt.Sprintf("argument %d of %s", i+1, e.Name))
		}
		args[i] = v
	}
	return args, nil
}

func parseValue(t api.ValueType, s string) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		v, err := strconv.ParseInt(s, 0, 32)
		return api.EncodeI32(int32(v)), err
	case api.ValueTypeI64:
		v, err := strconv.ParseInt(s, 0, 64)
		return api.EncodeI64(v), err
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(s, 32)
		return api.EncodeF32(float32(v)), err
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(s, 64)
		return api.EncodeF64(v), err
	default:
		return 0, fmt.Errorf("unsupported parameter type %s", api.ValueTypeName(t))
	}
}

func exportsOf(defs map[string]api.FunctionDefinition) []Export {
	exports := make([]Export, 0, len(defs))
	for name, def := range defs {
		exports = append(exports, Export{
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	sort.Slice(exports, func(i, j int) bool {
		return exports[i].Name < exports[j].Name
	})
	return exports
}

// Result holds the values returned by a guest call.
type Result struct {
	Types  []api.ValueType
	Values []uint64
}

// Void reports whether the call returned nothing.
func (r Result) Void() bool {
	return len(r.Values) == 0
}

// IsZero reports whether the call returned nothing or only zero values.
func (r Result) IsZero() bool {
	for i, v := range r.Values {
		switch r.Types[i] {
		case api.ValueTypeF32:
			if api.DecodeF32(v) != 0 {
				return false
			}
		case api.ValueTypeF64:
			if api.DecodeF64(v) != 0 {
				return false
			}
		default:
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// Int32 returns the first value as a signed 32-bit integer.
func (r Result) Int32() int32 {
	if r.Void() {
		return 0
	}
	return api.DecodeI32(r.Values[0])
}

// String formats each value by its type, comma separated.
func (r Result) String() string {
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = formatValue(r.Types[i], v)
	}
	return strings.Join(parts, ", ")
}

func formatValue(t api.ValueType, v uint64) string {
	switch t {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(v)), 10)
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(v), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	default:
		return "0x" + strconv.FormatUint(v, 16)
	}
}
