package wasmbin

import (
	"strings"

	"github.com/tetratelabs/wazero/api"
)

// Signature renders a function type as "(i32, i32) -> i32". No results
// render as "()" and several as a parenthesized list.
func Signature(params, results []api.ValueType) string {
	var sb strings.Builder
	writeTypes(&sb, params)
	sb.WriteString(" -> ")
	if len(results) == 1 {
		sb.WriteString(api.ValueTypeName(results[0]))
	} else {
		writeTypes(&sb, results)
	}
	return sb.String()
}

func writeTypes(sb *strings.Builder, types []api.ValueType) {
	sb.WriteByte('(')
	for i, t := range types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(api.ValueTypeName(t))
	}
	sb.WriteByte(')')
}
