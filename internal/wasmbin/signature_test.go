package wasmbin

import (
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestSignature(t *testing.T) {
	tests := []struct {
		params, results []api.ValueType
		want            string
	}{
		{nil, nil, "() -> ()"},
		{i32, nil, "(i32) -> ()"},
		{i32x2, i32, "(i32, i32) -> i32"},
		{i32, i32x2, "(i32) -> (i32, i32)"},
		{[]api.ValueType{api.ValueTypeF64}, []api.ValueType{api.ValueTypeI64}, "(f64) -> i64"},
	}
	for _, tt := range tests {
		if got := Signature(tt.params, tt.results); got != tt.want {
			t.Errorf("Signature(%v, %v) = %q, want %q", tt.params, tt.results, got, tt.want)
		}
	}
}
