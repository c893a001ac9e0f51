package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseLinking,
				Kind:   KindSignatureMismatch,
				Path:   []string{"env", "readString"},
				Detail: "host provides (i32) -> (i32, i32)",
			},
			contains: []string{"[linking]", "signature_mismatch", "env.readString", "(i32) -> (i32, i32)"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseMemory,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[memory]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMemory,
				Kind:   KindOutOfMemory,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[memory]", "out_of_memory", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := CompileFailed(cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause through chain")
	}
}

func TestError_Is(t *testing.T) {
	err := OutOfBounds(65530, 10, 65536)

	if !err.Is(&Error{Phase: PhaseMemory, Kind: KindOutOfBounds}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseLoad, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseMemory, Kind: KindOutOfMemory}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrOutOfBounds) {
		t.Error("sentinel without phase should match on kind")
	}
	if errors.Is(err, ErrOutOfMemory) {
		t.Error("sentinel of another kind should not match")
	}
}

func TestSentinels_ThroughWrapping(t *testing.T) {
	inner := NotFound(999)
	outer := Wrap(PhaseRuntime, KindInvalidInput, inner, "print string")

	if !errors.Is(outer, ErrNotFound) {
		t.Error("expected ErrNotFound to match wrapped error")
	}

	var target *Error
	if !errors.As(outer, &target) {
		t.Fatal("errors.As failed")
	}
	if target.Kind != KindInvalidInput {
		t.Errorf("As returned outer error first, got kind %s", target.Kind)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseHost, KindInvalidInput).
		Path("env", "ask").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "y", "maybe").
		Build()

	if err.Phase != PhaseHost {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseHost)
	}
	if err.Kind != KindInvalidInput {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
	}
	if len(err.Path) != 2 || err.Path[0] != "env" || err.Path[1] != "ask" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if err.Detail != "expected y, got maybe" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Cause != cause {
		t.Error("Cause not set")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err   *Error
		phase Phase
		kind  Kind
	}{
		{FileNotFound("hello.wasm", nil), PhaseLoad, KindFileNotFound},
		{CompileFailed(nil), PhaseCompile, KindCompile},
		{Instantiation(nil), PhaseLinking, KindInstantiation},
		{SignatureMismatch("env", "ask", "(i32, i32) -> (i32)", "(i32) -> ()"), PhaseLinking, KindSignatureMismatch},
		{OutOfBounds(0, 1, 0), PhaseMemory, KindOutOfBounds},
		{OutOfMemory(10, 65536, nil), PhaseMemory, KindOutOfMemory},
		{NotFound(7), PhaseHost, KindNotFound},
		{InvalidInput(PhaseRuntime, "bad"), PhaseRuntime, KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
		})
	}
}

func TestOutOfBounds_NoWrap(t *testing.T) {
	err := OutOfBounds(0xFFFFFFFF, 2, 65536)
	if !strings.Contains(err.Error(), "4294967297") {
		t.Errorf("end of range should be computed without wrapping: %s", err.Error())
	}
}

func TestMissingImportsError(t *testing.T) {
	err := NewMissingImportsError([]string{"env.fetch", "wasi.clock", "env.open"})

	if len(err.Imports) != 3 {
		t.Fatalf("expected 3 imports, got %d", len(err.Imports))
	}
	if err.Imports[0].Namespace != "env" || err.Imports[0].Name != "fetch" {
		t.Errorf("first import = %+v", err.Imports[0])
	}

	msg := err.Error()
	for _, s := range []string{"missing 3 host import(s)", "env:", "- fetch", "- open", "wasi:", "- clock"} {
		if !strings.Contains(msg, s) {
			t.Errorf("message %q missing %q", msg, s)
		}
	}
	if strings.Index(msg, "env:") > strings.Index(msg, "wasi:") {
		t.Error("namespaces should be sorted")
	}

	wrapped := Instantiation(err)
	var mi *MissingImportsError
	if !errors.As(wrapped, &mi) {
		t.Error("errors.As should find MissingImportsError through Instantiation")
	}
	if !errors.Is(wrapped, &MissingImportsError{}) {
		t.Error("errors.Is should match MissingImportsError type")
	}
}

func TestMissingImportsError_Empty(t *testing.T) {
	err := &MissingImportsError{}
	if !strings.Contains(err.Error(), "no imports specified") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestIsAsForwarding(t *testing.T) {
	err := fmt.Errorf("call: %w", OutOfBounds(10, 4, 8))
	if !Is(err, ErrOutOfBounds) {
		t.Error("Is should see through fmt wrapping")
	}
	var e *Error
	if !As(err, &e) || e.Kind != KindOutOfBounds {
		t.Errorf("As = %v", e)
	}
}

func TestTrap(t *testing.T) {
	cause := OutOfBounds(70000, 10, 65536)
	err := Trap("main", fmt.Errorf("%w (recovered by wazero)", cause))

	if err.Phase != PhaseRuntime || err.Kind != KindTrap {
		t.Errorf("Trap phase/kind = %s/%s", err.Phase, err.Kind)
	}
	if !errors.Is(err, ErrTrap) {
		t.Error("Trap should match ErrTrap")
	}
	if !errors.Is(err, ErrOutOfBounds) {
		t.Error("Trap should expose the host error in its chain")
	}
	if !strings.Contains(err.Error(), "at main") {
		t.Errorf("Error() = %q, want function path", err.Error())
	}
}
