package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // reading the module file
	PhaseCompile Phase = "compile" // validating/compiling the binary
	PhaseLinking Phase = "linking" // resolving imports and instantiating
	PhaseRuntime Phase = "runtime" // invoking guest exports
	PhaseMemory  Phase = "memory"  // arena access
	PhaseHost    Phase = "host"    // host function execution
)

// Kind categorizes the error
type Kind string

const (
	KindFileNotFound      Kind = "file_not_found"
	KindCompile           Kind = "compile"
	KindInstantiation     Kind = "instantiation"
	KindMissingImport     Kind = "missing_import"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindOutOfMemory       Kind = "out_of_memory"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindCancelled         Kind = "cancelled"
	KindTrap              Kind = "trap"
)

// Sentinels for errors.Is. They carry no Phase and therefore match on Kind only.
var (
	ErrFileNotFound  = &Error{Kind: KindFileNotFound}
	ErrCompile       = &Error{Kind: KindCompile}
	ErrInstantiation = &Error{Kind: KindInstantiation}
	ErrOutOfBounds   = &Error{Kind: KindOutOfBounds}
	ErrOutOfMemory   = &Error{Kind: KindOutOfMemory}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrTrap          = &Error{Kind: KindTrap}
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the import path or field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Loader-level constructors. These are fatal: the operator sees them and the process halts.

// FileNotFound creates an error for a module path that does not resolve
func FileNotFound(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindFileNotFound,
		Detail: fmt.Sprintf("module file %q not found", path),
		Value:  path,
		Cause:  cause,
	}
}

// CompileFailed creates an error for a binary that cannot be validated or compiled
func CompileFailed(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindCompile,
		Detail: "compile module",
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLinking,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// SignatureMismatch creates an error for an import whose type differs from the host's
func SignatureMismatch(module, name, want, got string) *Error {
	return &Error{
		Phase:  PhaseLinking,
		Kind:   KindSignatureMismatch,
		Path:   []string{module, name},
		Detail: fmt.Sprintf("host provides %s, module expects %s", want, got),
	}
}

// Arena-level constructors. These abort the current host call.

// OutOfBounds creates an error for a byte range outside the arena
func OutOfBounds(offset, length uint32, size uint64) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d) exceeds memory of %d bytes", offset, uint64(offset)+uint64(length), size),
		Value:  offset,
	}
}

// OutOfMemory creates an error for an allocation that cannot be satisfied
func OutOfMemory(size uint32, capacity uint64, cause error) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindOutOfMemory,
		Detail: fmt.Sprintf("cannot allocate %d bytes (capacity %d)", size, capacity),
		Value:  size,
		Cause:  cause,
	}
}

// Registry-level constructors. These are recoverable.

// NotFound creates an error for an unknown string handle
func NotFound(handle uint32) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("string handle %d not registered", handle),
		Value:  handle,
	}
}

// Trap creates an error for a guest call that aborted
func Trap(function string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindTrap,
		Path:   []string{function},
		Detail: "guest call aborted",
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingImport represents a single unresolved import
type MissingImport struct {
	Namespace string // e.g., "env"
	Name      string // e.g., "createString"
}

// MissingImportsError is returned when a module imports something the host does not provide
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "namespace.name" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		ns, name := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			Namespace: ns,
			Name:      name,
		})
	}
	return result
}

func parseImportKey(key string) (namespace, name string) {
	ns, fn, found := strings.Cut(key, ".")
	if found {
		return ns, fn
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[linking] missing_import: no imports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "missing %d host import(s):\n", len(e.Imports))

	byNS := make(map[string][]string)
	for _, imp := range e.Imports {
		byNS[imp.Namespace] = append(byNS[imp.Namespace], imp.Name)
	}
	namespaces := make([]string, 0, len(byNS))
	for ns := range byNS {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		b.WriteString("\n  ")
		b.WriteString(ns)
		b.WriteString(":\n")
		for _, name := range byNS[ns] {
			b.WriteString("    - ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}
