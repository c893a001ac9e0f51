package wasmbin

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

const (
	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionExport   byte = 7
	sectionCode     byte = 10
	sectionData     byte = 11

	kindFunc   byte = 0x00
	kindMemory byte = 0x02

	funcTypeByte byte = 0x60
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Limits describes memory size constraints in 64KiB pages.
type Limits struct {
	Max *uint32
	Min uint32
}

type funcType struct {
	params  []api.ValueType
	results []api.ValueType
}

func (f funcType) equal(o funcType) bool {
	if len(f.params) != len(o.params) || len(f.results) != len(o.results) {
		return false
	}
	for i := range f.params {
		if f.params[i] != o.params[i] {
			return false
		}
	}
	for i := range f.results {
		if f.results[i] != o.results[i] {
			return false
		}
	}
	return true
}

type importEntry struct {
	memory  *Limits
	module  string
	name    string
	typeIdx uint32
	kind    byte
}

type function struct {
	locals  []api.ValueType
	body    []byte
	typeIdx uint32
}

type export struct {
	name string
	kind byte
	idx  uint32
}

type dataSegment struct {
	init   []byte
	offset uint32
}

// Module assembles a core WebAssembly module.
// Function imports must be declared before any function is defined, because
// imported functions occupy the low end of the function index space.
type Module struct {
	memory   *Limits
	types    []funcType
	imports  []importEntry
	funcs    []function
	exports  []export
	data     []dataSegment
	numFuncs uint32
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) typeIndex(params, results []api.ValueType) uint32 {
	ft := funcType{params: params, results: results}
	for i, t := range m.types {
		if t.equal(ft) {
			return uint32(i)
		}
	}
	m.types = append(m.types, ft)
	return uint32(len(m.types) - 1)
}

// ImportFunc declares a function import and returns its function index.
func (m *Module) ImportFunc(module, name string, params, results []api.ValueType) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmbin: function import declared after a defined function")
	}
	m.imports = append(m.imports, importEntry{
		module:  module,
		name:    name,
		kind:    kindFunc,
		typeIdx: m.typeIndex(params, results),
	})
	m.numFuncs++
	return m.numFuncs - 1
}

// ImportMemory declares a memory import.
func (m *Module) ImportMemory(module, name string, limits Limits) {
	m.imports = append(m.imports, importEntry{
		module: module,
		name:   name,
		kind:   kindMemory,
		memory: &limits,
	})
}

// DefineMemory declares the module's own linear memory.
func (m *Module) DefineMemory(limits Limits) {
	m.memory = &limits
}

// Func defines a function and returns its function index.
// body holds the instructions without the trailing end opcode.
func (m *Module) Func(params, results, locals []api.ValueType, body []byte) uint32 {
	m.funcs = append(m.funcs, function{
		typeIdx: m.typeIndex(params, results),
		locals:  locals,
		body:    body,
	})
	m.numFuncs++
	return m.numFuncs - 1
}

// ExportFunc exports the function at idx, which may be an import.
func (m *Module) ExportFunc(name string, idx uint32) {
	m.exports = append(m.exports, export{name: name, kind: kindFunc, idx: idx})
}

// ExportMemory exports memory 0, whether imported or defined.
func (m *Module) ExportMemory(name string) {
	m.exports = append(m.exports, export{name: name, kind: kindMemory, idx: 0})
}

// Data adds an active data segment for memory 0 at a constant offset.
func (m *Module) Data(offset uint32, init []byte) {
	m.data = append(m.data, dataSegment{offset: offset, init: init})
}

// Encode produces the binary module.
func (m *Module) Encode() []byte {
	out := append([]byte(nil), header...)

	if len(m.types) > 0 {
		out = appendSection(out, sectionType, m.encodeTypes())
	}
	if len(m.imports) > 0 {
		out = appendSection(out, sectionImport, m.encodeImports())
	}
	if len(m.funcs) > 0 {
		sec := AppendULEB128(nil, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			sec = AppendULEB128(sec, f.typeIdx)
		}
		out = appendSection(out, sectionFunction, sec)
	}
	if m.memory != nil {
		sec := AppendULEB128(nil, 1)
		sec = appendLimits(sec, *m.memory)
		out = appendSection(out, sectionMemory, sec)
	}
	if len(m.exports) > 0 {
		sec := AppendULEB128(nil, uint32(len(m.exports)))
		for _, e := range m.exports {
			sec = appendName(sec, e.name)
			sec = append(sec, e.kind)
			sec = AppendULEB128(sec, e.idx)
		}
		out = appendSection(out, sectionExport, sec)
	}
	if len(m.funcs) > 0 {
		out = appendSection(out, sectionCode, m.encodeCode())
	}
	if len(m.data) > 0 {
		sec := AppendULEB128(nil, uint32(len(m.data)))
		for _, d := range m.data {
			sec = append(sec, 0x00, opI32Const)
			sec = AppendSLEB128(sec, int64(int32(d.offset)))
			sec = append(sec, opEnd)
			sec = AppendULEB128(sec, uint32(len(d.init)))
			sec = append(sec, d.init...)
		}
		out = appendSection(out, sectionData, sec)
	}

	return out
}

func (m *Module) encodeTypes() []byte {
	sec := AppendULEB128(nil, uint32(len(m.types)))
	for _, t := range m.types {
		sec = append(sec, funcTypeByte)
		sec = AppendULEB128(sec, uint32(len(t.params)))
		sec = append(sec, t.params...)
		sec = AppendULEB128(sec, uint32(len(t.results)))
		sec = append(sec, t.results...)
	}
	return sec
}

func (m *Module) encodeImports() []byte {
	sec := AppendULEB128(nil, uint32(len(m.imports)))
	for _, imp := range m.imports {
		sec = appendName(sec, imp.module)
		sec = appendName(sec, imp.name)
		sec = append(sec, imp.kind)
		switch imp.kind {
		case kindFunc:
			sec = AppendULEB128(sec, imp.typeIdx)
		case kindMemory:
			sec = appendLimits(sec, *imp.memory)
		default:
			panic(fmt.Sprintf("wasmbin: unsupported import kind %#x", imp.kind))
		}
	}
	return sec
}

func (m *Module) encodeCode() []byte {
	sec := AppendULEB128(nil, uint32(len(m.funcs)))
	for _, f := range m.funcs {
		body := appendLocals(nil, f.locals)
		body = append(body, f.body...)
		body = append(body, opEnd)
		sec = AppendULEB128(sec, uint32(len(body)))
		sec = append(sec, body...)
	}
	return sec
}

// appendLocals groups consecutive locals of the same type.
func appendLocals(dst []byte, locals []api.ValueType) []byte {
	type group struct {
		count uint32
		typ   api.ValueType
	}
	var groups []group
	for _, l := range locals {
		if n := len(groups); n > 0 && groups[n-1].typ == l {
			groups[n-1].count++
			continue
		}
		groups = append(groups, group{count: 1, typ: l})
	}
	dst = AppendULEB128(dst, uint32(len(groups)))
	for _, g := range groups {
		dst = AppendULEB128(dst, g.count)
		dst = append(dst, g.typ)
	}
	return dst
}

func appendLimits(dst []byte, l Limits) []byte {
	if l.Max == nil {
		dst = append(dst, 0x00)
		return AppendULEB128(dst, l.Min)
	}
	dst = append(dst, 0x01)
	dst = AppendULEB128(dst, l.Min)
	return AppendULEB128(dst, *l.Max)
}

func appendName(dst []byte, name string) []byte {
	dst = AppendULEB128(dst, uint32(len(name)))
	return append(dst, name...)
}

func appendSection(dst []byte, id byte, payload []byte) []byte {
	dst = append(dst, id)
	dst = AppendULEB128(dst, uint32(len(payload)))
	return append(dst, payload...)
}
