package wasmbin

const (
	opUnreachable byte = 0x00
	opEnd         byte = 0x0b
	opCall        byte = 0x10
	opDrop        byte = 0x1a
	opLocalGet    byte = 0x20
	opLocalSet    byte = 0x21
	opI32Load8U   byte = 0x2d
	opI32Store8   byte = 0x3a
	opI32Const    byte = 0x41
	opI32Add      byte = 0x6a
)

// Code builds a function body one instruction at a time.
type Code struct {
	b []byte
}

func (c *Code) Unreachable() *Code {
	c.b = append(c.b, opUnreachable)
	return c
}

func (c *Code) Call(funcIdx uint32) *Code {
	c.b = append(c.b, opCall)
	c.b = AppendULEB128(c.b, funcIdx)
	return c
}

func (c *Code) Drop() *Code {
	c.b = append(c.b, opDrop)
	return c
}

func (c *Code) LocalGet(idx uint32) *Code {
	c.b = append(c.b, opLocalGet)
	c.b = AppendULEB128(c.b, idx)
	return c
}

func (c *Code) LocalSet(idx uint32) *Code {
	c.b = append(c.b, opLocalSet)
	c.b = AppendULEB128(c.b, idx)
	return c
}

// I32Load8U loads one byte with a zero memarg.
func (c *Code) I32Load8U() *Code {
	c.b = append(c.b, opI32Load8U, 0x00, 0x00)
	return c
}

// I32Store8 stores one byte with a zero memarg.
func (c *Code) I32Store8() *Code {
	c.b = append(c.b, opI32Store8, 0x00, 0x00)
	return c
}

func (c *Code) I32Const(v int32) *Code {
	c.b = append(c.b, opI32Const)
	c.b = AppendSLEB128(c.b, int64(v))
	return c
}

func (c *Code) I32Add() *Code {
	c.b = append(c.b, opI32Add)
	return c
}

// Bytes returns the instructions without the trailing end opcode.
func (c *Code) Bytes() []byte {
	return c.b
}
