package wasmbin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const opGlobalGet byte = 0x23

var (
	ErrInvalidMagic   = errors.New("wasmbin: invalid magic number")
	ErrInvalidVersion = errors.New("wasmbin: unsupported version")
)

// DataExtent returns the end offset of the highest active data segment that
// targets memory 0 with a constant offset. Segments placed through a global
// are skipped since their address is only known after instantiation.
// A module without data segments yields 0.
func DataExtent(bin []byte) (uint32, error) {
	if len(bin) < len(header) || !bytes.Equal(bin[:4], header[:4]) {
		return 0, ErrInvalidMagic
	}
	if !bytes.Equal(bin[4:8], header[4:8]) {
		return 0, ErrInvalidVersion
	}

	r := bytes.NewReader(bin[8:])
	for {
		id, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, nil
			}
			return 0, err
		}
		size, err := ReadULEB128(r)
		if err != nil {
			return 0, fmt.Errorf("section %d size: %w", id, err)
		}
		if int64(size) > int64(r.Len()) {
			return 0, fmt.Errorf("section %d: size %d exceeds remaining %d bytes", id, size, r.Len())
		}
		if id != sectionData {
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return 0, err
			}
			continue
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, err
		}
		return scanDataSection(bytes.NewReader(payload))
	}
}

func scanDataSection(r *bytes.Reader) (uint32, error) {
	count, err := ReadULEB128(r)
	if err != nil {
		return 0, err
	}

	var extent uint64
	for i := uint32(0); i < count; i++ {
		flags, err := ReadULEB128(r)
		if err != nil {
			return 0, err
		}
		if flags > 2 {
			return 0, fmt.Errorf("data segment %d: invalid flags %d", i, flags)
		}

		var memIdx uint32
		if flags == 2 {
			if memIdx, err = ReadULEB128(r); err != nil {
				return 0, err
			}
		}

		var (
			offset uint32
			known  bool
		)
		if flags != 1 {
			if offset, known, err = readOffsetExpr(r); err != nil {
				return 0, fmt.Errorf("data segment %d offset: %w", i, err)
			}
		}

		n, err := ReadULEB128(r)
		if err != nil {
			return 0, err
		}
		if int64(n) > int64(r.Len()) {
			return 0, fmt.Errorf("data segment %d: length %d exceeds section", i, n)
		}
		if _, err := r.Seek(int64(n), io.SeekCurrent); err != nil {
			return 0, err
		}

		if known && memIdx == 0 {
			if end := uint64(offset) + uint64(n); end > extent {
				extent = end
			}
		}
	}

	if extent > 0xFFFFFFFF {
		return 0, fmt.Errorf("data extent %d exceeds 32-bit address space", extent)
	}
	return uint32(extent), nil
}

// readOffsetExpr reads an i32.const or global.get init expression.
func readOffsetExpr(r *bytes.Reader) (uint32, bool, error) {
	op, err := r.ReadByte()
	if err != nil {
		return 0, false, err
	}

	var (
		offset uint32
		known  bool
	)
	switch op {
	case opI32Const:
		v, err := ReadSLEB128(r)
		if err != nil {
			return 0, false, err
		}
		offset, known = uint32(v), true
	case opGlobalGet:
		if _, err := ReadULEB128(r); err != nil {
			return 0, false, err
		}
	default:
		return 0, false, fmt.Errorf("unsupported init opcode %#x", op)
	}

	end, err := r.ReadByte()
	if err != nil {
		return 0, false, err
	}
	if end != opEnd {
		return 0, false, fmt.Errorf("expected end opcode, got %#x", end)
	}
	return offset, known, nil
}
