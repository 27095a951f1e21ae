// Package vabuf serialises accelerator parameter structures.
//
// Structures are plain Go structs of fixed-size fields in the accelerator's
// field order. Blank (_) fields stand for C padding and are written as zeros.
package vabuf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Marshal encodes v little-endian. v must be a fixed-size value, a pointer to
// one, or a slice of them.
func Marshal(v any) ([]byte, error) {
	n := binary.Size(v)
	if n < 0 {
		return nil, fmt.Errorf("vabuf: %T is not a fixed-size value", v)
	}
	buf := bytes.NewBuffer(make([]byte, 0, n))
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("vabuf: encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Bits packs C bitfields least significant bit first.
type Bits struct {
	value uint32
	shift uint
}

// Add appends a field of width bits.
func (b *Bits) Add(width uint, v uint32) *Bits {
	mask := uint32(1)<<width - 1
	b.value |= (v & mask) << b.shift
	b.shift += width
	return b
}

// Flag appends a one-bit field.
func (b *Bits) Flag(v bool) *Bits {
	if v {
		return b.Add(1, 1)
	}
	return b.Add(1, 0)
}

// Value returns the packed word.
func (b *Bits) Value() uint32 { return b.value }

// Bool converts a flag to the accelerator's 8-bit boolean.
func Bool(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
