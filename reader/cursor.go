/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package reader implements the big-endian, moving-cursor primitive decoder
// that the class-file loader is built on. Every multi-byte value in a JVM
// class file is read by hand, byte by byte, rather than through
// encoding/binary.Read over a host-typed value, so that decoding is
// reproducible independent of the host's own endianness or struct layout.
package reader

import (
	"errors"
	"math"
)

// ErrTruncated is returned whenever fewer bytes remain in the cursor than
// the requested read needs.
var ErrTruncated = errors.New("reader: truncated input")

// Cursor is a byte slice plus a mutable read position.
type Cursor struct {
	data []byte
	pos  int
}

// New wraps data in a Cursor starting at position 0.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current byte offset into the underlying buffer.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the number of unread bytes remaining.
func (c *Cursor) Len() int {
	return len(c.data) - c.pos
}

func (c *Cursor) need(n int) error {
	if c.Len() < n {
		return ErrTruncated
	}
	return nil
}

// ReadU8 reads one unsigned byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// ReadU16 reads a big-endian 16-bit unsigned value.
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := uint16(c.data[c.pos])<<8 | uint16(c.data[c.pos+1])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian 32-bit unsigned value.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := uint32(c.data[c.pos])<<24 | uint32(c.data[c.pos+1])<<16 |
		uint32(c.data[c.pos+2])<<8 | uint32(c.data[c.pos+3])
	c.pos += 4
	return v, nil
}

// ReadU64 reads a big-endian 64-bit unsigned value.
func (c *Cursor) ReadU64() (uint64, error) {
	hi, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	lo, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// ReadI32 reads a 32-bit value and reinterprets it as signed.
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

// ReadI64 reads a 64-bit value and reinterprets it as signed.
func (c *Cursor) ReadI64() (int64, error) {
	v, err := c.ReadU64()
	return int64(v), err
}

// ReadF32 reads a 32-bit value and reinterprets its bits as an IEEE-754 float.
func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads a 64-bit value and reinterprets its bits as an IEEE-754 double.
func (c *Cursor) ReadF64() (float64, error) {
	v, err := c.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadBytes consumes and returns the next n raw bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrTruncated
	}
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// ReadString consumes exactly lengthBytes bytes and decodes them as
// Modified UTF-8 into a sequence of 16-bit code units, per the JVM class
// file spec's CONSTANT_Utf8_info encoding. Only the 1-, 2-, and 3-byte
// forms are supported (supplementary six-byte surrogate pairs are a
// documented non-goal).
func (c *Cursor) ReadString(lengthBytes int) ([]uint16, error) {
	raw, err := c.ReadBytes(lengthBytes)
	if err != nil {
		return nil, err
	}
	units := make([]uint16, 0, lengthBytes)
	for i := 0; i < len(raw); {
		x := raw[i]
		switch {
		case x <= 0x7f:
			units = append(units, uint16(x))
			i++
		case x >= 0xc0 && x <= 0xdf:
			if i+1 >= len(raw) {
				return nil, ErrTruncated
			}
			y := raw[i+1]
			units = append(units, uint16(x&0x1f)<<6|uint16(y&0x3f))
			i += 2
		case x >= 0xe0 && x <= 0xef:
			if i+2 >= len(raw) {
				return nil, ErrTruncated
			}
			y, z := raw[i+1], raw[i+2]
			units = append(units, uint16(x&0x0f)<<12|uint16(y&0x3f)<<6|uint16(z&0x3f))
			i += 3
		default:
			// Not a valid Modified UTF-8 lead byte for the supported forms;
			// carried through as a single raw unit rather than failing the
			// whole class.
			units = append(units, uint16(x))
			i++
		}
	}
	return units, nil
}

// UTF16ToString converts a Modified-UTF-8-decoded code-unit sequence into a
// Go string, for display and comparison purposes. Surrogate pairs are not
// interpreted (Modified UTF-8 here is limited to the BMP).
func UTF16ToString(units []uint16) string {
	runes := make([]rune, len(units))
	for i, u := range units {
		runes[i] = rune(u)
	}
	return string(runes)
}
