/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package vm

// Kind tags a Word with its JVM operand type. Empty tags the filler cell a
// Long or Double leaves behind; it is never meaningfully read.
type Kind uint8

const (
	Empty Kind = iota
	Int
	Float
	Long
	Double
	Ref
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Long:
		return "Long"
	case Double:
		return "Double"
	case Ref:
		return "Ref"
	default:
		return "Unknown"
	}
}

// Word is a single JVM operand stack / local variable cell. Long and
// Double values occupy this plus one adjacent Empty cell (see Frame's
// paired push/pop helpers).
type Word struct {
	Kind Kind
	I    int32
	F    float32
	L    int64
	D    float64
	A    uint32 // opaque reference handle; object identity is a host concern
}

func WordEmpty() Word { return Word{Kind: Empty} }
func WordInt(v int32) Word { return Word{Kind: Int, I: v} }
func WordFloat(v float32) Word { return Word{Kind: Float, F: v} }
func WordLong(v int64) Word { return Word{Kind: Long, L: v} }
func WordDouble(v float64) Word { return Word{Kind: Double, D: v} }
func WordRef(v uint32) Word { return Word{Kind: Ref, A: v} }

// IsWide reports whether this Word's Kind occupies two stack/local cells.
func (w Word) IsWide() bool {
	return w.Kind == Long || w.Kind == Double
}
