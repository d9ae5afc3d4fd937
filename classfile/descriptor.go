/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package classfile

import "strings"

// FieldType classifies a single field descriptor letter
// (B/C/D/F/I/J/S/Z/L/[, per JVMS §4.3.2).
type FieldType byte

const (
	TypeByte    FieldType = 'B'
	TypeChar    FieldType = 'C'
	TypeDouble  FieldType = 'D'
	TypeFloat   FieldType = 'F'
	TypeInt     FieldType = 'I'
	TypeLong    FieldType = 'J'
	TypeShort   FieldType = 'S'
	TypeBoolean FieldType = 'Z'
	TypeClass   FieldType = 'L'
	TypeArray   FieldType = '['
)

// IsWide reports whether a value of this descriptor occupies two operand
// stack slots / two local variable slots (Long, Double).
func (t FieldType) IsWide() bool {
	return t == TypeLong || t == TypeDouble
}

// DescribeField renders a field descriptor (e.g. "I", "[Ljava/lang/String;")
// as a human-readable type name, for use by cmd/classdump.
func DescribeField(descriptor string) string {
	t, rest := describeOne(descriptor)
	_ = rest
	return t
}

func describeOne(d string) (rendered string, rest string) {
	if d == "" {
		return "<empty descriptor>", ""
	}
	switch FieldType(d[0]) {
	case TypeByte:
		return "byte", d[1:]
	case TypeChar:
		return "char", d[1:]
	case TypeDouble:
		return "double", d[1:]
	case TypeFloat:
		return "float", d[1:]
	case TypeInt:
		return "int", d[1:]
	case TypeLong:
		return "long", d[1:]
	case TypeShort:
		return "short", d[1:]
	case TypeBoolean:
		return "boolean", d[1:]
	case TypeArray:
		inner, rest := describeOne(d[1:])
		return inner + "[]", rest
	case TypeClass:
		end := strings.IndexByte(d, ';')
		if end < 0 {
			return "<malformed class descriptor>", ""
		}
		className := strings.ReplaceAll(d[1:end], "/", ".")
		return className, d[end+1:]
	default:
		return "<unknown:" + d + ">", ""
	}
}

// DescribeMethod renders a method descriptor (e.g. "(ILjava/lang/String;)V")
// as a Java-like signature fragment: "(int, java.lang.String) -> void".
func DescribeMethod(descriptor string) string {
	if len(descriptor) == 0 || descriptor[0] != '(' {
		return "<malformed method descriptor:" + descriptor + ">"
	}
	d := descriptor[1:]
	var params []string
	for len(d) > 0 && d[0] != ')' {
		var rendered string
		rendered, d = describeOne(d)
		params = append(params, rendered)
	}
	if len(d) == 0 {
		return "<malformed method descriptor:" + descriptor + ">"
	}
	d = d[1:] // consume ')'

	var ret string
	if d == "V" {
		ret = "void"
	} else {
		ret, _ = describeOne(d)
	}
	return "(" + strings.Join(params, ", ") + ") -> " + ret
}
