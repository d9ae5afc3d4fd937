/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildClassWithMethod assembles a class with one method, `add`, whose
// descriptor is "(II)I", a Methodref pointing at it, and a NameAndType/Utf8
// backing chain — enough to exercise ResolveMethodref, MethodByNameAndDescriptor,
// and the descriptor renderer end to end.
func buildClassWithMethod() []byte {
	var b []byte
	u16 := func(v uint16) { b = append(b, byte(v>>8), byte(v)) }
	u32 := func(v uint32) { b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }
	utf8 := func(s string) {
		b = append(b, TagUtf8)
		u16(uint16(len(s)))
		b = append(b, s...)
	}

	u32(ExpectedMagic)
	u16(0)
	u16(52)

	// Pool slots:
	// 1 Utf8 "com/example/Adder"     2 Class->1
	// 3 Utf8 "java/lang/Object"      4 Class->3
	// 5 Utf8 "add"                   6 Utf8 "(II)I"
	// 7 NameAndType(5,6)             8 Methodref(2,7)
	u16(9)
	utf8("com/example/Adder")
	b = append(b, TagClass)
	u16(1)
	utf8("java/lang/Object")
	b = append(b, TagClass)
	u16(3)
	utf8("add")
	utf8("(II)I")
	b = append(b, TagNameAndType)
	u16(5)
	u16(6)
	b = append(b, TagMethodref)
	u16(2)
	u16(7)

	u16(0) // access_flags
	u16(2) // this_class
	u16(4) // super_class
	u16(0) // interfaces_count
	u16(0) // fields_count

	u16(1)    // methods_count
	u16(0x09) // method access_flags (public static)
	u16(5)    // name_index -> "add"
	u16(6)    // descriptor_index -> "(II)I"
	u16(0)    // attributes_count (no Code attribute in this fixture)

	u16(0) // class attributes_count
	return b
}

func TestResolveMethodref(t *testing.T) {
	info, err := Load(buildClassWithMethod())
	require.NoError(t, err)

	resolved, err := info.ResolveMethodref(8)
	require.NoError(t, err)
	assert.Equal(t, "com/example/Adder", resolved.ClassName)
	assert.Equal(t, "add", resolved.MethodName)
	assert.Equal(t, "(II)I", resolved.Descriptor)
}

func TestMethodByNameAndDescriptor(t *testing.T) {
	info, err := Load(buildClassWithMethod())
	require.NoError(t, err)

	m, err := info.MethodByNameAndDescriptor("add", "(II)I")
	require.NoError(t, err)
	require.NotNil(t, m)

	name, err := info.MethodName(m)
	require.NoError(t, err)
	assert.Equal(t, "add", name)

	_, err = info.MethodByNameAndDescriptor("subtract", "(II)I")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDescribeMethodDescriptor(t *testing.T) {
	info, err := Load(buildClassWithMethod())
	require.NoError(t, err)

	m, err := info.MethodByNameAndDescriptor("add", "(II)I")
	require.NoError(t, err)
	descriptor, err := info.MethodDescriptor(m)
	require.NoError(t, err)

	assert.Equal(t, "(int, int) -> int", DescribeMethod(descriptor))
}

func TestDescribeFieldDescriptors(t *testing.T) {
	assert.Equal(t, "int", DescribeField("I"))
	assert.Equal(t, "int[]", DescribeField("[I"))
	assert.Equal(t, "java.lang.String", DescribeField("Ljava/lang/String;"))
	assert.Equal(t, "java.lang.String[]", DescribeField("[Ljava/lang/String;"))
}

func TestRelatedClassNamesFromInnerClasses(t *testing.T) {
	var b []byte
	u16 := func(v uint16) { b = append(b, byte(v>>8), byte(v)) }
	u32 := func(v uint32) { b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }
	utf8 := func(s string) {
		b = append(b, TagUtf8)
		u16(uint16(len(s)))
		b = append(b, s...)
	}

	u32(ExpectedMagic)
	u16(0)
	u16(52)

	// Pool: 1 Utf8 Outer, 2 Class->1, 3 Utf8 Object, 4 Class->3,
	// 5 Utf8 "Outer$Inner", 6 Class->5, 7 Utf8 "InnerClasses"
	u16(8)
	utf8("com/example/Outer")
	b = append(b, TagClass)
	u16(1)
	utf8("java/lang/Object")
	b = append(b, TagClass)
	u16(3)
	utf8("com/example/Outer$Inner")
	b = append(b, TagClass)
	u16(5)
	utf8(innerClassesAttrName)

	u16(0) // access_flags
	u16(2) // this_class
	u16(4) // super_class
	u16(0) // interfaces_count
	u16(0) // fields_count
	u16(0) // methods_count

	u16(1) // class attributes_count
	u16(7) // attribute_name_index -> "InnerClasses"
	length := 2 + 4*2
	u32(uint32(length))
	u16(1) // number_of_classes
	u16(6) // inner_class_info_index -> Outer$Inner
	u16(2) // outer_class_info_index -> Outer
	u16(0) // inner_name_index
	u16(0) // inner_class_access_flags

	info, err := Load(b)
	require.NoError(t, err)

	assert.Equal(t, 2, info.RelatedClassCount())

	first, err := info.RelatedClassName(0)
	require.NoError(t, err)
	assert.Equal(t, "com/example/Outer$Inner", first)

	second, err := info.RelatedClassName(1)
	require.NoError(t, err)
	assert.Equal(t, "com/example/Outer", second)
}
