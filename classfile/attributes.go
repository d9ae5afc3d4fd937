/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package classfile

import (
	"jvmcore/reader"
)

const innerClassesAttrName = "InnerClasses"
const codeAttrName = "Code"

// decodeAttributes reads `count` attributes in sequence, dispatching each
// by its name: InnerClasses and Code are interpreted; everything else
// becomes a RawAttribute carrying its undecoded bytes.
func decodeAttributes(cp []CpEntry, c *reader.Cursor, count uint16) ([]AttributeInfo, error) {
	attrs := make([]AttributeInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		attr, err := decodeAttribute(cp, c)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func decodeAttribute(cp []CpEntry, c *reader.Cursor) (AttributeInfo, error) {
	nameIndex, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	length, err := c.ReadU32()
	if err != nil {
		return nil, err
	}

	name, err := utf8At(cp, nameIndex)
	if err != nil {
		return nil, cfe(BadCrossReference, "attribute name_index does not reference a Utf8 entry")
	}

	switch name {
	case innerClassesAttrName:
		return decodeInnerClasses(c, nameIndex)
	case codeAttrName:
		return decodeCode(cp, c, nameIndex)
	default:
		content, err := c.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		return &RawAttribute{NameIndex: nameIndex, Length: length, Content: content}, nil
	}
}

// decodeInnerClasses reads the number_of_classes entry quads and flattens
// them into RelatedClassInfoIndexes: each entry contributes its inner
// index, plus its outer index when that is nonzero.
func decodeInnerClasses(c *reader.Cursor, nameIndex uint16) (*InnerClassesAttribute, error) {
	numberOfClasses, err := c.ReadU16()
	if err != nil {
		return nil, err
	}

	attr := &InnerClassesAttribute{NameIndex: nameIndex}
	attr.Classes = make([]InnerClassEntry, 0, numberOfClasses)
	for i := uint16(0); i < numberOfClasses; i++ {
		inner, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		outer, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		innerName, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		accessFlags, err := c.ReadU16()
		if err != nil {
			return nil, err
		}

		entry := InnerClassEntry{
			InnerClassInfoIndex:   inner,
			OuterClassInfoIndex:   outer,
			InnerNameIndex:        innerName,
			InnerClassAccessFlags: accessFlags,
		}
		attr.Classes = append(attr.Classes, entry)

		attr.RelatedClassInfoIndexes = append(attr.RelatedClassInfoIndexes, inner)
		if outer != 0 {
			attr.RelatedClassInfoIndexes = append(attr.RelatedClassInfoIndexes, outer)
		}
	}
	return attr, nil
}

// decodeCode reads a Code attribute: max_stack, max_locals, the bytecode,
// the exception table, and the attribute's own nested attributes.
func decodeCode(cp []CpEntry, c *reader.Cursor, nameIndex uint16) (*CodeAttribute, error) {
	maxStack, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	codeLength, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	code, err := c.ReadBytes(int(codeLength))
	if err != nil {
		return nil, err
	}

	exceptionTableLength, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	exceptions := make([]ExceptionTableEntry, 0, exceptionTableLength)
	for i := uint16(0); i < exceptionTableLength; i++ {
		startPC, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		endPC, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		handlerPC, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		catchType, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		exceptions = append(exceptions, ExceptionTableEntry{
			StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC, CatchType: catchType,
		})
	}

	attributesCount, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	nested, err := decodeAttributes(cp, c, attributesCount)
	if err != nil {
		return nil, err
	}

	return &CodeAttribute{
		NameIndex:      nameIndex,
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           code,
		ExceptionTable: exceptions,
		Attributes:     nested,
	}, nil
}

// utf8At resolves a constant pool index that is expected to reference a
// Utf8 entry, returning its decoded string.
func utf8At(cp []CpEntry, index uint16) (string, error) {
	if int(index) >= len(cp) {
		return "", cfe(BadCrossReference, "constant pool index out of range")
	}
	u, ok := cp[index].(CpUtf8)
	if !ok {
		return "", cfe(BadCrossReference, "expected a Utf8 constant pool entry")
	}
	return u.String(), nil
}
