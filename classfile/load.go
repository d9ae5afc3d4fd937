/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package classfile

import (
	"errors"
	"fmt"

	"jvmcore/internal/logx"
	"jvmcore/reader"
)

// Load decodes a class file presented as a byte slice into a fully parsed,
// immutable ClassInfo. It either returns a complete ClassInfo or a
// failure; partial parses are never exposed.
func Load(data []byte) (*ClassInfo, error) {
	c := reader.New(data)

	info := &ClassInfo{}

	magic, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	if magic != ExpectedMagic {
		return nil, cfe(BadMagic, fmt.Sprintf("got 0x%08X, want 0x%08X", magic, ExpectedMagic))
	}
	info.Magic = magic

	if info.MinorVersion, err = c.ReadU16(); err != nil {
		return nil, err
	}
	if info.MajorVersion, err = c.ReadU16(); err != nil {
		return nil, err
	}

	constantPoolCount, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	pool, err := decodeConstantPool(c, constantPoolCount)
	if err != nil {
		return nil, err
	}
	info.ConstantPool = pool
	logx.Trace("classfile: constant pool decoded", "count", len(pool))

	if info.AccessFlags, err = c.ReadU16(); err != nil {
		return nil, err
	}
	if info.ThisClass, err = c.ReadU16(); err != nil {
		return nil, err
	}
	if info.SuperClass, err = c.ReadU16(); err != nil {
		return nil, err
	}

	interfacesCount, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	info.Interfaces = make([]uint16, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		if info.Interfaces[i], err = c.ReadU16(); err != nil {
			return nil, err
		}
	}

	if info.Fields, err = decodeFields(pool, c); err != nil {
		return nil, err
	}
	if info.Methods, err = decodeMethods(pool, c); err != nil {
		return nil, err
	}
	logx.Trace("classfile: fields and methods decoded",
		"fields", len(info.Fields), "methods", len(info.Methods))

	classAttrCount, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	if info.Attributes, err = decodeAttributes(pool, c, classAttrCount); err != nil {
		return nil, err
	}

	if err := validateCrossReferences(info); err != nil {
		return nil, err
	}

	return info, nil
}

// decodeConstantPool reads, for each slot i in 1..constantPoolCount, the
// tag byte and then the tag-dependent payload. Long and Double entries
// occupy two slots; the filler slot after each is a CpEmpty, which must
// never be dereferenced.
func decodeConstantPool(c *reader.Cursor, constantPoolCount uint16) ([]CpEntry, error) {
	pool := make([]CpEntry, constantPoolCount)
	pool[0] = CpEmpty{} // slot 0 is never a valid dereference target

	for i := uint16(1); i < constantPoolCount; i++ {
		tag, err := c.ReadU8()
		if err != nil {
			return nil, err
		}

		switch tag {
		case TagUtf8:
			length, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			units, err := c.ReadString(int(length))
			if err != nil {
				return nil, err
			}
			pool[i] = CpUtf8{Value: units}

		case TagInteger:
			v, err := c.ReadI32()
			if err != nil {
				return nil, err
			}
			pool[i] = CpInteger{Value: v}

		case TagFloat:
			v, err := c.ReadF32()
			if err != nil {
				return nil, err
			}
			pool[i] = CpFloat{Value: v}

		case TagLong:
			v, err := c.ReadI64()
			if err != nil {
				return nil, err
			}
			pool[i] = CpLong{Value: v}
			i++
			if i < constantPoolCount {
				pool[i] = CpEmpty{}
			}

		case TagDouble:
			v, err := c.ReadF64()
			if err != nil {
				return nil, err
			}
			pool[i] = CpDouble{Value: v}
			i++
			if i < constantPoolCount {
				pool[i] = CpEmpty{}
			}

		case TagClass:
			nameIndex, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			pool[i] = CpClass{NameIndex: nameIndex}

		case TagString:
			stringIndex, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			pool[i] = CpString{StringIndex: stringIndex}

		case TagFieldref:
			classIndex, nameAndTypeIndex, err := readClassAndNameAndType(c)
			if err != nil {
				return nil, err
			}
			pool[i] = CpFieldref{ClassIndex: classIndex, NameAndTypeIndex: nameAndTypeIndex}

		case TagMethodref:
			classIndex, nameAndTypeIndex, err := readClassAndNameAndType(c)
			if err != nil {
				return nil, err
			}
			pool[i] = CpMethodref{ClassIndex: classIndex, NameAndTypeIndex: nameAndTypeIndex}

		case TagInterfaceMethodref:
			classIndex, nameAndTypeIndex, err := readClassAndNameAndType(c)
			if err != nil {
				return nil, err
			}
			pool[i] = CpInterfaceMethodref{ClassIndex: classIndex, NameAndTypeIndex: nameAndTypeIndex}

		case TagNameAndType:
			nameIndex, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			descriptorIndex, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			pool[i] = CpNameAndType{NameIndex: nameIndex, DescriptorIndex: descriptorIndex}

		default:
			return nil, cfe(BadTag, fmt.Sprintf("unrecognized constant pool tag %d at index %d", tag, i))
		}
	}
	return pool, nil
}

func readClassAndNameAndType(c *reader.Cursor) (classIndex, nameAndTypeIndex uint16, err error) {
	if classIndex, err = c.ReadU16(); err != nil {
		return 0, 0, err
	}
	if nameAndTypeIndex, err = c.ReadU16(); err != nil {
		return 0, 0, err
	}
	return classIndex, nameAndTypeIndex, nil
}

// member carries one decoded field_info/method_info record before it is
// given its concrete type; fields and methods share an identical on-disk
// shape (JVMS §4.5/§4.6), so decodeFields and decodeMethods both lean on
// decodeMember.
type member struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func decodeMember(pool []CpEntry, c *reader.Cursor) (member, error) {
	accessFlags, err := c.ReadU16()
	if err != nil {
		return member{}, err
	}
	nameIndex, err := c.ReadU16()
	if err != nil {
		return member{}, err
	}
	descriptorIndex, err := c.ReadU16()
	if err != nil {
		return member{}, err
	}
	attrCount, err := c.ReadU16()
	if err != nil {
		return member{}, err
	}
	attrs, err := decodeAttributes(pool, c, attrCount)
	if err != nil {
		return member{}, err
	}
	return member{
		AccessFlags:     accessFlags,
		NameIndex:       nameIndex,
		DescriptorIndex: descriptorIndex,
		Attributes:      attrs,
	}, nil
}

func decodeFields(pool []CpEntry, c *reader.Cursor) ([]FieldInfo, error) {
	count, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	out := make([]FieldInfo, count)
	for i := range out {
		m, err := decodeMember(pool, c)
		if err != nil {
			return nil, err
		}
		out[i] = FieldInfo(m)
	}
	return out, nil
}

func decodeMethods(pool []CpEntry, c *reader.Cursor) ([]MethodInfo, error) {
	count, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	out := make([]MethodInfo, count)
	for i := range out {
		m, err := decodeMember(pool, c)
		if err != nil {
			return nil, err
		}
		out[i] = MethodInfo(m)
	}
	return out, nil
}

// validateCrossReferences checks that this_class, super_class (when
// nonzero), and every interface index reference a CpClass entry.
func validateCrossReferences(info *ClassInfo) error {
	if _, err := classAt(info.ConstantPool, info.ThisClass); err != nil {
		return err
	}
	if info.SuperClass != 0 {
		if _, err := classAt(info.ConstantPool, info.SuperClass); err != nil {
			return err
		}
	}
	for _, ifaceIndex := range info.Interfaces {
		if _, err := classAt(info.ConstantPool, ifaceIndex); err != nil {
			return err
		}
	}
	return nil
}

func classAt(pool []CpEntry, index uint16) (CpClass, error) {
	if int(index) >= len(pool) {
		return CpClass{}, cfe(BadCrossReference, "class index out of range")
	}
	cls, ok := pool[index].(CpClass)
	if !ok {
		return CpClass{}, cfe(BadCrossReference, "expected a Class constant pool entry")
	}
	return cls, nil
}

// ErrNotFound is returned by lookups such as ClassInfo.MethodByNameAndDescriptor
// when no matching member exists.
var ErrNotFound = errors.New("classfile: not found")
