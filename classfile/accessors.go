/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package classfile

// Accessors resolve constant pool cross-references on behalf of a host:
// class, superclass, and interface names, related (inner) classes, member
// names and descriptors, and the ref-entry chains bytecode indexes into.
// Each accessor matches on the entry's concrete type and fails loudly on
// a mismatch; there is no untyped indirection to read through.

// ClassName resolves this_class to its name.
func (ci *ClassInfo) ClassName() (string, error) {
	return ci.classNameAt(ci.ThisClass)
}

// SuperClassName resolves super_class to its name, or "" with no error if
// this class has no superclass (only true of java.lang.Object).
func (ci *ClassInfo) SuperClassName() (string, error) {
	if ci.SuperClass == 0 {
		return "", nil
	}
	return ci.classNameAt(ci.SuperClass)
}

// InterfaceCount returns the number of directly implemented interfaces.
func (ci *ClassInfo) InterfaceCount() int {
	return len(ci.Interfaces)
}

// InterfaceName resolves the name of the interface at the given index into
// the Interfaces list (not a constant pool index).
func (ci *ClassInfo) InterfaceName(index int) (string, error) {
	if index < 0 || index >= len(ci.Interfaces) {
		return "", cfe(BadCrossReference, "interface index out of range")
	}
	return ci.classNameAt(ci.Interfaces[index])
}

// classNameAt resolves a constant pool index expected to hold a CpClass
// entry into the class's binary name.
func (ci *ClassInfo) classNameAt(cpIndex uint16) (string, error) {
	cls, err := classAt(ci.ConstantPool, cpIndex)
	if err != nil {
		return "", err
	}
	return utf8At(ci.ConstantPool, cls.NameIndex)
}

// innerClasses returns the class's InnerClasses attribute, or nil if it
// has none.
func (ci *ClassInfo) innerClasses() *InnerClassesAttribute {
	for _, a := range ci.Attributes {
		if ic, ok := a.(*InnerClassesAttribute); ok {
			return ic
		}
	}
	return nil
}

// RelatedClassCount returns the number of related-class entries recorded in
// this class's InnerClasses attribute (0 if it has none).
func (ci *ClassInfo) RelatedClassCount() int {
	if attr := ci.innerClasses(); attr != nil {
		return len(attr.RelatedClassInfoIndexes)
	}
	return 0
}

// RelatedClassName resolves the name of the related class at the given
// index into the InnerClasses attribute's RelatedClassInfoIndexes.
func (ci *ClassInfo) RelatedClassName(index int) (string, error) {
	attr := ci.innerClasses()
	if attr == nil || index < 0 || index >= len(attr.RelatedClassInfoIndexes) {
		return "", cfe(BadCrossReference, "related class index out of range")
	}
	return ci.classNameAt(attr.RelatedClassInfoIndexes[index])
}

// FieldName resolves a FieldInfo's name_index.
func (ci *ClassInfo) FieldName(f *FieldInfo) (string, error) {
	return utf8At(ci.ConstantPool, f.NameIndex)
}

// FieldDescriptor resolves a FieldInfo's descriptor_index.
func (ci *ClassInfo) FieldDescriptor(f *FieldInfo) (string, error) {
	return utf8At(ci.ConstantPool, f.DescriptorIndex)
}

// MethodName resolves a MethodInfo's name_index.
func (ci *ClassInfo) MethodName(m *MethodInfo) (string, error) {
	return utf8At(ci.ConstantPool, m.NameIndex)
}

// MethodDescriptor resolves a MethodInfo's descriptor_index.
func (ci *ClassInfo) MethodDescriptor(m *MethodInfo) (string, error) {
	return utf8At(ci.ConstantPool, m.DescriptorIndex)
}

// MethodByNameAndDescriptor finds a declared method by its exact name and
// descriptor, the lookup a call site needs before it can build a Frame for
// invocation. Returns ErrNotFound if no method matches.
func (ci *ClassInfo) MethodByNameAndDescriptor(name, descriptor string) (*MethodInfo, error) {
	for i := range ci.Methods {
		m := &ci.Methods[i]
		n, err := ci.MethodName(m)
		if err != nil {
			return nil, err
		}
		if n != name {
			continue
		}
		d, err := ci.MethodDescriptor(m)
		if err != nil {
			return nil, err
		}
		if d == descriptor {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

// ResolvedMethodref is the fully resolved identity of a Methodref or
// InterfaceMethodref constant pool entry: the owning class's name, the
// method's name, and its descriptor.
type ResolvedMethodref struct {
	ClassName  string
	MethodName string
	Descriptor string
}

// ResolveMethodref follows a Methodref or InterfaceMethodref constant pool
// entry through its class_index and name_and_type_index to a
// ResolvedMethodref.
func (ci *ClassInfo) ResolveMethodref(cpIndex uint16) (ResolvedMethodref, error) {
	if int(cpIndex) >= len(ci.ConstantPool) {
		return ResolvedMethodref{}, cfe(BadCrossReference, "methodref index out of range")
	}

	var classIndex, nameAndTypeIndex uint16
	switch e := ci.ConstantPool[cpIndex].(type) {
	case CpMethodref:
		classIndex, nameAndTypeIndex = e.ClassIndex, e.NameAndTypeIndex
	case CpInterfaceMethodref:
		classIndex, nameAndTypeIndex = e.ClassIndex, e.NameAndTypeIndex
	default:
		return ResolvedMethodref{}, cfe(BadCrossReference, "expected a Methodref or InterfaceMethodref entry")
	}

	className, err := ci.classNameAt(classIndex)
	if err != nil {
		return ResolvedMethodref{}, err
	}
	methodName, descriptor, err := ci.nameAndTypeAt(nameAndTypeIndex)
	if err != nil {
		return ResolvedMethodref{}, err
	}
	return ResolvedMethodref{ClassName: className, MethodName: methodName, Descriptor: descriptor}, nil
}

// ResolveFieldref follows a Fieldref constant pool entry to its owning
// class name, field name, and descriptor.
func (ci *ClassInfo) ResolveFieldref(cpIndex uint16) (ResolvedMethodref, error) {
	if int(cpIndex) >= len(ci.ConstantPool) {
		return ResolvedMethodref{}, cfe(BadCrossReference, "fieldref index out of range")
	}
	e, ok := ci.ConstantPool[cpIndex].(CpFieldref)
	if !ok {
		return ResolvedMethodref{}, cfe(BadCrossReference, "expected a Fieldref entry")
	}
	className, err := ci.classNameAt(e.ClassIndex)
	if err != nil {
		return ResolvedMethodref{}, err
	}
	fieldName, descriptor, err := ci.nameAndTypeAt(e.NameAndTypeIndex)
	if err != nil {
		return ResolvedMethodref{}, err
	}
	return ResolvedMethodref{ClassName: className, MethodName: fieldName, Descriptor: descriptor}, nil
}

func (ci *ClassInfo) nameAndTypeAt(cpIndex uint16) (name, descriptor string, err error) {
	if int(cpIndex) >= len(ci.ConstantPool) {
		return "", "", cfe(BadCrossReference, "name_and_type index out of range")
	}
	nt, ok := ci.ConstantPool[cpIndex].(CpNameAndType)
	if !ok {
		return "", "", cfe(BadCrossReference, "expected a NameAndType entry")
	}
	if name, err = utf8At(ci.ConstantPool, nt.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = utf8At(ci.ConstantPool, nt.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// ResolveClassName resolves any CpClass constant pool entry to its binary
// class name, the operation `new`, `checkcast`, and `instanceof` need.
func (ci *ClassInfo) ResolveClassName(cpIndex uint16) (string, error) {
	return ci.classNameAt(cpIndex)
}

// ResolveString resolves a CpString constant pool entry to its backing
// Utf8 text, the operation `ldc` needs for string literals.
func (ci *ClassInfo) ResolveString(cpIndex uint16) (string, error) {
	if int(cpIndex) >= len(ci.ConstantPool) {
		return "", cfe(BadCrossReference, "string index out of range")
	}
	s, ok := ci.ConstantPool[cpIndex].(CpString)
	if !ok {
		return "", cfe(BadCrossReference, "expected a String entry")
	}
	return utf8At(ci.ConstantPool, s.StringIndex)
}
