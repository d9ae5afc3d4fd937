/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package vm

// Host is everything the interpreter calls out to rather than implements
// itself: object model, method dispatch, and native bridging are a host
// responsibility, not the interpreter's. This keeps the interpreter pure
// over the opcodes it defines.
type Host interface {
	// ExecuteOp handles any opcode this interpreter does not implement
	// natively (invokes, field/array access, object creation, returns,
	// and anything beyond this package's scope). Returning 0 means
	// "continue interpreting"; a nonzero return unwinds Execute with that
	// value.
	ExecuteOp(ctx *Context, opcode byte) int32

	// Throw requests that the host raise a Java exception of the given
	// class, with the given message. Used for ArithmeticException (divide
	// by zero) and unsupported wide forms; the interpreter itself never
	// unwinds on these.
	Throw(className, message string)
}
