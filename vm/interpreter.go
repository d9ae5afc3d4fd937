/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package vm

import (
	"math"

	"jvmcore/internal/logx"
)

// Execute runs ctx.CurrentFrame until an opcode this package does not
// implement natively is reached, at which point it delegates to
// host.ExecuteOp. A zero return from the host means "keep interpreting";
// nonzero unwinds Execute with that value.
//
// Operand stack overflow/underflow (Frame.PushRaw/PopRaw) panic rather
// than corrupt adjacent state; Execute recovers that panic and surfaces
// it as an error instead of crashing the host process.
func Execute(ctx *Context, host Host) (result int32, err error) {
	defer func() {
		if r := recover(); r != nil {
			if sf, ok := r.(stackFault); ok {
				err = sf
				return
			}
			panic(r)
		}
	}()
	return executeLoop(ctx, host), nil
}

// throwAndLog delegates to host.Throw and mirrors the request to the
// package logger at Warn level, so a host with no exception-display logic
// of its own still leaves a visible trace of the condition.
func throwAndLog(host Host, className, message string) {
	logx.Warn("vm: exception raised", "class", className, "message", message)
	host.Throw(className, message)
}

func executeLoop(ctx *Context, host Host) int32 {
	for {
		f := ctx.CurrentFrame
		opcodeAddr := f.IP
		op := f.Read8()

		switch op {
		case Nop:
			// no-op

		case AconstNull:
			f.Push(WordRef(0))

		case IconstM1, Iconst0, Iconst1, Iconst2, Iconst3, Iconst4, Iconst5:
			f.Push(WordInt(int32(op) - 0x03))

		case Lconst0, Lconst1:
			f.Push(WordLong(int64(op) - 0x09))

		case Fconst0, Fconst1, Fconst2:
			f.Push(WordFloat(float32(op) - 0x0B))

		case Dconst0, Dconst1:
			f.Push(WordDouble(float64(op) - 0x0E))

		case Bipush:
			f.Push(WordInt(int32(f.Read8Signed())))

		case Sipush:
			f.Push(WordInt(int32(f.Read16Signed())))

		// Loads push a copy of the local's cell; stores move the popped
		// cell into the local unchanged. Neither re-tags by opcode family,
		// so a jsr return address (an Int cell) survives the astore_<n>/ret
		// round trip javac emits for subroutines.
		case Iload, Lload, Fload, Dload, Aload:
			f.Push(f.GetLocal(int(f.Read8())))

		case Iload0, Iload1, Iload2, Iload3:
			f.Push(f.GetLocal(int(op) - Iload0))
		case Lload0, Lload1, Lload2, Lload3:
			f.Push(f.GetLocal(int(op) - Lload0))
		case Fload0, Fload1, Fload2, Fload3:
			f.Push(f.GetLocal(int(op) - Fload0))
		case Dload0, Dload1, Dload2, Dload3:
			f.Push(f.GetLocal(int(op) - Dload0))
		case Aload0, Aload1, Aload2, Aload3:
			f.Push(f.GetLocal(int(op) - Aload0))

		case Istore, Lstore, Fstore, Dstore, Astore:
			f.SetLocal(int(f.Read8()), f.Pop())

		case Istore0, Istore1, Istore2, Istore3:
			f.SetLocal(int(op)-Istore0, f.Pop())
		case Lstore0, Lstore1, Lstore2, Lstore3:
			f.SetLocal(int(op)-Lstore0, f.Pop())
		case Fstore0, Fstore1, Fstore2, Fstore3:
			f.SetLocal(int(op)-Fstore0, f.Pop())
		case Dstore0, Dstore1, Dstore2, Dstore3:
			f.SetLocal(int(op)-Dstore0, f.Pop())
		case Astore0, Astore1, Astore2, Astore3:
			f.SetLocal(int(op)-Astore0, f.Pop())

		case Pop:
			f.PopRaw()
		case Pop2:
			f.PopRaw()
			f.PopRaw()
		case Dup:
			w := f.PopRaw()
			f.PushRaw(w)
			f.PushRaw(w)
		case DupX1:
			w1 := f.PopRaw()
			w2 := f.PopRaw()
			f.PushRaw(w1)
			f.PushRaw(w2)
			f.PushRaw(w1)
		case DupX2:
			w1 := f.PopRaw()
			w2 := f.PopRaw()
			w3 := f.PopRaw()
			f.PushRaw(w1)
			f.PushRaw(w3)
			f.PushRaw(w2)
			f.PushRaw(w1)
		case Dup2:
			w1 := f.PopRaw()
			w2 := f.PopRaw()
			f.PushRaw(w2)
			f.PushRaw(w1)
			f.PushRaw(w2)
			f.PushRaw(w1)
		case Dup2X1:
			w1 := f.PopRaw()
			w2 := f.PopRaw()
			w3 := f.PopRaw()
			f.PushRaw(w2)
			f.PushRaw(w1)
			f.PushRaw(w3)
			f.PushRaw(w2)
			f.PushRaw(w1)
		case Dup2X2:
			w1 := f.PopRaw()
			w2 := f.PopRaw()
			w3 := f.PopRaw()
			w4 := f.PopRaw()
			f.PushRaw(w2)
			f.PushRaw(w1)
			f.PushRaw(w4)
			f.PushRaw(w3)
			f.PushRaw(w2)
			f.PushRaw(w1)
		case Swap:
			w1 := f.PopRaw()
			w2 := f.PopRaw()
			f.PushRaw(w1)
			f.PushRaw(w2)

		case Iinc:
			idx := int(f.Read8())
			delta := int32(f.Read8Signed())
			f.SetLocal(idx, WordInt(f.GetLocal(idx).I+delta))

		case Iadd:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(a + b))
		case Ladd:
			b, a := f.Pop().L, f.Pop().L
			f.Push(WordLong(a + b))
		case Fadd:
			b, a := f.Pop().F, f.Pop().F
			f.Push(WordFloat(a + b))
		case Dadd:
			b, a := f.Pop().D, f.Pop().D
			f.Push(WordDouble(a + b))

		case Isub:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(a - b))
		case Lsub:
			b, a := f.Pop().L, f.Pop().L
			f.Push(WordLong(a - b))
		case Fsub:
			b, a := f.Pop().F, f.Pop().F
			f.Push(WordFloat(a - b))
		case Dsub:
			b, a := f.Pop().D, f.Pop().D
			f.Push(WordDouble(a - b))

		case Imul:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(a * b))
		case Lmul:
			b, a := f.Pop().L, f.Pop().L
			f.Push(WordLong(a * b))
		case Fmul:
			b, a := f.Pop().F, f.Pop().F
			f.Push(WordFloat(a * b))
		case Dmul:
			b, a := f.Pop().D, f.Pop().D
			f.Push(WordDouble(a * b))

		case Idiv:
			b, a := f.Pop().I, f.Pop().I
			if b == 0 {
				throwAndLog(host, "java/lang/ArithmeticException", "/ by zero")
				continue
			}
			if a == math.MinInt32 && b == -1 {
				f.Push(WordInt(a))
			} else {
				f.Push(WordInt(a / b))
			}
		case Ldiv:
			b, a := f.Pop().L, f.Pop().L
			if b == 0 {
				throwAndLog(host, "java/lang/ArithmeticException", "/ by zero")
				continue
			}
			if a == math.MinInt64 && b == -1 {
				f.Push(WordLong(a))
			} else {
				f.Push(WordLong(a / b))
			}
		case Fdiv:
			b, a := f.Pop().F, f.Pop().F
			f.Push(WordFloat(a / b))
		case Ddiv:
			b, a := f.Pop().D, f.Pop().D
			f.Push(WordDouble(a / b))

		case Irem:
			b, a := f.Pop().I, f.Pop().I
			if b == 0 {
				throwAndLog(host, "java/lang/ArithmeticException", "% by zero")
				continue
			}
			f.Push(WordInt(a % b))
		case Lrem:
			b, a := f.Pop().L, f.Pop().L
			if b == 0 {
				throwAndLog(host, "java/lang/ArithmeticException", "% by zero")
				continue
			}
			f.Push(WordLong(a % b))
		case Frem:
			b, a := f.Pop().F, f.Pop().F
			f.Push(WordFloat(float32(math.Mod(float64(a), float64(b)))))
		case Drem:
			b, a := f.Pop().D, f.Pop().D
			f.Push(WordDouble(math.Mod(a, b)))

		case Ineg:
			f.Push(WordInt(-f.Pop().I))
		case Lneg:
			f.Push(WordLong(-f.Pop().L))
		case Fneg:
			f.Push(WordFloat(-f.Pop().F))
		case Dneg:
			f.Push(WordDouble(-f.Pop().D))

		case Ishl:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(a << (uint32(b) & 0x1f)))
		case Lshl:
			b, a := f.Pop().I, f.Pop().L
			f.Push(WordLong(a << (uint32(b) & 0x3f)))
		case Ishr:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(a >> (uint32(b) & 0x1f)))
		case Lshr:
			b, a := f.Pop().I, f.Pop().L
			f.Push(WordLong(a >> (uint32(b) & 0x3f)))
		case Iushr:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(int32(uint32(a) >> (uint32(b) & 0x1f))))
		case Lushr:
			b, a := f.Pop().I, f.Pop().L
			f.Push(WordLong(int64(uint64(a) >> (uint32(b) & 0x3f))))

		case Iand:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(a & b))
		case Land:
			b, a := f.Pop().L, f.Pop().L
			f.Push(WordLong(a & b))
		case Ior:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(a | b))
		case Lor:
			b, a := f.Pop().L, f.Pop().L
			f.Push(WordLong(a | b))
		case Ixor:
			b, a := f.Pop().I, f.Pop().I
			f.Push(WordInt(a ^ b))
		case Lxor:
			b, a := f.Pop().L, f.Pop().L
			f.Push(WordLong(a ^ b))

		case I2l:
			f.Push(WordLong(int64(f.Pop().I)))
		case I2f:
			f.Push(WordFloat(float32(f.Pop().I)))
		case I2d:
			f.Push(WordDouble(float64(f.Pop().I)))
		case L2i:
			f.Push(WordInt(int32(f.Pop().L)))
		case L2f:
			f.Push(WordFloat(float32(f.Pop().L)))
		case L2d:
			f.Push(WordDouble(float64(f.Pop().L)))
		case F2i:
			f.Push(WordInt(f2i32(float64(f.Pop().F))))
		case F2l:
			f.Push(WordLong(f2i64(float64(f.Pop().F))))
		case F2d:
			f.Push(WordDouble(float64(f.Pop().F)))
		case D2i:
			f.Push(WordInt(f2i32(f.Pop().D)))
		case D2l:
			f.Push(WordLong(f2i64(f.Pop().D)))
		case D2f:
			f.Push(WordFloat(float32(f.Pop().D)))
		case I2b:
			f.Push(WordInt(int32(int8(f.Pop().I))))
		case I2c:
			f.Push(WordInt(int32(uint16(f.Pop().I))))
		case I2s:
			f.Push(WordInt(int32(int16(f.Pop().I))))

		case Lcmp:
			b, a := f.Pop().L, f.Pop().L
			f.Push(WordInt(compare(a > b, a < b)))
		case Fcmpl:
			b, a := f.Pop().F, f.Pop().F
			f.Push(WordInt(compareFloat(float64(a), float64(b), -1)))
		case Fcmpg:
			b, a := f.Pop().F, f.Pop().F
			f.Push(WordInt(compareFloat(float64(a), float64(b), 1)))
		case Dcmpl:
			b, a := f.Pop().D, f.Pop().D
			f.Push(WordInt(compareFloat(a, b, -1)))
		case Dcmpg:
			b, a := f.Pop().D, f.Pop().D
			f.Push(WordInt(compareFloat(a, b, 1)))

		case Ifeq:
			jmp := opcodeAddr + int(f.Read16Signed())
			if f.Pop().I == 0 {
				f.IP = jmp
			}
		case Ifne:
			jmp := opcodeAddr + int(f.Read16Signed())
			if f.Pop().I != 0 {
				f.IP = jmp
			}
		case Iflt:
			jmp := opcodeAddr + int(f.Read16Signed())
			if f.Pop().I < 0 {
				f.IP = jmp
			}
		case Ifge:
			jmp := opcodeAddr + int(f.Read16Signed())
			if f.Pop().I >= 0 {
				f.IP = jmp
			}
		case Ifgt:
			jmp := opcodeAddr + int(f.Read16Signed())
			if f.Pop().I > 0 {
				f.IP = jmp
			}
		case Ifle:
			jmp := opcodeAddr + int(f.Read16Signed())
			if f.Pop().I <= 0 {
				f.IP = jmp
			}
		case IfIcmpeq:
			jmp := opcodeAddr + int(f.Read16Signed())
			b, a := f.Pop().I, f.Pop().I
			if a == b {
				f.IP = jmp
			}
		case IfIcmpne:
			jmp := opcodeAddr + int(f.Read16Signed())
			b, a := f.Pop().I, f.Pop().I
			if a != b {
				f.IP = jmp
			}
		case IfIcmplt:
			jmp := opcodeAddr + int(f.Read16Signed())
			b, a := f.Pop().I, f.Pop().I
			if a < b {
				f.IP = jmp
			}
		case IfIcmpge:
			jmp := opcodeAddr + int(f.Read16Signed())
			b, a := f.Pop().I, f.Pop().I
			if a >= b {
				f.IP = jmp
			}
		case IfIcmpgt:
			jmp := opcodeAddr + int(f.Read16Signed())
			b, a := f.Pop().I, f.Pop().I
			if a > b {
				f.IP = jmp
			}
		case IfIcmple:
			jmp := opcodeAddr + int(f.Read16Signed())
			b, a := f.Pop().I, f.Pop().I
			if a <= b {
				f.IP = jmp
			}
		case IfAcmpeq:
			jmp := opcodeAddr + int(f.Read16Signed())
			b, a := f.Pop().A, f.Pop().A
			if a == b {
				f.IP = jmp
			}
		case IfAcmpne:
			jmp := opcodeAddr + int(f.Read16Signed())
			b, a := f.Pop().A, f.Pop().A
			if a != b {
				f.IP = jmp
			}
		case Ifnull:
			jmp := opcodeAddr + int(f.Read16Signed())
			if f.Pop().A == 0 {
				f.IP = jmp
			}
		case Ifnonnull:
			jmp := opcodeAddr + int(f.Read16Signed())
			if f.Pop().A != 0 {
				f.IP = jmp
			}

		case Goto:
			f.IP = opcodeAddr + int(f.Read16Signed())
		case GotoW:
			f.IP = opcodeAddr + int(f.Read32Signed())
		case Jsr:
			target := opcodeAddr + int(f.Read16Signed())
			f.Push(WordInt(int32(f.IP)))
			f.IP = target
		case JsrW:
			target := opcodeAddr + int(f.Read32Signed())
			f.Push(WordInt(int32(f.IP)))
			f.IP = target
		case Ret:
			f.IP = int(f.GetLocal(int(f.Read8())).I)

		case Tableswitch:
			execTableswitch(f, opcodeAddr)
		case Lookupswitch:
			execLookupswitch(f, opcodeAddr)

		case Wide:
			execWide(f, host)

		default:
			logx.Trace("vm: delegating opcode to host", "opcode", Name(op))
			if ret := host.ExecuteOp(ctx, op); ret != 0 {
				return ret
			}
		}
	}
}

// f2i32 and f2i64 implement the JVM's float-to-integral narrowing: NaN
// converts to 0 and out-of-range values saturate at the target type's
// bounds, unlike Go's native conversion, which leaves both cases
// implementation-defined.
func f2i32(v float64) int32 {
	switch {
	case v != v:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}

func f2i64(v float64) int64 {
	switch {
	case v != v:
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(v)
	}
}

func compare(gt, lt bool) int32 {
	switch {
	case gt:
		return 1
	case lt:
		return -1
	default:
		return 0
	}
}

// compareFloat implements fcmpl/fcmpg/dcmpl/dcmpg: NaN yields nanResult
// (-1 for the "l" forms, 1 for the "g" forms), otherwise the usual
// three-way comparison.
func compareFloat(a, b float64, nanResult int32) int32 {
	if a != a || b != b {
		return nanResult
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// execTableswitch implements the `tableswitch` opcode: pad to a 4-byte
// boundary (measured from the start of the frame's code array), then
// default/low/high/offsets, dispatching to opcodeAddr+offset (or
// opcodeAddr+default when the key falls outside [low, high]).
func execTableswitch(f *Frame, opcodeAddr int) {
	for f.IP&3 != 0 {
		f.IP++
	}
	def := f.Read32Signed()
	low := f.Read32Signed()
	high := f.Read32Signed()
	val := f.Pop().I

	var offset int32
	if val < low || val > high {
		offset = def
	} else {
		f.IP += int(val-low) * 4
		offset = f.Read32Signed()
	}
	f.IP = opcodeAddr + int(offset)
}

// execLookupswitch implements `lookupswitch`: pad, default offset,
// npairs, then npairs (key, offset) pairs, scanned linearly for an exact
// key match with the default offset as the fallback.
func execLookupswitch(f *Frame, opcodeAddr int) {
	for f.IP&3 != 0 {
		f.IP++
	}
	def := f.Read32Signed()
	npairs := f.Read32()
	val := f.Pop().I

	offset := def
	for i := uint32(0); i < npairs; i++ {
		key := f.Read32Signed()
		candidate := f.Read32Signed()
		if key == val {
			offset = candidate
		}
	}
	f.IP = opcodeAddr + int(offset)
}

// execWide implements the `wide` prefix, widening the local-variable
// index (and, for iinc, the immediate constant) of the following
// instruction to 16 bits.
func execWide(f *Frame, host Host) {
	op := f.Read8()
	switch op {
	case Iload, Lload, Fload, Dload, Aload:
		f.Push(f.GetLocal(int(f.Read16())))
	case Istore, Lstore, Fstore, Dstore, Astore:
		f.SetLocal(int(f.Read16()), f.Pop())
	case Iinc:
		idx := int(f.Read16())
		delta := int32(f.Read16Signed())
		f.SetLocal(idx, WordInt(f.GetLocal(idx).I+delta))
	case Ret:
		f.IP = int(f.GetLocal(int(f.Read16())).I)
	default:
		throwAndLog(host, "java/lang/RuntimeException", "wide opcode not supported")
	}
}
