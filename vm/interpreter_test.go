/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHost captures the return-opcode result and any thrown
// exception, standing in for the object model / method dispatch this
// interpreter delegates to.
type recordingHost struct {
	thrownClass   string
	thrownMessage string
	throwCount    int
}

func (h *recordingHost) ExecuteOp(ctx *Context, opcode byte) int32 {
	switch opcode {
	case Ireturn, Lreturn, Freturn, Dreturn, Areturn, Return:
		return 1
	default:
		return 0
	}
}

func (h *recordingHost) Throw(className, message string) {
	h.thrownClass = className
	h.thrownMessage = message
	h.throwCount++
}

func run(code []byte, maxLocals int) (*Frame, *recordingHost) {
	ctx := NewContext()
	f := ctx.PushFrame(NewFrame(code, maxLocals))
	host := &recordingHost{}
	if _, err := Execute(ctx, host); err != nil {
		panic(err)
	}
	return f, host
}

func TestConstantsAndIntArithmetic(t *testing.T) {
	// iconst_2; iconst_3; iadd; ireturn
	code := []byte{Iconst2, Iconst3, Iadd, Ireturn}
	f, _ := run(code, 0)
	require.Equal(t, 1, f.StackLen())
	assert.Equal(t, WordInt(5), f.PeekRaw(0))
}

func TestLongArithmeticPairDiscipline(t *testing.T) {
	// lconst_1; lconst_1; ladd; lreturn
	code := []byte{Lconst1, Lconst1, Ladd, Lreturn}
	f, _ := run(code, 0)
	require.Equal(t, 2, f.StackLen())
	assert.Equal(t, WordLong(2), f.PeekRaw(1))
	assert.Equal(t, WordEmpty(), f.PeekRaw(0))
}

func TestIntegerDivisionByZeroThrowsAndDoesNotUnwind(t *testing.T) {
	// iconst_5; iconst_0; idiv; return
	code := []byte{Iconst5, Iconst0, Idiv, Return}
	_, host := run(code, 0)
	assert.Equal(t, 1, host.throwCount)
	assert.Equal(t, "java/lang/ArithmeticException", host.thrownClass)
	assert.Equal(t, "/ by zero", host.thrownMessage)
}

func TestIntegerRemainderByZeroThrows(t *testing.T) {
	code := []byte{Iconst5, Iconst0, Irem, Return}
	_, host := run(code, 0)
	assert.Equal(t, 1, host.throwCount)
	assert.Equal(t, "java/lang/ArithmeticException", host.thrownClass)
	assert.Equal(t, "% by zero", host.thrownMessage)
}

func TestBranchTakesOpcodeRelativeTarget(t *testing.T) {
	// iconst_0; ifeq +7; iconst_1; goto +4; iconst_2; return
	// offsets: ifeq is at index 1, its target (1+7=8) lands on iconst_2.
	code := []byte{
		Iconst0,      // 0
		Ifeq, 0, 7,   // 1,2,3  -> target 1+7=8
		Iconst1,      // 4
		Goto, 0, 4,   // 5,6,7  -> unreached if branch taken
		Iconst2,      // 8
		Return,       // 9
	}
	f, _ := run(code, 0)
	require.Equal(t, 1, f.StackLen())
	assert.Equal(t, WordInt(2), f.PeekRaw(0))
}

func TestBranchNotTakenFallsThrough(t *testing.T) {
	// iconst_1; ifeq +7; iconst_1; goto +4; iconst_2; return
	// ifeq is not taken; goto at index 5 jumps to 5+4=9 (return), past iconst_2.
	code := []byte{
		Iconst1,
		Ifeq, 0, 7,
		Iconst1,
		Goto, 0, 4,
		Iconst2,
		Return,
	}
	f, _ := run(code, 0)
	require.Equal(t, 1, f.StackLen())
	assert.Equal(t, WordInt(1), f.PeekRaw(0))
}

func TestLongDivisionByZeroThrows(t *testing.T) {
	code := []byte{Lconst1, Lconst0, Ldiv, Return}
	_, host := run(code, 0)
	assert.Equal(t, 1, host.throwCount)
	assert.Equal(t, "java/lang/ArithmeticException", host.thrownClass)
	assert.Equal(t, "/ by zero", host.thrownMessage)
}

func TestIdivMinValueByMinusOne(t *testing.T) {
	// MIN_VALUE / -1 must yield MIN_VALUE with no overflow trap; bipush and
	// sipush cannot reach MIN_VALUE, so it is seeded through a local.
	ctx := NewContext()
	f := ctx.PushFrame(NewFrame([]byte{Iload0, IconstM1, Idiv, Ireturn}, 1))
	f.SetLocal(0, WordInt(math.MinInt32))
	host := &recordingHost{}
	_, err := Execute(ctx, host)
	require.NoError(t, err)
	require.Equal(t, 1, f.StackLen())
	assert.Equal(t, WordInt(math.MinInt32), f.PeekRaw(0))
}

func TestShiftCountsAreMasked(t *testing.T) {
	// ishl masks the shift amount to 5 bits: 1 << 33 is 1 << 1.
	code := []byte{Iconst1, Bipush, 33, Ishl, Ireturn}
	f, _ := run(code, 0)
	assert.Equal(t, WordInt(2), f.PeekRaw(0))
}

func TestFloatCompareNaNOrdering(t *testing.T) {
	// 0.0f / 0.0f is NaN; fcmpg must push +1 for it, fcmpl -1.
	f, _ := run([]byte{Fconst0, Fconst0, Fdiv, Fconst0, Fcmpg, Ireturn}, 0)
	assert.Equal(t, WordInt(1), f.PeekRaw(0))

	f, _ = run([]byte{Fconst0, Fconst0, Fdiv, Fconst0, Fcmpl, Ireturn}, 0)
	assert.Equal(t, WordInt(-1), f.PeekRaw(0))
}

func TestLcmpThreeWay(t *testing.T) {
	f, _ := run([]byte{Lconst1, Lconst0, Lcmp, Ireturn}, 0)
	assert.Equal(t, WordInt(1), f.PeekRaw(0))
}

func TestF2iNaNConvertsToZero(t *testing.T) {
	code := []byte{Fconst0, Fconst0, Fdiv, F2i, Ireturn}
	f, _ := run(code, 0)
	assert.Equal(t, WordInt(0), f.PeekRaw(0))
}

func TestFloatToIntSaturation(t *testing.T) {
	assert.Equal(t, int32(0), f2i32(math.NaN()))
	assert.Equal(t, int32(math.MaxInt32), f2i32(1e18))
	assert.Equal(t, int32(math.MinInt32), f2i32(-1e18))
	assert.Equal(t, int32(42), f2i32(42.9))
	assert.Equal(t, int64(0), f2i64(math.NaN()))
	assert.Equal(t, int64(math.MaxInt64), f2i64(1e30))
	assert.Equal(t, int64(math.MinInt64), f2i64(-1e30))
}

func TestDupX1ShufflesRawCells(t *testing.T) {
	// iconst_1; iconst_2; dup_x1 leaves [2, 1, 2] bottom to top.
	f, _ := run([]byte{Iconst1, Iconst2, DupX1, Return}, 0)
	require.Equal(t, 3, f.StackLen())
	assert.Equal(t, WordInt(2), f.PeekRaw(0))
	assert.Equal(t, WordInt(1), f.PeekRaw(1))
	assert.Equal(t, WordInt(2), f.PeekRaw(2))
}

func TestSwapExchangesTopTwoCells(t *testing.T) {
	f, _ := run([]byte{Iconst1, Iconst2, Swap, Return}, 0)
	require.Equal(t, 2, f.StackLen())
	assert.Equal(t, WordInt(1), f.PeekRaw(0))
	assert.Equal(t, WordInt(2), f.PeekRaw(1))
}

func TestJsrPushesReturnAddressAndRetRestoresIt(t *testing.T) {
	// astore_0 after jsr is the pattern javac emits for subroutines; the
	// store must carry the return-address cell through to ret unchanged.
	code := []byte{
		Jsr, 0, 5, // 0: jump to 0+5=5, pushing return address 3
		Return,  // 3: reached again via ret
		Nop,     // 4
		Astore0, // 5: store return address into local 0
		Iconst5, // 6
		Ret, 0, // 7: jump back to locals[0] == 3
	}
	f, _ := run(code, 1)
	require.Equal(t, 1, f.StackLen())
	assert.Equal(t, WordInt(5), f.PeekRaw(0))
}

func TestWideIincUsesSixteenBitOperands(t *testing.T) {
	code := []byte{
		Wide, Iinc, 0, 0, 0x01, 0x2C, // locals[0] += 300
		Iload0,
		Ireturn,
	}
	f, _ := run(code, 1)
	assert.Equal(t, WordInt(300), f.PeekRaw(0))
}

func TestWideUnsupportedFormThrows(t *testing.T) {
	code := []byte{Wide, Nop, Return}
	_, host := run(code, 0)
	assert.Equal(t, 1, host.throwCount)
	assert.Equal(t, "java/lang/RuntimeException", host.thrownClass)
}

func TestLookupswitchMatchesKeyedPair(t *testing.T) {
	// iconst_3 pushes key=3; the sorted pair table maps 1, 3, and 10.
	code := []byte{
		Iconst3,      // 0: push key = 3
		Lookupswitch, // 1
		0, 0, // 2,3: alignment padding (unread)
		0, 0, 0, 41, // 4-7: default offset -> target 1+41=42
		0, 0, 0, 3, // 8-11: npairs = 3
		0, 0, 0, 1, 0, 0, 0, 35, // 12-19: key 1 -> target 36
		0, 0, 0, 3, 0, 0, 0, 37, // 20-27: key 3 -> target 38
		0, 0, 0, 10, 0, 0, 0, 39, // 28-35: key 10 -> target 40
		Iconst0, Return, // 36,37: key 1 body
		Iconst1, Return, // 38,39: key 3 body
		Iconst2, Return, // 40,41: key 10 body
		Iconst4, Return, // 42,43: default body
	}
	f, _ := run(code, 0)
	require.Equal(t, 1, f.StackLen())
	assert.Equal(t, WordInt(1), f.PeekRaw(0))
}

func TestLookupswitchFallsBackToDefault(t *testing.T) {
	code := []byte{
		Iconst5,      // 0: key = 5 matches nothing
		Lookupswitch, // 1
		0, 0, // 2,3: alignment padding
		0, 0, 0, 21, // 4-7: default -> target 1+21=22
		0, 0, 0, 1, // 8-11: npairs = 1
		0, 0, 0, 1, 0, 0, 0, 19, // 12-19: key 1 -> target 20
		Iconst0, Return, // 20,21: key 1 body
		Iconst1, Return, // 22,23: default body
	}
	f, _ := run(code, 0)
	require.Equal(t, 1, f.StackLen())
	assert.Equal(t, WordInt(1), f.PeekRaw(0))
}

func TestStackOverflowSurfacesAsError(t *testing.T) {
	// dup in a loop must hit the fixed operand stack bound and be reported,
	// not overrun adjacent state.
	code := []byte{Iconst1, Dup, Goto, 0xFF, 0xFF} // goto -1 lands back on dup
	ctx := NewContext()
	ctx.PushFrame(NewFrame(code, 0))
	_, err := Execute(ctx, &recordingHost{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflow")
}

func TestStackUnderflowSurfacesAsError(t *testing.T) {
	ctx := NewContext()
	ctx.PushFrame(NewFrame([]byte{Pop}, 0))
	_, err := Execute(ctx, &recordingHost{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "underflow")
}

func TestPopFrameTransfersLongResultPair(t *testing.T) {
	ctx := NewContext()
	caller := ctx.PushFrame(NewFrame(nil, 0))
	callee := ctx.PushFrame(NewFrame(nil, 0))
	callee.Push(WordLong(7))

	ctx.PopFrame(2)
	require.Equal(t, 2, caller.StackLen())
	assert.Equal(t, WordLong(7), caller.PeekRaw(1))
	assert.Equal(t, WordEmpty(), caller.PeekRaw(0))
	assert.Equal(t, int64(7), caller.Pop().L)
}

func TestTableswitchDispatchesToMatchingOffset(t *testing.T) {
	// iconst_1 pushes key=1; tableswitch (low=0, high=2) dispatches to the
	// key-1 body, skipping the key-0/key-2/default bodies.
	code := []byte{
		Iconst1,     // 0: push key = 1
		Tableswitch, // 1
		0, 0,        // 2,3: alignment padding (unread)
		0, 0, 0, 33, // 4-7: default offset -> target 1+33=34
		0, 0, 0, 0, // 8-11: low = 0
		0, 0, 0, 2, // 12-15: high = 2
		0, 0, 0, 27, // 16-19: key 0 offset -> target 1+27=28
		0, 0, 0, 29, // 20-23: key 1 offset -> target 1+29=30
		0, 0, 0, 31, // 24-27: key 2 offset -> target 1+31=32
		Iconst0, Return, // 28,29: key 0 body
		Iconst1, Return, // 30,31: key 1 body
		Iconst2, Return, // 32,33: key 2 body
		Iconst3, Return, // 34,35: default body
	}
	f, _ := run(code, 0)
	require.Equal(t, 1, f.StackLen())
	assert.Equal(t, WordInt(1), f.PeekRaw(0))
}
