/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package vm

// Context is the interpreter's call-stack root: a chain of Frames linked
// callee-to-caller via Frame.Prev.
type Context struct {
	CurrentFrame *Frame
}

// NewContext returns an empty Context with no active frame.
func NewContext() *Context {
	return &Context{}
}

// PushFrame makes f the current frame, chaining the previous current
// frame (if any) as its caller.
func (ctx *Context) PushFrame(f *Frame) *Frame {
	f.Prev = ctx.CurrentFrame
	ctx.CurrentFrame = f
	return f
}

// PopFrame discards the current frame and transfers its top `consumes`
// raw operand stack cells onto the new current frame, in original order,
// so a Long or Double result moves as its value cell plus Empty filler
// with the pair layout intact. consumes must be 0, 1, or 2.
func (ctx *Context) PopFrame(consumes int) *Frame {
	callee := ctx.CurrentFrame
	ctx.CurrentFrame = callee.Prev

	switch consumes {
	case 1:
		ctx.CurrentFrame.PushRaw(callee.PopRaw())
	case 2:
		w1 := callee.PopRaw()
		w2 := callee.PopRaw()
		ctx.CurrentFrame.PushRaw(w2)
		ctx.CurrentFrame.PushRaw(w1)
	}
	return ctx.CurrentFrame
}
