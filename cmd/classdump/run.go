/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jvmcore/classfile"
	"jvmcore/vm"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.class> <method-name> <descriptor>",
		Short: "Load a class file and run one of its methods",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMethod(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1], args[2])
		},
	}
}

// demoHost is the minimal Host this CLI supplies so the interpreter is
// runnable end to end: it handles the six return opcodes by printing the
// popped result, treats every other delegated opcode as a no-op, and
// prints thrown exceptions to stderr.
type demoHost struct {
	out, errOut io.Writer
}

func (h *demoHost) ExecuteOp(ctx *vm.Context, opcode byte) int32 {
	switch opcode {
	case vm.Ireturn:
		fmt.Fprintf(h.out, "ireturn: %d\n", ctx.CurrentFrame.Pop().I)
	case vm.Lreturn:
		fmt.Fprintf(h.out, "lreturn: %d\n", ctx.CurrentFrame.Pop().L)
	case vm.Freturn:
		fmt.Fprintf(h.out, "freturn: %v\n", ctx.CurrentFrame.Pop().F)
	case vm.Dreturn:
		fmt.Fprintf(h.out, "dreturn: %v\n", ctx.CurrentFrame.Pop().D)
	case vm.Areturn:
		fmt.Fprintf(h.out, "areturn: %d\n", ctx.CurrentFrame.Pop().A)
	case vm.Return:
		fmt.Fprintln(h.out, "return")
	default:
		return 0
	}
	return 1
}

func (h *demoHost) Throw(className, message string) {
	fmt.Fprintf(h.errOut, "%s: %s\n", className, message)
}

func runMethod(out, errOut io.Writer, path, methodName, descriptor string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("classdump: %w", err)
	}

	ci, err := classfile.Load(data)
	if err != nil {
		return fmt.Errorf("classdump: %w", err)
	}

	method, err := ci.MethodByNameAndDescriptor(methodName, descriptor)
	if err != nil {
		return fmt.Errorf("classdump: method %s%s not found: %w", methodName, descriptor, err)
	}

	code := method.Code()
	if code == nil {
		return fmt.Errorf("classdump: %s%s has no Code attribute (abstract or native)", methodName, descriptor)
	}

	ctx := vm.NewContext()
	frame := ctx.PushFrame(vm.NewFrame(code.Code, int(code.MaxLocals)))
	// No arguments are passed in: every local starts as int 0, so loading a
	// parameter never pushes an Empty cell that Pop would take for a filler.
	for i := range frame.Locals {
		frame.Locals[i] = vm.WordInt(0)
	}

	host := &demoHost{out: out, errOut: errOut}
	if _, err := vm.Execute(ctx, host); err != nil {
		return fmt.Errorf("classdump: %w", err)
	}
	return nil
}
