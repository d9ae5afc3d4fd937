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
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.class>",
		Short: "Load a class file and print its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.OutOrStdout(), args[0])
		},
	}
}

func runDump(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("classdump: %w", err)
	}

	ci, err := classfile.Load(data)
	if err != nil {
		return fmt.Errorf("classdump: %w", err)
	}

	name, err := ci.ClassName()
	if err != nil {
		return fmt.Errorf("classdump: %w", err)
	}
	fmt.Fprintf(out, "class %s\n", name)
	fmt.Fprintf(out, "  magic     0x%08X\n", ci.Magic)
	fmt.Fprintf(out, "  version   %d.%d\n", ci.MajorVersion, ci.MinorVersion)

	super, err := ci.SuperClassName()
	if err != nil {
		return fmt.Errorf("classdump: %w", err)
	}
	if super == "" {
		fmt.Fprintln(out, "  super     (none)")
	} else {
		fmt.Fprintf(out, "  super     %s\n", super)
	}

	n := ci.InterfaceCount()
	fmt.Fprintf(out, "  interfaces (%d)\n", n)
	for i := 0; i < n; i++ {
		iName, err := ci.InterfaceName(i)
		if err != nil {
			return fmt.Errorf("classdump: %w", err)
		}
		fmt.Fprintf(out, "    - %s\n", iName)
	}

	fmt.Fprintf(out, "  fields    %d\n", len(ci.Fields))
	for _, field := range ci.Fields {
		fname, ferr := ci.FieldName(&field)
		fdesc, derr := ci.FieldDescriptor(&field)
		if ferr != nil || derr != nil {
			continue
		}
		fmt.Fprintf(out, "    %s %s\n", classfile.DescribeField(fdesc), fname)
	}

	fmt.Fprintf(out, "  methods   %d\n", len(ci.Methods))
	for _, method := range ci.Methods {
		mname, merr := ci.MethodName(&method)
		mdesc, derr := ci.MethodDescriptor(&method)
		if merr != nil || derr != nil {
			continue
		}
		fmt.Fprintf(out, "    %s %s\n", mname, classfile.DescribeMethod(mdesc))
	}

	relCount := ci.RelatedClassCount()
	if relCount > 0 {
		fmt.Fprintf(out, "  related classes (%d)\n", relCount)
		for i := 0; i < relCount; i++ {
			relName, err := ci.RelatedClassName(i)
			if err != nil {
				return fmt.Errorf("classdump: %w", err)
			}
			fmt.Fprintf(out, "    - %s\n", relName)
		}
	}

	return nil
}
