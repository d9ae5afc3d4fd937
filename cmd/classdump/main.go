/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Command classdump is a thin CLI host exercising the reader, classfile,
// and vm packages end to end: it loads a .class file and either prints
// its structure or runs one of its methods through the interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"jvmcore/internal/logx"
)

const versionString = "classdump v.0.1 (jvmcore)"

// logLevelFlag exposes the logx level as a --log-level flag value.
type logLevelFlag struct {
	level log.Level
}

var _ pflag.Value = (*logLevelFlag)(nil)

func (f *logLevelFlag) String() string { return f.level.String() }

func (f *logLevelFlag) Set(s string) error {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return err
	}
	f.level = lvl
	return nil
}

func (f *logLevelFlag) Type() string { return "level" }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "classdump",
		Short:        "Inspect and run JVM class files",
		Version:      versionString,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(versionString + "\n")
	lvl := &logLevelFlag{level: log.InfoLevel}
	root.PersistentFlags().Var(lvl, "log-level", "log verbosity (debug, info, warn, error)")
	root.PersistentFlags().Bool("verbose", false, "shorthand for --log-level debug")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			lvl.level = log.DebugLevel
		}
		logx.SetLevel(lvl.level)
	}
	root.AddCommand(newDumpCmd(), newRunCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
