/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package logx is the trace/log facade used by classfile and vm: Trace at
// checkpoints, Warn for host-facing conditions, Error on failure, all over
// github.com/charmbracelet/log so call sites don't carry the logging
// library directly.
package logx

import (
	"os"

	"github.com/charmbracelet/log"
)

var std = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Prefix:          "jvmcore",
})

// SetLevel adjusts the verbosity of the package-wide logger.
func SetLevel(lvl log.Level) {
	std.SetLevel(lvl)
}

// Trace reports a low-severity checkpoint message (class loaded, stage
// completed, and so on).
func Trace(msg string, kv ...interface{}) {
	std.Debug(msg, kv...)
}

// Warn reports a recoverable, host-facing condition (a thrown exception
// request, for instance).
func Warn(msg string, kv ...interface{}) {
	std.Warn(msg, kv...)
}

// Error reports a fatal condition, such as a malformed class file.
func Error(msg string, kv ...interface{}) {
	std.Error(msg, kv...)
}
