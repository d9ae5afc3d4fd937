/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package classfile

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"jvmcore/internal/logx"
)

// ErrorKind distinguishes the fatal loader failure modes.
type ErrorKind int

const (
	Truncated ErrorKind = iota
	BadMagic
	BadTag
	BadCrossReference
)

func (k ErrorKind) String() string {
	switch k {
	case Truncated:
		return "truncated class file"
	case BadMagic:
		return "bad magic number"
	case BadTag:
		return "bad constant pool tag"
	case BadCrossReference:
		return "bad cross-reference"
	default:
		return "unknown class format error"
	}
}

// ClassFormatError is the error raised by the loader for any fatal decode
// condition. It records where in this package the error was detected.
type ClassFormatError struct {
	Kind ErrorKind
	Msg  string
	File string
	Line int
}

func (e *ClassFormatError) Error() string {
	errMsg := "Class Format Error: " + e.Kind.String()
	if e.Msg != "" {
		errMsg += ": " + e.Msg
	}
	if e.File != "" {
		errMsg += "\n  detected by file: " + e.File + ", line: " + strconv.Itoa(e.Line)
	}
	return errMsg
}

// cfe builds a ClassFormatError, capturing the caller's file and line,
// and logs it.
func cfe(kind ErrorKind, msg string) error {
	err := &ClassFormatError{Kind: kind, Msg: msg}
	pc, _, _, ok := runtime.Caller(1)
	if ok {
		fn := runtime.FuncForPC(pc)
		fileName, fileLine := fn.FileLine(pc)
		err.File = filepath.Base(fileName)
		err.Line = fileLine
	}
	logx.Error(fmt.Sprintf("classfile: %s", err.Error()))
	return err
}
