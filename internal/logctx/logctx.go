// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package logctx is a small structured, leveled logger in the
// key=value idiom the wider ProbeChain tree uses (Info(msg, "key", val...)),
// used here as the single sink for the VM's GC trace output and for
// construction-time diagnostics.
package logctx

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "???"
	}
}

var levelColor = map[Level]int{
	LevelDebug: 90, // bright black
	LevelInfo:  32, // green
	LevelWarn:  33, // yellow
	LevelError: 31, // red
}

// Logger is a leveled, key-value structured logger. The zero value is not
// usable; construct with New.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	color   bool
	minimum Level
	ctx     []interface{} // key/value pairs bound to every message from this logger
}

// New creates a Logger writing to w. Color output is auto-detected via
// go-isatty, routed through go-colorable so it also works on terminals that
// need ANSI-to-Win32 translation.
func New(w io.Writer, minimum Level) *Logger {
	colorable := false
	if f, ok := w.(*os.File); ok {
		colorable = isatty.IsTerminal(f.Fd())
		w = colorableWriter(f)
	}
	return &Logger{out: w, color: colorable, minimum: minimum}
}

func colorableWriter(f *os.File) io.Writer {
	return colorable.NewColorable(f)
}

// Default returns a Logger writing to stderr at Info level, matching the
// front end's default verbosity.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

// With returns a derived Logger that prepends ctx to every future message's
// key/value pairs, without mutating the receiver.
func (l *Logger) With(ctx ...interface{}) *Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &Logger{out: l.out, color: l.color, minimum: l.minimum, ctx: merged}
}

func (l *Logger) log(level Level, msg string, kv []interface{}) {
	if level < l.minimum {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format("15:04:05.000")
	caller := ""
	if level >= LevelWarn {
		if cs := stack.Caller(2); true {
			caller = fmt.Sprintf(" %v", cs)
		}
	}

	line := fmt.Sprintf("%s [%s]%s %s", ts, level, caller, msg)
	all := append(append([]interface{}{}, l.ctx...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		line += fmt.Sprintf(" %v=%v", all[i], all[i+1])
	}

	if l.color {
		line = fmt.Sprintf("\x1b[%dm%s\x1b[0m", levelColor[level], line)
	}

	fmt.Fprintln(l.out, line)
}

// Debug logs a debug-level message. Used for GC tracing output
// (spec.md §6 log_gc).
func (l *Logger) Debug(msg string, kv ...interface{}) { l.log(LevelDebug, msg, kv) }

// Info logs an info-level message.
func (l *Logger) Info(msg string, kv ...interface{}) { l.log(LevelInfo, msg, kv) }

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, kv ...interface{}) { l.log(LevelWarn, msg, kv) }

// Error logs an error-level message.
func (l *Logger) Error(msg string, kv ...interface{}) { l.log(LevelError, msg, kv) }
