// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package vm implements the execution core of the Lox bytecode virtual
// machine: value representation, the heap object model, the open-addressed
// hash table, the closure/upvalue protocol, class/method dispatch, and the
// tri-color mark-and-sweep garbage collector. The lexer, compiler, and
// command-line front end are external collaborators (spec.md §1) that hand
// this package a compiled *ObjFunction to run.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/probelang/loxvm/internal/logctx"
)

// ---- Error sentinels -------------------------------------------------------

// ErrHalted is not returned by anything in this package: Interpret may be
// called any number of times on one VM, each call running a new top-level
// Function against the same globals and intern pool (the REPL does this).
var ErrHalted = errors.New("vm: already halted")

// ErrCompileError is the INTERPRET_COMPILE_ERROR sentinel spec.md §6
// reserves for the front end; the core itself never produces it.
var ErrCompileError = errors.New("vm: compile error")

// ---- Limits (spec.md §4.7) -------------------------------------------------

const (
	FramesMax = 64
	StackMax  = FramesMax * 256
)

// CallFrame is the activation record for one active call: the running
// closure, an instruction pointer into its chunk's code, and the stack
// index at which the frame's locals begin (slot 0 is the callee itself,
// i.e. `this` for methods).
type CallFrame struct {
	closure *Obj // wraps ObjClosure
	ip      int
	slots   int
}

// GCConfig is the VM's construction-time GC policy (spec.md §6).
type GCConfig struct {
	GCEnabled      bool
	LogGC          bool
	StressGC       bool
	GCHeapGrowFactor float64
	InitialNextGC  int
}

// DefaultGCConfig returns spec.md §6's defaults: GC on, no tracing, no
// stress mode, 2x heap growth, 1 MiB initial threshold.
func DefaultGCConfig() GCConfig {
	return GCConfig{
		GCEnabled:        true,
		LogGC:            false,
		StressGC:         false,
		GCHeapGrowFactor: 2,
		InitialNextGC:    1 << 20,
	}
}

// VM is one instance of the Lox execution core. Two VMs may coexist in the
// same process but share nothing (spec.md §5): each owns its stack, heap,
// globals, and intern pool independently.
type VM struct {
	stack    [StackMax]Value
	stackTop int

	frames     [FramesMax]CallFrame
	frameCount int

	globals Table
	strings Table

	initString   *Obj
	openUpvalues *Obj

	objects   *Obj
	protected *Obj

	// pinned roots objects a host (e.g. a REPL's compiled-line cache) holds
	// onto outside the stack/globals/frames spec.md §4.9 already roots. A
	// refcount per Obj lets the same Function be pinned by more than one
	// cache slot without one eviction unrooting a still-cached duplicate.
	pinned map[*Obj]int

	bytesAllocated int
	nextGC         int
	grayStack      []*Obj

	config GCConfig
	logger *logctx.Logger

	// gcLogger is the §6 "process-visible outputs" sink for log_gc tracing:
	// a dedicated stdout-backed logger, kept separate from vm.logger (which
	// shares stderr with runtime-error reporting) because spec.md §6
	// requires GC trace lines on standard output with a [DEBUG] prefix, not
	// interleaved with stderr diagnostics.
	gcLogger *logctx.Logger

	// id correlates this instance's log lines when a process runs more than
	// one VM concurrently (spec.md §5: "two VMs may coexist, share nothing").
	id uuid.UUID

	stdout io.Writer
	stderr io.Writer
}

// New constructs a VM ready to Interpret a top-level Function. It follows
// the source Vm_init's ordering exactly: the init-string sentinel is
// interned first — self-protected because vm.initString starts nil — before
// any native is defined, since defining a native also allocates a String.
func New(cfg GCConfig, stdout, stderr io.Writer, logger *logctx.Logger) *VM {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if logger == nil {
		logger = logctx.Default()
	}
	id := uuid.New()
	logger = logger.With("vm_id", id.String())

	vm := &VM{
		config:   cfg,
		nextGC:   cfg.InitialNextGC,
		stdout:   stdout,
		stderr:   stderr,
		logger:   logger,
		gcLogger: logctx.New(stdout, logctx.LevelDebug).With("vm_id", id.String()),
		id:       id,
		pinned:   make(map[*Obj]int),
	}

	vm.initString = vm.internString("init")
	vm.DefineNative("clock", nativeClock)

	return vm
}

// PinRoot marks obj as reachable independent of the stack/frames/globals
// (spec.md §4.9) for as long as something outside the VM — a front end's
// compiled-line cache, say — wants to keep using it between Interpret
// calls. Pins are refcounted, so the same Obj can be pinned by more than
// one holder without an early UnpinRoot prematurely exposing it to sweep.
func (vm *VM) PinRoot(obj *Obj) {
	if obj == nil {
		return
	}
	vm.pinned[obj]++
}

// UnpinRoot releases one PinRoot on obj. Once its refcount reaches zero,
// obj is collectible again on the next cycle it is not otherwise reachable
// from.
func (vm *VM) UnpinRoot(obj *Obj) {
	if obj == nil {
		return
	}
	if vm.pinned[obj] <= 1 {
		delete(vm.pinned, obj)
		return
	}
	vm.pinned[obj]--
}

// DefineNative registers a native function under the given global name.
// Both the name string and the native Value are pushed onto the stack
// before the table insert and popped only after, because interning the
// name can itself trigger a GC (spec.md §9, mirroring vm_define_native's
// push-before-insert discipline).
func (vm *VM) DefineNative(name string, fn NativeFn) {
	nameObj := vm.internString(name)
	vm.push(ObjVal(nameObj))

	nativeObj := vm.newObject(ObjNative)
	nativeObj.Native = &ObjNative{Name: name, Fn: fn}
	vm.push(ObjVal(nativeObj))

	vm.globals.Set(vm.peek(1).Obj, vm.peek(0))
	vm.pop()
	vm.pop()
}

// InterpretResult mirrors the source VM's three-way outcome (spec.md §6).
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// RuntimeError carries a formatted message plus the top-down per-frame
// stack trace spec.md §6 describes, rather than a bare string.
type RuntimeError struct {
	Message string
	Trace   string
}

func (e *RuntimeError) Error() string {
	return e.Message + "\n" + e.Trace
}

// Interpret wraps fn (the compiler's top-level Function, produced per the
// §6 producer contract) in a Closure, pushes the initial call frame, and
// runs the dispatch loop to completion.
func (vm *VM) Interpret(fn *Obj) (InterpretResult, error) {
	vm.push(ObjVal(fn))
	closure := vm.newObject(ObjClosure)
	closure.Closure = &ObjClosure{Fn: fn, Upvalues: make([]*Obj, fn.Fn.UpvalueCount)}
	vm.pop()
	vm.push(ObjVal(closure))
	vm.callClosure(closure, 0)

	if err := vm.run(); err != nil {
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			fmt.Fprintln(vm.stderr, rerr.Error())
			vm.resetStack()
			return InterpretRuntimeError, err
		}
		return InterpretRuntimeError, err
	}
	return InterpretOK, nil
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// ---- Stack primitives -------------------------------------------------------

func (vm *VM) push(v Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

// runtimeError formats a message, then unwinds: for each active frame,
// top-down, `[line L] in <fn-name>()` (or `in script` for the outermost),
// where L comes from the chunk's line table at the instruction that was
// executing (spec.md §6).
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)

	trace := ""
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Closure.Fn.Fn
		line := fn.Chunk.Lines[frame.ip-1]
		if fn.Name == nil {
			trace += fmt.Sprintf("[line %d] in script\n", line)
		} else {
			trace += fmt.Sprintf("[line %d] in %s()\n", line, fn.Name.Str.chars)
		}
	}

	return &RuntimeError{Message: msg, Trace: trace}
}
