// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"fmt"
	"hash/fnv"
)

// ObjKind discriminates the eight heap object variants spec.md §3 names.
type ObjKind uint8

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjNative
	ObjUpvalue
	ObjClosure
	ObjClass
	ObjInstance
	ObjBoundMethod
)

// NativeFn is the signature every native function exposes to the dispatch
// loop: it receives the owning VM (so it can allocate/intern, e.g. to
// return a fresh string) and a slice view directly into the evaluation
// stack, and returns a single Value. Natives run synchronously and must not
// reenter the interpreter (spec.md §6).
type NativeFn func(vm *VM, args []Value) (Value, error)

// Obj is the common header every heap object carries, plus one populated
// payload field selected by Kind. All live objects form a single intrusive
// linked list rooted at VM.objects (the Next field), matching the source
// allocator's ownership model described in spec.md §9.
type Obj struct {
	Kind   ObjKind
	Marked bool
	Next   *Obj

	Str         *ObjString
	Fn          *ObjFunction
	Native      *ObjNative
	Upvalue     *ObjUpvalue
	Closure     *ObjClosure
	Class       *ObjClass
	Instance    *ObjInstance
	BoundMethod *ObjBoundMethod
}

func (o *Obj) String() string {
	switch o.Kind {
	case ObjString:
		return o.Str.chars
	case ObjFunction:
		return o.Fn.String()
	case ObjNative:
		return "<native fn>"
	case ObjUpvalue:
		return "upvalue"
	case ObjClosure:
		return o.Closure.Fn.Fn.String()
	case ObjClass:
		return o.Class.Name.Str.chars
	case ObjInstance:
		return o.Instance.Class.Class.Name.Str.chars + " instance"
	case ObjBoundMethod:
		return o.BoundMethod.Method.Closure.Fn.Fn.String()
	default:
		return "<object>"
	}
}

// ObjString is an immutable, interned byte string with a precomputed
// FNV-1a hash used for both hash-table bucketing and interner lookup.
type ObjString struct {
	chars string
	hash  uint32
}

// hashString computes the 32-bit FNV-1a hash spec.md §3 names, matching the
// offset basis and prime the original implementation uses.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// ObjFunction is an immutable, fully-compiled function: arity, the number of
// upvalues its closures must allocate, its bytecode Chunk, and an optional
// name (nil for the top-level script).
type ObjFunction struct {
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *Obj // *Obj wrapping an ObjString, or nil for the script body
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Str.chars)
}

// ObjNative wraps a host-provided NativeFn together with the name it was
// registered under. The name is not used when printing: a native renders
// as <native fn>.
type ObjNative struct {
	Name string
	Fn   NativeFn
}

// ObjUpvalue is either open — Location points at a live stack slot — or
// closed, in which case Location points at Closed and the captured value
// has migrated off the stack. Next threads the VM's sorted open-upvalue
// list (spec.md §4.6); it is unused once the upvalue is closed.
type ObjUpvalue struct {
	Location *Value
	Closed   Value
	Next     *Obj
}

// ObjClosure borrows a Function and owns a fixed-length vector of captured
// upvalues, one slot per entry the compiler recorded in Fn.UpvalueCount.
type ObjClosure struct {
	Fn       *Obj // *Obj wrapping an ObjFunction
	Upvalues []*Obj
}

// ObjClass is a name plus a method table (name -> Closure Value).
type ObjClass struct {
	Name    *Obj
	Methods *Table
}

// ObjInstance is a class reference plus a per-instance field table.
type ObjInstance struct {
	Class  *Obj
	Fields *Table
}

// ObjBoundMethod pairs a receiver Value with the Closure it is bound to,
// produced by GET_PROPERTY / GET_SUPER when the looked-up name resolves to
// a method rather than a field.
type ObjBoundMethod struct {
	Receiver Value
	Method   *Obj // *Obj wrapping an ObjClosure
}
