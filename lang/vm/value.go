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
	"math"
	"strconv"
)

// ValueType discriminates the four variants of Value.
type ValueType uint8

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObject
)

// Value is a tagged union over the four runtime value kinds. It is always
// copied by value; Obj is the only variant holding a heap reference.
type Value struct {
	Type   ValueType
	Bool   bool
	Number float64
	Obj    *Obj
}

// NilVal, BoolVal, NumberVal, and ObjVal construct the four Value variants.
// They return fresh values rather than shared singletons because Value is a
// plain struct, not a pointer.
func NilVal() Value             { return Value{Type: ValNil} }
func BoolVal(b bool) Value      { return Value{Type: ValBool, Bool: b} }
func NumberVal(n float64) Value { return Value{Type: ValNumber, Number: n} }
func ObjVal(o *Obj) Value       { return Value{Type: ValObject, Obj: o} }

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObject() bool { return v.Type == ValObject }

func (v Value) IsObjType(kind ObjKind) bool {
	return v.Type == ValObject && v.Obj.Kind == kind
}

func (v Value) IsString() bool      { return v.IsObjType(ObjString) }
func (v Value) IsFunction() bool    { return v.IsObjType(ObjFunction) }
func (v Value) IsNative() bool      { return v.IsObjType(ObjNative) }
func (v Value) IsClosure() bool     { return v.IsObjType(ObjClosure) }
func (v Value) IsClass() bool       { return v.IsObjType(ObjClass) }
func (v Value) IsInstance() bool    { return v.IsObjType(ObjInstance) }
func (v Value) IsBoundMethod() bool { return v.IsObjType(ObjBoundMethod) }

// AsString returns the Go string content of a string Value. Callers must
// guard with IsString first; like clox, extractors are undefined on the
// wrong tag.
func (v Value) AsString() string { return v.Obj.Str.chars }

// IsFalsey implements Lox truthiness: nil and false are falsey, everything
// else — including zero and the empty string — is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.Bool)
}

// Equal implements Value equality per spec.md §3: values of different tags
// are never equal; numbers compare by IEEE-754 == (so NaN != NaN); objects
// compare by identity, which yields structural equality for strings because
// they are interned.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool:
		return a.Bool == b.Bool
	case ValNumber:
		return a.Number == b.Number
	case ValObject:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// String renders a Value the way the VM's PRINT opcode and REPL do.
func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.Number)
	case ValObject:
		return v.Obj.String()
	default:
		return "<unknown value>"
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ValueArray is a growable constant pool, mirroring Chunk's companion
// structure in the source VM.
type ValueArray struct {
	values []Value
}

func (va *ValueArray) Write(v Value) int {
	va.values = append(va.values, v)
	return len(va.values) - 1
}

func (va *ValueArray) Get(i int) Value { return va.values[i] }

func (va *ValueArray) Len() int { return len(va.values) }

func (va *ValueArray) Values() []Value { return va.values }

// GoString supports %#v style debug dumps.
func (v Value) GoString() string {
	return fmt.Sprintf("Value{%s}", v.String())
}
