// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "fmt"

// Approximate per-kind byte costs used for GC growth-threshold accounting.
// These are not exact struct sizes (Go's runtime-managed allocator makes
// that meaningless); they stand in for the "sizeof" accounting the source
// allocator does on every reallocate() call, so the heap-growth trigger
// policy in spec.md §4.1 has something real to divide.
const (
	sizeofString      = 32
	sizeofFunction    = 96
	sizeofNative      = 48
	sizeofUpvalue     = 32
	sizeofClosure     = 48
	sizeofClass       = 48
	sizeofInstance    = 48
	sizeofBoundMethod = 32
)

func objSize(kind ObjKind) int {
	switch kind {
	case ObjString:
		return sizeofString
	case ObjFunction:
		return sizeofFunction
	case ObjNative:
		return sizeofNative
	case ObjUpvalue:
		return sizeofUpvalue
	case ObjClosure:
		return sizeofClosure
	case ObjClass:
		return sizeofClass
	case ObjInstance:
		return sizeofInstance
	case ObjBoundMethod:
		return sizeofBoundMethod
	default:
		return 0
	}
}

// newObject allocates an object of the given kind, links it into the
// intrusive VM.objects list, and — per the allocator's growth policy
// (spec.md §4.1) — runs a GC cycle first if stress-gc is enabled or the
// heap has crossed nextGC.
func (vm *VM) newObject(kind ObjKind) *Obj {
	size := objSize(kind)
	vm.bytesAllocated += size

	if vm.config.StressGC || vm.bytesAllocated > vm.nextGC {
		if vm.config.GCEnabled {
			vm.collectGarbage()
		}
	}

	obj := &Obj{Kind: kind, Next: vm.objects}
	vm.objects = obj
	return obj
}

// collectGarbage runs one full tri-color mark-and-sweep cycle (spec.md §4.9).
func (vm *VM) collectGarbage() {
	if vm.config.LogGC {
		vm.logGC("-- gc begin")
	}
	before := vm.bytesAllocated

	vm.markRoots()
	vm.traceReferences()
	vm.strings.removeWhiteEntries()
	vm.sweep()

	vm.nextGC = int(float64(vm.bytesAllocated) * vm.config.GCHeapGrowFactor)

	if vm.config.LogGC {
		vm.logGC("-- gc end")
		vm.logGCf("   collected %d bytes (from %d to %d) next at %d",
			before-vm.bytesAllocated, before, vm.bytesAllocated, vm.nextGC)
	}
}

// markRoots pushes every GC root onto the gray worklist (spec.md §4.9):
// the live stack, every call frame's closure, the open-upvalue list, the
// globals table, the cached init-string, the allocator's single
// protected-object slot, and every object a host has pinned with PinRoot.
func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}

	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}

	for uv := vm.openUpvalues; uv != nil; uv = uv.Upvalue.Next {
		vm.markObject(uv)
	}

	vm.markTable(&vm.globals)
	vm.markObject(vm.initString)
	vm.markObject(vm.protected)

	for obj := range vm.pinned {
		vm.markObject(obj)
	}
}

func (vm *VM) markTable(t *Table) {
	for _, e := range t.entries {
		if e.Key != nil {
			vm.markObject(e.Key)
		}
		vm.markValue(e.Value)
	}
}

func (vm *VM) markValue(v Value) {
	if v.Type == ValObject {
		vm.markObject(v.Obj)
	}
}

// markObject marks an object gray: sets Marked and pushes it onto the gray
// stack for later blackening. It is idempotent on already-marked objects.
// The gray stack is a plain Go slice rather than anything allocated through
// newObject, so marking can never itself trigger a recursive collection
// (spec.md §4.9 "grey-stack sizing").
func (vm *VM) markObject(o *Obj) {
	if o == nil || o.Marked {
		return
	}
	o.Marked = true
	vm.grayStack = append(vm.grayStack, o)
}

// traceReferences drains the gray worklist, blackening each object by
// marking everything it references.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		obj := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(obj)
	}
}

// blacken marks every object a given object references. String and Native
// have no children.
func (vm *VM) blacken(o *Obj) {
	switch o.Kind {
	case ObjString, ObjNative:
		// no children
	case ObjUpvalue:
		vm.markValue(o.Upvalue.Closed)
	case ObjFunction:
		vm.markObject(o.Fn.Name)
		for _, c := range o.Fn.Chunk.Constants.Values() {
			vm.markValue(c)
		}
	case ObjClosure:
		vm.markObject(o.Closure.Fn)
		for _, uv := range o.Closure.Upvalues {
			vm.markObject(uv)
		}
	case ObjClass:
		vm.markObject(o.Class.Name)
		vm.markTable(o.Class.Methods)
	case ObjInstance:
		vm.markObject(o.Instance.Class)
		vm.markTable(o.Instance.Fields)
	case ObjBoundMethod:
		vm.markValue(o.BoundMethod.Receiver)
		vm.markObject(o.BoundMethod.Method)
	}
}

// sweep walks VM.objects; every still-white object is unlinked and
// discarded, every marked object has its mark cleared for the next cycle
// (spec.md §4.9 step 4, and the §3 invariant that marked is false once GC
// completes).
func (vm *VM) sweep() {
	var prev *Obj
	obj := vm.objects
	for obj != nil {
		if obj.Marked {
			obj.Marked = false
			prev = obj
			obj = obj.Next
			continue
		}

		unreached := obj
		obj = obj.Next
		if prev == nil {
			vm.objects = obj
		} else {
			prev.Next = obj
		}
		vm.bytesAllocated -= objSize(unreached.Kind)
	}
}

func (vm *VM) logGC(msg string) {
	vm.gcLogger.Debug(msg)
}

func (vm *VM) logGCf(format string, args ...interface{}) {
	vm.gcLogger.Debug(fmt.Sprintf(format, args...))
}
