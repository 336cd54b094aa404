// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "unsafe"

// captureUpvalue implements spec.md §4.6's capture protocol. VM.openUpvalues
// is a singly linked list of open Upvalues sorted by descending referenced
// stack address (head = highest address, i.e. most recently pushed).
//
//  1. Walk from the head past any upvalue whose slot address is strictly
//     above the target slot.
//  2. If the next upvalue references exactly this slot, share it.
//  3. Otherwise splice a new open upvalue in at this position.
func (vm *VM) captureUpvalue(local *Value) *Obj {
	var prev *Obj
	cur := vm.openUpvalues

	for cur != nil && slotAddr(cur.Upvalue.Location) > slotAddr(local) {
		prev = cur
		cur = cur.Upvalue.Next
	}

	if cur != nil && cur.Upvalue.Location == local {
		return cur
	}

	created := vm.newObject(ObjUpvalue)
	created.Upvalue = &ObjUpvalue{Location: local, Next: cur}

	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Upvalue.Next = created
	}

	return created
}

// closeUpvalues closes every open upvalue referencing a slot at or above
// lastSlot: the captured Value is copied off the stack into the upvalue's
// own Closed field, and Location is redirected to point at Closed. This is
// a one-way state transition (spec.md §3 invariants).
func (vm *VM) closeUpvalues(lastSlot *Value) {
	for vm.openUpvalues != nil && slotAddr(vm.openUpvalues.Upvalue.Location) >= slotAddr(lastSlot) {
		uv := vm.openUpvalues.Upvalue
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.Next
		uv.Next = nil
	}
}

// slotAddr returns an integer proxy for a *Value's address, used only to
// compare the relative position of two stack slots within the same backing
// array — standing in for the raw pointer comparisons the source VM
// performs on `Value*` slots directly.
func slotAddr(p *Value) int {
	return int(uintptr(unsafe.Pointer(p)))
}
