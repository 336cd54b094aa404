// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

// internString canonicalizes a Go string into the VM's single String heap
// object per content (spec.md §4.5). If an equal string is already
// interned, the existing *Obj is returned; otherwise a fresh ObjString is
// allocated, registered on the intrusive object list, and installed in the
// intern table.
//
// The newly allocated string is held in the allocator's protected-object
// slot for the duration of the table insert, since it is reachable from
// nowhere else yet. Table growth is a plain Go allocation that is not
// counted toward nextGC, so in this implementation the insert itself never
// starts a collection.
func (vm *VM) internString(s string) *Obj {
	hash := hashString(s)
	if existing := vm.strings.FindString(s, hash); existing != nil {
		return existing
	}

	obj := vm.newObject(ObjString)
	obj.Str = &ObjString{chars: s, hash: hash}

	vm.protected = obj
	vm.strings.Set(obj, NilVal())
	vm.protected = nil

	return obj
}
