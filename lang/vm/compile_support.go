// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

// The compiler is an external collaborator (spec.md §1): it does not reach
// into VM internals directly, only through this small allocation surface,
// so that every object the compiler produces is registered on the same
// intrusive object list and intern pool the runtime later collects.

// NewFunction allocates a fresh, empty ObjFunction wrapper for the compiler
// to populate (arity, upvalue count, chunk, name).
func (vm *VM) NewFunction() *Obj {
	obj := vm.newObject(ObjFunction)
	obj.Fn = &ObjFunction{}
	return obj
}

// InternString exposes the interner to the compiler, e.g. for identifier
// names used as global-variable and property constants.
func (vm *VM) InternString(s string) *Obj {
	return vm.internString(s)
}
