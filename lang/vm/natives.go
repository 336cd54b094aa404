// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "time"

// nativeClock is the one native function the source implementation ships:
// seconds elapsed since the Unix epoch, as a float. stdlib/crypto and
// stdlib/bignum register further natives via VM.DefineNative — the
// supplement spec.md's Non-goals never excludes (SPEC_FULL.md §D).
func nativeClock(vm *VM, args []Value) (Value, error) {
	return NumberVal(float64(time.Now().UnixNano()) / 1e9), nil
}
