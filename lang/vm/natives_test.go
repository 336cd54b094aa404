// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "testing"

func TestNativeClockReturnsNonNegativeNumber(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)
	v, err := nativeClock(vm, nil)
	if err != nil {
		t.Fatalf("nativeClock returned an error: %v", err)
	}
	if !v.IsNumber() {
		t.Fatalf("nativeClock result type = %v, want ValNumber", v.Type)
	}
	if v.Number < 0 {
		t.Errorf("nativeClock() = %v, want >= 0", v.Number)
	}
}

func TestClockIsRegisteredAsGlobal(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)
	name := vm.internString("clock")
	v, ok := vm.globals.Get(name)
	if !ok {
		t.Fatal("\"clock\" should be defined as a global by New")
	}
	if !v.IsNative() {
		t.Errorf("clock global type = %v, want a native function", v.Type)
	}
}
