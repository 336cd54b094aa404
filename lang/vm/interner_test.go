// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "testing"

func TestInternStringDedupes(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)

	a := vm.internString("hello")
	b := vm.internString("hello")
	if a != b {
		t.Error("interning the same content twice should return the identical object")
	}

	c := vm.internString("world")
	if c == a {
		t.Error("interning different content should return different objects")
	}
}

func TestInternStringPreservesContent(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)
	obj := vm.internString("abc")
	if obj.Str.chars != "abc" {
		t.Errorf("chars = %q, want abc", obj.Str.chars)
	}
	if obj.Str.hash != hashString("abc") {
		t.Error("interned string should carry its precomputed hash")
	}
}
