// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarkObjectIsIdempotent(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)
	obj := &Obj{Kind: ObjString, Str: &ObjString{chars: "x"}}

	vm.markObject(obj)
	if len(vm.grayStack) != 1 {
		t.Fatalf("grayStack len = %d, want 1", len(vm.grayStack))
	}
	vm.markObject(obj)
	if len(vm.grayStack) != 1 {
		t.Errorf("marking an already-marked object should not push it again, grayStack len = %d", len(vm.grayStack))
	}
}

func TestSweepCollectsUnreachedObjects(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)

	kept := vm.newObject(ObjString)
	kept.Str = &ObjString{chars: "kept"}
	discarded := vm.newObject(ObjString)
	discarded.Str = &ObjString{chars: "discarded"}

	kept.Marked = true
	vm.sweep()

	found := false
	for o := vm.objects; o != nil; o = o.Next {
		if o == discarded {
			t.Fatal("unmarked object should have been unlinked by sweep")
		}
		if o == kept {
			found = true
		}
	}
	if !found {
		t.Fatal("marked object should survive sweep")
	}
	if kept.Marked {
		t.Error("sweep should clear the mark bit on survivors for the next cycle")
	}
}

func TestStressGCTriggersOnEveryAllocation(t *testing.T) {
	cfg := DefaultGCConfig()
	cfg.StressGC = true
	vm := New(cfg, nil, nil, nil)

	// Allocate a string with nothing reachable from any root: under
	// stress-gc the very next allocation should collect it.
	vm.newObject(ObjString)
	before := vm.bytesAllocated

	vm.InternString("reaped-by-next-alloc")
	vm.InternString("trigger")

	if vm.bytesAllocated > before+2*sizeofString {
		t.Errorf("bytesAllocated = %d, expected stress GC to reclaim unreachable strings", vm.bytesAllocated)
	}
}

func TestGCDisabledNeverCollects(t *testing.T) {
	cfg := DefaultGCConfig()
	cfg.StressGC = true
	cfg.GCEnabled = false
	vm := New(cfg, nil, nil, nil)

	for i := 0; i < 10; i++ {
		vm.newObject(ObjString)
	}
	// With GC disabled, nothing is ever unlinked, so the object list keeps
	// every allocation including the "init" string from New() and the
	// "clock" native's name.
	count := 0
	for o := vm.objects; o != nil; o = o.Next {
		count++
	}
	if count < 10 {
		t.Errorf("object count = %d, want at least 10 survivors with GC disabled", count)
	}
}

func TestPinRootSurvivesSweepWithNoOtherReferences(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)

	obj := vm.newObject(ObjString)
	obj.Str = &ObjString{chars: "pinned"}
	vm.PinRoot(obj)

	vm.collectGarbage()

	found := false
	for o := vm.objects; o != nil; o = o.Next {
		if o == obj {
			found = true
		}
	}
	if !found {
		t.Fatal("a pinned object with no other roots should survive collectGarbage")
	}
}

func TestUnpinRootAllowsCollection(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)

	obj := vm.newObject(ObjString)
	obj.Str = &ObjString{chars: "temporary"}
	vm.PinRoot(obj)
	vm.UnpinRoot(obj)

	vm.collectGarbage()

	for o := vm.objects; o != nil; o = o.Next {
		if o == obj {
			t.Fatal("unpinning should make an otherwise-unreachable object collectible")
		}
	}
}

func TestPinRootIsRefcounted(t *testing.T) {
	vm := New(DefaultGCConfig(), nil, nil, nil)

	obj := vm.newObject(ObjString)
	obj.Str = &ObjString{chars: "shared"}
	vm.PinRoot(obj)
	vm.PinRoot(obj)

	vm.UnpinRoot(obj)
	vm.collectGarbage()

	found := false
	for o := vm.objects; o != nil; o = o.Next {
		if o == obj {
			found = true
		}
	}
	if !found {
		t.Fatal("an object pinned twice should survive a single UnpinRoot")
	}
}

func TestLogGCWritesToStdoutNotStderr(t *testing.T) {
	cfg := DefaultGCConfig()
	cfg.LogGC = true
	var stdout, stderr bytes.Buffer
	vm := New(cfg, &stdout, &stderr, nil)

	vm.collectGarbage()

	if !strings.Contains(stdout.String(), "-- gc begin") {
		t.Errorf("expected GC trace on stdout, got stdout=%q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "[DEBUG]") {
		t.Errorf("expected GC trace lines to carry a [DEBUG] prefix, got stdout=%q", stdout.String())
	}
	if strings.Contains(stderr.String(), "gc") {
		t.Errorf("GC trace should not be written to stderr, got stderr=%q", stderr.String())
	}
}
