// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import (
	"io"
	"os"
	"testing"

	"github.com/probelang/loxvm/internal/logctx"
	"github.com/probelang/loxvm/lang/vm"
)

func newTestVM() *vm.VM {
	return vm.New(vm.DefaultGCConfig(), io.Discard, io.Discard, logctx.New(io.Discard, logctx.LevelError))
}

// compileQuiet runs Compile with os.Stdout redirected, since errorAt reports
// directly to stdout the way the reference compiler does.
func compileQuiet(t *testing.T, source string) (*vm.Obj, error) {
	t.Helper()
	saved := os.Stdout
	_, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = saved
		w.Close()
	}()

	return Compile(source, newTestVM())
}

func TestCompileValidProgramSucceeds(t *testing.T) {
	fn, err := compileQuiet(t, `
		var a = 1;
		fun add(x, y) { return x + y; }
		print add(a, 2);
	`)
	if err != nil {
		t.Fatalf("Compile returned error for valid source: %v", err)
	}
	if fn == nil {
		t.Fatal("Compile returned a nil Function for valid source")
	}
}

func TestCompileSyntaxErrorReturnsErr(t *testing.T) {
	fn, err := compileQuiet(t, `var a = ;`)
	if err == nil {
		t.Fatal("Compile should report an error for a missing expression")
	}
	if fn != nil {
		t.Error("Compile should return a nil Function on compile error")
	}
}

func TestCompileUnterminatedBlockIsError(t *testing.T) {
	_, err := compileQuiet(t, `fun f() { print 1;`)
	if err == nil {
		t.Fatal("Compile should report an error for an unterminated block")
	}
}

func TestCompileMultipleErrorsSynchronizes(t *testing.T) {
	// Two independent syntax errors on separate statements: synchronize
	// should recover after the first so compilation does not panic and
	// both are still attributed to hadError.
	_, err := compileQuiet(t, `
		var a = ;
		var b = ;
		print a;
	`)
	if err == nil {
		t.Fatal("Compile should report an error when multiple statements are malformed")
	}
}

func TestCompileClosureCapturesEnclosingLocal(t *testing.T) {
	fn, err := compileQuiet(t, `
		fun makeCounter() {
			var count = 0;
			fun counter() {
				count = count + 1;
				return count;
			}
			return counter;
		}
		print makeCounter();
	`)
	if err != nil {
		t.Fatalf("Compile returned error for valid closure source: %v", err)
	}
	if fn == nil {
		t.Fatal("Compile returned a nil Function for valid closure source")
	}
}

func TestCompileClassWithSuperclass(t *testing.T) {
	fn, err := compileQuiet(t, `
		class Animal {
			speak() { print "..."; }
		}
		class Dog < Animal {
			speak() { super.speak(); }
		}
		print Dog().speak();
	`)
	if err != nil {
		t.Fatalf("Compile returned error for valid class source: %v", err)
	}
	if fn == nil {
		t.Fatal("Compile returned a nil Function for valid class source")
	}
}

func TestCompileReturnFromTopLevelIsError(t *testing.T) {
	_, err := compileQuiet(t, `return 1;`)
	if err == nil {
		t.Fatal("Compile should reject a top-level return")
	}
}

func TestCompileThisOutsideClassIsError(t *testing.T) {
	_, err := compileQuiet(t, `fun f() { print this; }`)
	if err == nil {
		t.Fatal("Compile should reject `this` outside of a method")
	}
}
