// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/probelang/loxvm/internal/logctx"
	"github.com/probelang/loxvm/lang/compiler"
	"github.com/probelang/loxvm/lang/vm"
)

// runSource compiles and interprets source against a fresh VM, returning
// whatever it wrote to stdout. Tests that need the compile error or the
// runtime InterpretResult call the two steps directly instead.
func runSource(t *testing.T, source string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	machine := vm.New(vm.DefaultGCConfig(), &stdout, &stderr, logctx.New(&stderr, logctx.LevelError))

	fn, err := compiler.Compile(source, machine)
	if err != nil {
		t.Fatalf("compile error: %v (stderr: %s)", err, stderr.String())
	}
	if _, err := machine.Interpret(fn); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return stdout.String()
}

func TestArithmeticAndPrint(t *testing.T) {
	out := runSource(t, `print 1 + 2 * 3;`)
	if strings.TrimSpace(out) != "7" {
		t.Errorf("output = %q, want %q", out, "7")
	}
}

func TestStringConcatenation(t *testing.T) {
	out := runSource(t, `print "foo" + "bar";`)
	if strings.TrimSpace(out) != "foobar" {
		t.Errorf("output = %q, want %q", out, "foobar")
	}
}

func TestGlobalsAndLocals(t *testing.T) {
	out := runSource(t, `
		var a = 1;
		{
			var b = 2;
			print a + b;
		}
	`)
	if strings.TrimSpace(out) != "3" {
		t.Errorf("output = %q, want %q", out, "3")
	}
}

func TestControlFlow(t *testing.T) {
	out := runSource(t, `
		var total = 0;
		for (var i = 0; i < 5; i = i + 1) {
			if (i == 2) {
				total = total + 100;
			} else {
				total = total + 1;
			}
		}
		print total;
	`)
	if strings.TrimSpace(out) != "104" {
		t.Errorf("output = %q, want %q", out, "104")
	}
}

func TestClosures(t *testing.T) {
	out := runSource(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	want := "1\n2\n3"
	if strings.TrimSpace(out) != want {
		t.Errorf("output = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestClassesAndMethods(t *testing.T) {
	out := runSource(t, `
		class Greeter {
			init(name) {
				this.name = name;
			}
			greet() {
				return "hi " + this.name;
			}
		}
		var g = Greeter("lox");
		print g.greet();
	`)
	if strings.TrimSpace(out) != "hi lox" {
		t.Errorf("output = %q, want %q", out, "hi lox")
	}
}

func TestInheritanceAndSuper(t *testing.T) {
	out := runSource(t, `
		class Animal {
			speak() {
				return "...";
			}
		}
		class Dog < Animal {
			speak() {
				return "woof, " + super.speak();
			}
		}
		print Dog().speak();
	`)
	if strings.TrimSpace(out) != "woof, ..." {
		t.Errorf("output = %q, want %q", out, "woof, ...")
	}
}

func TestRuntimeErrorReportsTrace(t *testing.T) {
	var stdout, stderr bytes.Buffer
	machine := vm.New(vm.DefaultGCConfig(), &stdout, &stderr, logctx.New(&stderr, logctx.LevelError))

	fn, err := compiler.Compile(`
		fun boom() {
			return 1 + nil;
		}
		boom();
	`, machine)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	result, err := machine.Interpret(fn)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if result != vm.InterpretRuntimeError {
		t.Errorf("result = %v, want InterpretRuntimeError", result)
	}
	if !strings.Contains(stderr.String(), "in boom()") {
		t.Errorf("stderr trace missing frame for boom(): %s", stderr.String())
	}
}

func TestCompileErrorReturnsErrAndNoFunction(t *testing.T) {
	var stdout, stderr bytes.Buffer
	machine := vm.New(vm.DefaultGCConfig(), &stdout, &stderr, logctx.New(&stderr, logctx.LevelError))

	fn, err := compiler.Compile(`print ;`, machine)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if fn != nil {
		t.Error("a compile error should yield a nil function")
	}
}

func TestClockNativeReturnsNumber(t *testing.T) {
	out := runSource(t, `print clock() >= 0;`)
	if strings.TrimSpace(out) != "true" {
		t.Errorf("output = %q, want %q", out, "true")
	}
}

func TestGCStressDoesNotCorruptLiveState(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cfg := vm.DefaultGCConfig()
	cfg.StressGC = true
	machine := vm.New(cfg, &stdout, &stderr, logctx.New(&stderr, logctx.LevelError))

	fn, err := compiler.Compile(`
		class Node {
			init(value) {
				this.value = value;
			}
		}
		var total = 0;
		for (var i = 0; i < 50; i = i + 1) {
			var n = Node(i);
			total = total + n.value;
		}
		print total;
	`, machine)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if _, err := machine.Interpret(fn); err != nil {
		t.Fatalf("runtime error under stress GC: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "1225" {
		t.Errorf("output = %q, want %q", stdout.String(), "1225")
	}
}
