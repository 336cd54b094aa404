// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probelang/loxvm/lang/compiler"
	"github.com/probelang/loxvm/lang/vm"
)

func disasmCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("usage: loxvm disasm <script.lox>", 1)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	path := ctx.Args().Get(0)
	source, err := os.ReadFile(path)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("%s: %v", path, err), 1)
	}

	machine := vm.New(toVMConfig(cfg), os.Stdout, os.Stderr, loadLogger(ctx))
	fn, err := compiler.Compile(string(source), machine)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("%s: %v", path, err), exitCompileError)
	}

	disassembleTree(fn, map[*vm.Obj]bool{})
	return nil
}

// disassembleTree prints fn's chunk and then recurses into every nested
// function reachable through its constant pool, so one invocation dumps an
// entire script rather than only its top-level frame. seen guards against
// printing the same function twice when recursive calls reference it.
func disassembleTree(fn *vm.Obj, seen map[*vm.Obj]bool) {
	if fn == nil || seen[fn] {
		return
	}
	seen[fn] = true

	fmt.Println(vm.Disassemble(fn.Fn.String(), &fn.Fn.Chunk))

	for _, c := range fn.Fn.Chunk.Constants.Values() {
		if c.IsFunction() {
			disassembleTree(c.Obj, seen)
		}
	}
}
