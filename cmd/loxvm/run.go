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
	"github.com/probelang/loxvm/stdlib/bignum"
	"github.com/probelang/loxvm/stdlib/crypto"
)

// Exit codes follow the source implementation's convention (spec.md §6):
// a compile error is 65 (EX_DATAERR), a runtime error is 70 (EX_SOFTWARE).
const (
	exitCompileError = 65
	exitRuntimeError = 70
)

func runCommand(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.NewExitError("usage: loxvm run <script.lox> [more.lox ...]", 1)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logger := loadLogger(ctx)

	for _, path := range ctx.Args() {
		source, err := os.ReadFile(path)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("%s: %v", path, err), 1)
		}

		machine := vm.New(toVMConfig(cfg), os.Stdout, os.Stderr, logger)
		bignum.Register(machine)
		crypto.Register(machine)

		fn, err := compiler.Compile(string(source), machine)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("%s: %v", path, err), exitCompileError)
		}

		if _, err := machine.Interpret(fn); err != nil {
			// Interpret has already printed the runtime trace to stderr.
			return cli.NewExitError("", exitRuntimeError)
		}
	}
	return nil
}
