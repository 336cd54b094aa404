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
	"io"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/peterh/liner"

	"github.com/probelang/loxvm/internal/config"
	"github.com/probelang/loxvm/internal/logctx"
	"github.com/probelang/loxvm/lang/compiler"
	"github.com/probelang/loxvm/lang/vm"
	"github.com/probelang/loxvm/stdlib/bignum"
	"github.com/probelang/loxvm/stdlib/crypto"
)

// runREPL drives an interactive session: one long-lived VM (globals and the
// string intern pool persist across lines, same as the source repl loop),
// line editing and up-arrow history via peterh/liner, history durable across
// process restarts via a small leveldb-backed store, and an LRU cache of
// compiled lines so re-entering an exact previous line skips recompilation.
func runREPL(cfg config.Config, logger *logctx.Logger) error {
	machine := vm.New(toVMConfig(cfg), os.Stdout, os.Stderr, logger)
	bignum.Register(machine)
	crypto.Register(machine)

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	histDir := filepath.Join(home, ".loxvm")
	if err := os.MkdirAll(histDir, 0o755); err != nil {
		return fmt.Errorf("repl: creating history dir: %w", err)
	}

	hist, err := openHistory(histDir)
	if err != nil {
		return fmt.Errorf("repl: opening history: %w", err)
	}
	defer hist.Close()

	// Cached Functions are rooted via PinRoot/UnpinRoot: without it, a
	// Function (and the strings in its constant pool) sitting only in this
	// cache — not on the VM's stack, frames, or globals — would be invisible
	// to markRoots and could be swept out from under a later cache hit,
	// especially under stress_gc.
	cache, err := lru.NewWithEvict(128, func(_ interface{}, value interface{}) {
		machine.UnpinRoot(value.(*vm.Obj))
	})
	if err != nil {
		return fmt.Errorf("repl: building compile cache: %w", err)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if prior, err := hist.Lines(); err == nil {
		for _, l := range prior {
			line.AppendHistory(l)
		}
	}

	fmt.Println("loxvm — press Ctrl-D to exit")
	for {
		input, err := line.Prompt("> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		line.AppendHistory(input)
		if err := hist.Append(input); err != nil {
			logger.Warn("repl: failed to persist history line", "err", err)
		}

		var fn *vm.Obj
		if cached, ok := cache.Get(input); ok {
			fn = cached.(*vm.Obj)
		} else {
			fn, err = compiler.Compile(input, machine)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			machine.PinRoot(fn)
			cache.Add(input, fn)
		}

		if _, err := machine.Interpret(fn); err != nil {
			// Interpret has already printed the runtime trace to stderr.
			continue
		}
	}
}
