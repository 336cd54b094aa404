// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command loxvm is the command-line front end for the Lox bytecode virtual
// machine: a script runner, a disassembler, and an interactive REPL, all
// sharing the same construction-time GC configuration (spec.md §6).
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probelang/loxvm/internal/config"
	"github.com/probelang/loxvm/internal/logctx"
	"github.com/probelang/loxvm/lang/vm"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a loxvm.toml configuration file",
	}
	stressGCFlag = cli.BoolFlag{
		Name:  "gc-stress",
		Usage: "collect garbage before every allocation (spec.md §6 stress_gc)",
	}
	logGCFlag = cli.BoolFlag{
		Name:  "gc-log",
		Usage: "log every collection's before/after heap size",
	}
	noGCFlag = cli.BoolFlag{
		Name:  "gc-disabled",
		Usage: "never collect garbage (leaks for the life of the process)",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable debug-level logging",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "loxvm"
	app.Usage = "the Lox bytecode virtual machine"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{configFlag, stressGCFlag, logGCFlag, noGCFlag, verboseFlag}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "compile and execute one or more scripts",
			ArgsUsage: "<script.lox> [more.lox ...]",
			Action:    runCommand,
		},
		{
			Name:   "repl",
			Usage:  "start an interactive session",
			Action: replCommand,
		},
		{
			Name:      "disasm",
			Usage:     "print a script's compiled bytecode",
			ArgsUsage: "<script.lox>",
			Action:    disasmCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString(configFlag.Name))
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if ctx.GlobalIsSet(stressGCFlag.Name) {
		cfg.GC.StressGC = ctx.GlobalBool(stressGCFlag.Name)
	}
	if ctx.GlobalIsSet(logGCFlag.Name) {
		cfg.GC.LogGC = ctx.GlobalBool(logGCFlag.Name)
	}
	if ctx.GlobalIsSet(noGCFlag.Name) {
		cfg.GC.Enabled = !ctx.GlobalBool(noGCFlag.Name)
	}
	return cfg, nil
}

func loadLogger(ctx *cli.Context) *logctx.Logger {
	level := logctx.LevelInfo
	if ctx.GlobalBool(verboseFlag.Name) {
		level = logctx.LevelDebug
	}
	return logctx.New(os.Stderr, level)
}

// toVMConfig translates the TOML-sourced config.GC knobs into the vm
// package's own GCConfig, keeping the two packages independently testable.
func toVMConfig(cfg config.Config) vm.GCConfig {
	return vm.GCConfig{
		GCEnabled:        cfg.GC.Enabled,
		LogGC:            cfg.GC.LogGC,
		StressGC:         cfg.GC.StressGC,
		GCHeapGrowFactor: cfg.GC.HeapGrowFactor,
		InitialNextGC:    cfg.GC.InitialNextGC,
	}
}

func replCommand(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	return runREPL(cfg, loadLogger(ctx))
}
