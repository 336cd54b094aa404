// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package config loads the VM's construction-time knobs (spec.md §6) from an
// optional TOML file, the same way gprobe's own node configuration is
// loaded, with CLI flags applied as overrides afterward by the caller.
package config

import (
	"os"

	"github.com/naoina/toml"
)

// GC holds the five construction-time knobs spec.md §6 names.
type GC struct {
	Enabled       bool    `toml:"gc_enabled"`
	LogGC         bool    `toml:"log_gc"`
	StressGC      bool    `toml:"stress_gc"`
	HeapGrowFactor float64 `toml:"gc_heap_grow_factor"`
	InitialNextGC int     `toml:"initial_next_gc"`
}

// Config is the full set of options a [loxvm.toml] file may set.
type Config struct {
	GC GC `toml:"gc"`
}

// Default returns the spec.md §6 default configuration: GC enabled, no
// tracing, no stress testing, 2x heap growth, 1 MiB initial threshold.
func Default() Config {
	return Config{
		GC: GC{
			Enabled:        true,
			LogGC:          false,
			StressGC:       false,
			HeapGrowFactor: 2,
			InitialNextGC:  1 << 20,
		},
	}
}

// Load reads and merges a TOML config file over the defaults. A missing
// file is not an error — it simply yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
