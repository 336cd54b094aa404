// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if !cfg.GC.Enabled {
		t.Error("GC.Enabled should default to true")
	}
	if cfg.GC.LogGC {
		t.Error("GC.LogGC should default to false")
	}
	if cfg.GC.StressGC {
		t.Error("GC.StressGC should default to false")
	}
	if cfg.GC.HeapGrowFactor != 2 {
		t.Errorf("GC.HeapGrowFactor = %v, want 2", cfg.GC.HeapGrowFactor)
	}
	if cfg.GC.InitialNextGC != 1<<20 {
		t.Errorf("GC.InitialNextGC = %v, want %v", cfg.GC.InitialNextGC, 1<<20)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want Default() = %+v", cfg, Default())
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load of a missing file should not error, got: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load of a missing file = %+v, want Default() = %+v", cfg, Default())
	}
}

func TestLoadOverlaysTOMLOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loxvm.toml")
	contents := `
[gc]
stress_gc = true
gc_heap_grow_factor = 1.5
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.GC.StressGC {
		t.Error("TOML override of stress_gc should take effect")
	}
	if cfg.GC.HeapGrowFactor != 1.5 {
		t.Errorf("GC.HeapGrowFactor = %v, want 1.5 from TOML override", cfg.GC.HeapGrowFactor)
	}
	// Fields the TOML file did not mention should keep their default values.
	if !cfg.GC.Enabled {
		t.Error("GC.Enabled should remain at its default of true when not overridden")
	}
}

func TestLoadMalformedTOMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("this is not [valid toml"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load should return an error for malformed TOML")
	}
}
