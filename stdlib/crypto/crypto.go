// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package crypto registers hashing natives on a VM, backed by
// golang.org/x/crypto/sha3. The teacher tree's probe-lang stdlib/crypto
// natives are stubs that return zero values; these compute the actual
// digest (see DESIGN.md).
package crypto

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/probelang/loxvm/lang/vm"
)

// Register defines the hash natives on machine's global table.
func Register(machine *vm.VM) {
	machine.DefineNative("sha3_256", hashWith(func(b []byte) []byte {
		sum := sha3.Sum256(b)
		return sum[:]
	}))
	machine.DefineNative("keccak256", hashWith(func(b []byte) []byte {
		h := sha3.NewLegacyKeccak256()
		h.Write(b)
		return h.Sum(nil)
	}))
}

// hashWith lifts a []byte -> []byte digest function into a NativeFn that
// takes one Lox string and returns its digest as a lowercase hex string.
func hashWith(digest func([]byte) []byte) vm.NativeFn {
	return func(m *vm.VM, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 || !args[0].IsString() {
			return vm.NilVal(), fmt.Errorf("expected a single string argument")
		}
		sum := digest([]byte(args[0].AsString()))
		return vm.ObjVal(m.InternString(hex.EncodeToString(sum))), nil
	}
}
