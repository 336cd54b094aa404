// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package bignum registers a family of 256-bit integer natives on a VM,
// backed by github.com/holiman/uint256 — the fixed-width arithmetic type
// this codebase's domain (chain state, balances, hashes) actually needs
// and IEEE-754 float64 cannot represent exactly. Lox's Value has no
// integer variant, so values cross the native boundary as base-10 strings:
// u256_add("18446744073709551616", "1") returns "18446744073709551617".
package bignum

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/probelang/loxvm/lang/vm"
)

// Register defines every u256_* native on machine's global table.
func Register(machine *vm.VM) {
	machine.DefineNative("u256_add", wrapBinary(func(a, b *uint256.Int) (*uint256.Int, error) {
		return new(uint256.Int).Add(a, b), nil
	}))
	machine.DefineNative("u256_sub", wrapBinary(func(a, b *uint256.Int) (*uint256.Int, error) {
		return new(uint256.Int).Sub(a, b), nil
	}))
	machine.DefineNative("u256_mul", wrapBinary(func(a, b *uint256.Int) (*uint256.Int, error) {
		return new(uint256.Int).Mul(a, b), nil
	}))
	machine.DefineNative("u256_div", wrapBinary(func(a, b *uint256.Int) (*uint256.Int, error) {
		if b.IsZero() {
			return nil, fmt.Errorf("u256_div: division by zero")
		}
		return new(uint256.Int).Div(a, b), nil
	}))
	machine.DefineNative("u256_mod", wrapBinary(func(a, b *uint256.Int) (*uint256.Int, error) {
		if b.IsZero() {
			return nil, fmt.Errorf("u256_mod: division by zero")
		}
		return new(uint256.Int).Mod(a, b), nil
	}))
	machine.DefineNative("u256_eq", wrapCompare(func(a, b *uint256.Int) bool { return a.Eq(b) }))
	machine.DefineNative("u256_lt", wrapCompare(func(a, b *uint256.Int) bool { return a.Lt(b) }))
	machine.DefineNative("u256_gt", wrapCompare(func(a, b *uint256.Int) bool { return a.Gt(b) }))

	machine.DefineNative("u256_from_number", func(m *vm.VM, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 || !args[0].IsNumber() {
			return vm.NilVal(), fmt.Errorf("u256_from_number: expected a number argument")
		}
		n := new(uint256.Int).SetUint64(uint64(args[0].Number))
		return vm.ObjVal(m.InternString(n.Dec())), nil
	})
}

// wrapBinary lifts a two-operand uint256 operation into a NativeFn that
// parses both arguments as base-10 strings and returns the result as one.
func wrapBinary(op func(a, b *uint256.Int) (*uint256.Int, error)) vm.NativeFn {
	return func(m *vm.VM, args []vm.Value) (vm.Value, error) {
		a, b, err := parsePair(args)
		if err != nil {
			return vm.NilVal(), err
		}
		result, err := op(a, b)
		if err != nil {
			return vm.NilVal(), err
		}
		return vm.ObjVal(m.InternString(result.Dec())), nil
	}
}

// wrapCompare lifts a two-operand uint256 predicate into a NativeFn
// returning a Lox boolean.
func wrapCompare(pred func(a, b *uint256.Int) bool) vm.NativeFn {
	return func(m *vm.VM, args []vm.Value) (vm.Value, error) {
		a, b, err := parsePair(args)
		if err != nil {
			return vm.NilVal(), err
		}
		return vm.BoolVal(pred(a, b)), nil
	}
}

func parsePair(args []vm.Value) (*uint256.Int, *uint256.Int, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	a, err := parseU256(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := parseU256(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func parseU256(v vm.Value) (*uint256.Int, error) {
	if !v.IsString() {
		return nil, fmt.Errorf("expected a decimal string, got %s", v.String())
	}
	n := new(uint256.Int)
	if err := n.SetFromDecimal(v.AsString()); err != nil {
		return nil, fmt.Errorf("invalid 256-bit decimal %q: %w", v.AsString(), err)
	}
	return n, nil
}
