// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import mapset "github.com/deckarep/golang-set"

// scopeStack tracks, per lexical-scope depth, the set of local names
// already declared in that scope — so redeclaring a name in the same block
// ("Already a variable with this name in this scope.") is an O(1) set
// membership check rather than a linear scan of every local the function
// has accumulated so far.
type scopeStack struct {
	scopes []mapset.Set
}

func newScopeStack() *scopeStack { return &scopeStack{} }

func (s *scopeStack) push() { s.scopes = append(s.scopes, mapset.NewSet()) }

func (s *scopeStack) pop() { s.scopes = s.scopes[:len(s.scopes)-1] }

// declareInCurrent records name in the innermost scope, reporting false if
// it was already present there.
func (s *scopeStack) declareInCurrent(name string) bool {
	top := s.scopes[len(s.scopes)-1]
	if top.Contains(name) {
		return false
	}
	top.Add(name)
	return true
}

// declareVariable registers the identifier just consumed (c.previous) as a
// new local in the current scope. Globals (scopeDepth == 0) are resolved
// dynamically by name at runtime and never reach this path.
func (c *Compiler) declareVariable() {
	if c.fn.scopeDepth == 0 {
		return
	}

	name := c.previous.Literal
	if !c.fn.localNames.declareInCurrent(name) {
		c.error("Already a variable with this name in this scope.")
		return
	}

	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.fn.locals) == 256 {
		c.error("Too many local variables in function.")
		return
	}
	c.fn.locals = append(c.fn.locals, local{name: name, depth: -1})
}

// markInitialized promotes the most recently declared local from
// "declared" (depth -1) to "defined" (depth == current scope), making it
// visible to its own initializer's nested references (closures over a
// function's own name).
func (c *Compiler) markInitialized() {
	if c.fn.scopeDepth == 0 {
		return
	}
	c.fn.locals[len(c.fn.locals)-1].depth = c.fn.scopeDepth
}

// resolveLocal searches fs's locals from innermost to outermost, returning
// the stack slot index, or -1 if name is not a local of this function.
func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				return -1
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue implements spec.md §4.6's capture-by-name resolution at
// compile time: walk outward through enclosing functions, recording a
// chain of upvalue references so a deeply nested closure can still reach a
// variable several calls up.
func resolveUpvalue(c *Compiler, fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}

	if local := resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].isCaptured = true
		return addUpvalue(c, fs, byte(local), true)
	}

	if upvalue := resolveUpvalue(c, fs.enclosing, name); upvalue != -1 {
		return addUpvalue(c, fs, byte(upvalue), false)
	}

	return -1
}

func addUpvalue(c *Compiler, fs *funcState, index byte, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) == 255 {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}
