// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package compiler implements a single-pass Pratt-parsing compiler that
// turns Lox source directly into bytecode Chunks, collapsing the lexer ->
// parser -> AST -> codegen pipeline into one recursive-descent pass — the
// same architecture the original bytecode reference implementation uses,
// and the shape spec.md §6's "producer" contract expects: a Function ready
// to hand straight to the VM.
package compiler

import (
	"fmt"

	"github.com/probelang/loxvm/lang/lexer"
	"github.com/probelang/loxvm/lang/token"
	"github.com/probelang/loxvm/lang/vm"
)

// FunctionType distinguishes the kind of function body currently being
// compiled, which determines how an implicit "this"/return is handled.
type FunctionType int

const (
	TypeFunction FunctionType = iota
	TypeInitializer
	TypeMethod
	TypeScript
)

// local is one entry of a function compiler's lexical scope stack.
type local struct {
	name       string
	depth      int // -1 means "declared but not yet defined"
	isCaptured bool
}

// upvalueRef records how a closure's upvalue slot is populated: from the
// enclosing function's local (isLocal true, index = local slot) or from
// the enclosing function's own upvalue vector (isLocal false).
type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcState is one nested function's compilation context. funcState values
// form a stack via enclosing, mirroring the call stack of nested fun/method
// declarations being compiled.
type funcState struct {
	enclosing *funcState

	function *vm.Obj // wraps vm.ObjFunction
	fnType   FunctionType

	locals     []local
	localNames *scopeStack
	upvalues   []upvalueRef
	scopeDepth int
}

// classState tracks a class declaration's compile-time context, including
// whether it has a superclass (needed to decide whether `super` is in
// scope).
type classState struct {
	enclosing      *classState
	hasSuperclass  bool
}

// Compiler drives the single-pass parse. It holds the lexer, the two-token
// lookahead buffer canonical to Pratt parsers (previous/current), and the
// nested function/class compilation stacks.
type Compiler struct {
	lex *lexer.Lexer
	vm  *vm.VM

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool

	fn    *funcState
	class *classState
}

// Compile parses source into a top-level script Function ready for
// vm.VM.Interpret. A compile error returns a non-nil error and a nil
// Function, matching spec.md §6's INTERPRET_COMPILE_ERROR contract (owned
// by the front end, not the core).
func Compile(source string, machine *vm.VM) (*vm.Obj, error) {
	c := &Compiler{
		lex: lexer.New("", source),
		vm:  machine,
	}
	c.pushFunction(TypeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endFunction()
	if c.hadError {
		return nil, fmt.Errorf("compile error")
	}
	return fn, nil
}

// ---- Token stream helpers ---------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Literal)
	}
}

func (c *Compiler) check(t token.Type) bool { return c.current.Type == t }

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := ""
	switch tok.Type {
	case token.EOF:
		where = " at end"
	case token.ILLEGAL:
	default:
		where = fmt.Sprintf(" at '%s'", tok.Literal)
	}
	fmt.Printf("[line %d] Error%s: %s\n", tok.Pos.Line, where, message)
}

// synchronize discards tokens until a likely statement boundary, so one
// syntax error does not cascade into a flood of spurious ones.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// ---- Function compilation scaffolding --------------------------------------

func (c *Compiler) pushFunction(fnType FunctionType, name string) {
	fn := c.vm.NewFunction()
	// The function is reachable from no VM root until compilation finishes,
	// so it is pinned (with the constants and name strings it collects) for
	// as long as it is being compiled.
	c.vm.PinRoot(fn)
	if name != "" {
		fn.Fn.Name = c.vm.InternString(name)
	}

	fs := &funcState{
		enclosing:  c.fn,
		function:   fn,
		fnType:     fnType,
		localNames: newScopeStack(),
	}
	c.fn = fs

	// Slot 0 of every frame is reserved. It is named "this" for every kind
	// of body except TypeFunction (for methods/initializers it holds the
	// receiver; in the top-level script `this` is still rejected because no
	// class is being compiled); in a plain function it is an unnamed slot
	// the compiler never emits a reference to.
	slotName := ""
	if fnType != TypeFunction {
		slotName = "this"
	}
	// The top-level script stays at scope depth 0, so its declarations are
	// globals; every other function body opens the scope of its parameters.
	if fnType != TypeScript {
		c.fn.beginScope()
	}
	c.fn.locals = append(c.fn.locals, local{name: slotName, depth: 0})
}

func (c *Compiler) endFunction() *vm.Obj {
	c.emitReturn()
	fn := c.fn.function
	fn.Fn.UpvalueCount = len(c.fn.upvalues)
	c.vm.UnpinRoot(fn)
	c.fn = c.fn.enclosing
	return fn
}

func (fs *funcState) beginScope() { fs.scopeDepth++; fs.localNames.push() }

// chunk returns the Chunk currently being emitted into.
func (c *Compiler) chunk() *vm.Chunk { return &c.fn.function.Fn.Chunk }

func (c *Compiler) line() int { return c.previous.Pos.Line }

// ---- Bytecode emission ------------------------------------------------------

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.line()) }
func (c *Compiler) emitOp(op vm.OpCode) { c.emitByte(byte(op)) }
func (c *Compiler) emitOps(a, b vm.OpCode) { c.emitOp(a); c.emitOp(b) }

func (c *Compiler) emitConstant(v vm.Value) {
	c.emitOp(vm.OpConstant)
	c.emitByte(c.makeConstant(v))
}

func (c *Compiler) makeConstant(v vm.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

// emitJump emits a two-operand jump instruction with a placeholder offset,
// returning the offset of the first placeholder byte for later patching.
func (c *Compiler) emitJump(op vm.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(at int) {
	jump := len(c.chunk().Code) - at - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[at] = byte(jump >> 8)
	c.chunk().Code[at+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(vm.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) emitReturn() {
	if c.fn.fnType == TypeInitializer {
		c.emitOp(vm.OpGetLocal)
		c.emitByte(0) // slot 0 is `this`
	} else {
		c.emitOp(vm.OpNil)
	}
	c.emitOp(vm.OpReturn)
}
