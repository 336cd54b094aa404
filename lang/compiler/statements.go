// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import (
	"github.com/probelang/loxvm/lang/token"
	"github.com/probelang/loxvm/lang/vm"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.LBRACE):
		c.fn.beginScope()
		c.block()
		c.endScopeEmitPops()
	default:
		c.expressionStatement()
	}
}

// endScopeEmitPops closes the current lexical scope: every local declared
// in it is discarded from the top of the stack down, emitting OP_CLOSE_UPVALUE
// for locals that were captured by a nested closure (so the captured value
// migrates off the stack before it disappears) and OP_POP otherwise.
func (c *Compiler) endScopeEmitPops() {
	c.fn.scopeDepth--
	c.fn.localNames.pop()

	for len(c.fn.locals) > 0 && c.fn.locals[len(c.fn.locals)-1].depth > c.fn.scopeDepth {
		last := c.fn.locals[len(c.fn.locals)-1]
		if last.isCaptured {
			c.emitOp(vm.OpCloseUpvalue)
		} else {
			c.emitOp(vm.OpPop)
		}
		c.fn.locals = c.fn.locals[:len(c.fn.locals)-1]
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(vm.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(vm.OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.statement()

	elseJump := c.emitJump(vm.OpJump)
	c.patchJump(thenJump)
	c.emitOp(vm.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(vm.OpPop)
}

func (c *Compiler) forStatement() {
	c.fn.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(vm.OpJumpIfFalse)
		c.emitOp(vm.OpPop)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(vm.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(vm.OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(vm.OpPop)
	}

	c.endScopeEmitPops()
}

func (c *Compiler) returnStatement() {
	if c.fn.fnType == TypeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.fn.fnType == TypeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(vm.OpReturn)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emitOp(vm.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

// parseVariable consumes an identifier and, for a global, interns its name
// as a constant; for a local it just declares it and returns a dummy index
// (defineVariable checks scope depth to decide which path applies).
func (c *Compiler) parseVariable(message string) byte {
	c.consume(token.IDENT, message)

	c.declareVariable()
	if c.fn.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous.Literal)
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(vm.ObjVal(c.vm.InternString(name)))
}

func (c *Compiler) defineVariable(global byte) {
	if c.fn.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOp(vm.OpDefineGlobal)
	c.emitByte(global)
}

func (c *Compiler) funDeclaration() {
	c.consume(token.IDENT, "Expect function name.")
	name := c.previous.Literal
	c.declareVariable()
	if c.fn.scopeDepth > 0 {
		c.markInitialized()
	}

	c.function(TypeFunction, name)

	global := byte(0)
	if c.fn.scopeDepth == 0 {
		global = c.identifierConstant(name)
	}
	c.defineVariable(global)
}

// function compiles a nested function body (a `fun` declaration, or a
// class method) and emits an OP_CLOSURE that captures the upvalues its
// compilation discovered.
func (c *Compiler) function(fnType FunctionType, name string) {
	c.pushFunction(fnType, name)
	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			c.fn.function.Fn.Arity++
			if c.fn.function.Fn.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	upvalues := c.fn.upvalues
	fn := c.endFunction()

	c.emitOp(vm.OpClosure)
	c.emitByte(c.makeConstant(vm.ObjVal(fn)))
	for _, uv := range upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok.Literal)
	c.declareVariable()

	c.emitOp(vm.OpClass)
	c.emitByte(nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(token.LT) {
		c.consume(token.IDENT, "Expect superclass name.")
		c.namedVariable(c.previous, false)

		if c.previous.Literal == nameTok.Literal {
			c.error("A class can't inherit from itself.")
		}

		c.fn.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(nameTok, false)
		c.emitOp(vm.OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariable(nameTok, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(vm.OpPop) // the class itself, left by namedVariable above

	if cs.hasSuperclass {
		c.endScopeEmitPops()
	}

	c.class = cs.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	name := c.previous.Literal
	constant := c.identifierConstant(name)

	fnType := TypeMethod
	if name == "init" {
		fnType = TypeInitializer
	}
	c.function(fnType, name)

	c.emitOp(vm.OpMethod)
	c.emitByte(constant)
}
