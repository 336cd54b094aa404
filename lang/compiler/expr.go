// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import (
	"strconv"

	"github.com/probelang/loxvm/lang/token"
	"github.com/probelang/loxvm/lang/vm"
)

// precedence mirrors clox's single Pratt-parser precedence ladder, lowest
// to highest.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LPAREN:    {(*Compiler).grouping, (*Compiler).call, precCall},
		token.DOT:       {nil, (*Compiler).dot, precCall},
		token.MINUS:     {(*Compiler).unary, (*Compiler).binary, precTerm},
		token.PLUS:      {nil, (*Compiler).binary, precTerm},
		token.SLASH:     {nil, (*Compiler).binary, precFactor},
		token.STAR:      {nil, (*Compiler).binary, precFactor},
		token.BANG:      {(*Compiler).unary, nil, precNone},
		token.BANGEQ:    {nil, (*Compiler).binary, precEquality},
		token.EQ:        {nil, (*Compiler).binary, precEquality},
		token.GT:        {nil, (*Compiler).binary, precComparison},
		token.GTE:       {nil, (*Compiler).binary, precComparison},
		token.LT:        {nil, (*Compiler).binary, precComparison},
		token.LTE:       {nil, (*Compiler).binary, precComparison},
		token.IDENT:     {(*Compiler).variable, nil, precNone},
		token.STRING:    {(*Compiler).string_, nil, precNone},
		token.NUMBER:    {(*Compiler).number, nil, precNone},
		token.AND:       {nil, (*Compiler).and_, precAnd},
		token.OR:        {nil, (*Compiler).or_, precOr},
		token.FALSE:     {(*Compiler).literal, nil, precNone},
		token.TRUE:      {(*Compiler).literal, nil, precNone},
		token.NIL:       {(*Compiler).literal, nil, precNone},
		token.THIS:      {(*Compiler).this_, nil, precNone},
		token.SUPER:     {(*Compiler).super_, nil, precNone},
	}
}

func (c *Compiler) getRule(t token.Type) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{precedence: precNone}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := c.getRule(c.previous.Type)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= c.getRule(c.current.Type).precedence {
		c.advance()
		infix := c.getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(canAssign bool) {
	n, _ := strconv.ParseFloat(c.previous.Literal, 64)
	c.emitConstant(vm.NumberVal(n))
}

func (c *Compiler) string_(canAssign bool) {
	c.emitConstant(vm.ObjVal(c.vm.InternString(c.previous.Literal)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emitOp(vm.OpFalse)
	case token.TRUE:
		c.emitOp(vm.OpTrue)
	case token.NIL:
		c.emitOp(vm.OpNil)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case token.BANG:
		c.emitOp(vm.OpNot)
	case token.MINUS:
		c.emitOp(vm.OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := c.getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.BANGEQ:
		c.emitOps(vm.OpEqual, vm.OpNot)
	case token.EQ:
		c.emitOp(vm.OpEqual)
	case token.GT:
		c.emitOp(vm.OpGreater)
	case token.GTE:
		c.emitOps(vm.OpLess, vm.OpNot)
	case token.LT:
		c.emitOp(vm.OpLess)
	case token.LTE:
		c.emitOps(vm.OpGreater, vm.OpNot)
	case token.PLUS:
		c.emitOp(vm.OpAdd)
	case token.MINUS:
		c.emitOp(vm.OpSubtract)
	case token.STAR:
		c.emitOp(vm.OpMultiply)
	case token.SLASH:
		c.emitOp(vm.OpDivide)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(vm.OpJumpIfFalse)
	endJump := c.emitJump(vm.OpJump)

	c.patchJump(elseJump)
	c.emitOp(vm.OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitOp(vm.OpCall)
	c.emitByte(argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Literal)

	switch {
	case canAssign && c.match(token.ASSIGN):
		c.expression()
		c.emitOp(vm.OpSetProperty)
		c.emitByte(name)
	case c.match(token.LPAREN):
		argc := c.argumentList()
		c.emitOp(vm.OpInvoke)
		c.emitByte(name)
		c.emitByte(argc)
	default:
		c.emitOp(vm.OpGetProperty)
		c.emitByte(name)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// namedVariable resolves tok as a local, an upvalue, or (falling through)
// a global, emitting the matching GET/SET pair. canAssign gates whether a
// following `=` is consumed as an assignment — disabled inside contexts
// like `a.b = c` where the LHS production is not a bare variable reference.
func (c *Compiler) namedVariable(tok token.Token, canAssign bool) {
	var getOp, setOp vm.OpCode
	var arg int

	if local := resolveLocal(c.fn, tok.Literal); local != -1 {
		getOp, setOp = vm.OpGetLocal, vm.OpSetLocal
		arg = local
	} else if uv := resolveUpvalue(c, c.fn, tok.Literal); uv != -1 {
		getOp, setOp = vm.OpGetUpvalue, vm.OpSetUpvalue
		arg = uv
	} else {
		getOp, setOp = vm.OpGetGlobal, vm.OpSetGlobal
		arg = int(c.identifierConstant(tok.Literal))
	}

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitOp(setOp)
		c.emitByte(byte(arg))
	} else {
		c.emitOp(getOp)
		c.emitByte(byte(arg))
	}
}

func (c *Compiler) this_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.previous.Literal)

	c.namedVariable(token.Token{Type: token.IDENT, Literal: "this"}, false)
	if c.match(token.LPAREN) {
		argc := c.argumentList()
		c.namedVariable(token.Token{Type: token.IDENT, Literal: "super"}, false)
		c.emitOp(vm.OpSuperInvoke)
		c.emitByte(name)
		c.emitByte(argc)
	} else {
		c.namedVariable(token.Token{Type: token.IDENT, Literal: "super"}, false)
		c.emitOp(vm.OpGetSuper)
		c.emitByte(name)
	}
}
