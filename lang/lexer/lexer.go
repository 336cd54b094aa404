// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package lexer implements a single-pass, no-backtracking scanner for the
// Lox scripting language.
package lexer

import (
	"github.com/probelang/loxvm/lang/token"
)

// Lexer holds the state for a single-pass tokenization run.
type Lexer struct {
	filename string
	input    []byte

	// pos is the index into input of the next byte to be loaded into ch.
	// After advance(), ch == input[pos-1] and pos points one past it.
	pos  int
	line int // 1-based current line number
	col  int // 1-based current column number

	ch byte // current character; 0 when past end
}

// New creates a new Lexer for the given filename and input string.
func New(filename, input string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    []byte(input),
		line:     1,
		col:      0,
	}
	l.advance() // prime l.ch with the first byte
	return l
}

// advance moves to the next byte in the input, updating line/column tracking.
// When the end of input is reached, ch is set to 0.
func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
	l.pos++
}

// peek returns the byte after the current character without consuming it.
// Returns 0 if at or past end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// currentPos returns a token.Position capturing the lexer's state right now.
// Call this before consuming the first character of a token.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		File:   l.filename,
		Line:   l.line,
		Column: l.col,
		Offset: l.pos - 1,
	}
}

// Line reports the line the lexer is currently positioned at. The compiler
// does not call it: it stamps emitted bytecode with the line of the
// previously consumed token (token.Position.Line).
func (l *Lexer) Line() int { return l.line }

func makeToken(typ token.Type, literal string, pos token.Position) token.Token {
	return token.Token{Type: typ, Literal: literal, Pos: pos}
}

// skipWhitespaceAndComments consumes spacing and // line comments, which Lox
// has no other use for.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peek() == '/' {
				for l.ch != '\n' && l.ch != 0 {
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

// NextToken scans and returns the next token from the input.
// After EOF is reached, subsequent calls continue returning EOF tokens.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	ch := l.ch

	if ch == 0 {
		return makeToken(token.EOF, "", pos)
	}

	l.advance() // consume ch; from here on, l.ch is the character AFTER ch

	switch {
	case isIdentStart(ch):
		lit := l.readIdentFromFirst(ch)
		typ := token.LookupIdent(lit)
		return makeToken(typ, lit, pos)

	case isDigit(ch):
		lit := l.readNumberFromFirst(ch)
		return makeToken(token.NUMBER, lit, pos)

	case ch == '"':
		lit, ok := l.readStringBody()
		if !ok {
			return makeToken(token.ILLEGAL, "Unterminated string.", pos)
		}
		return makeToken(token.STRING, lit, pos)

	case ch == '(':
		return makeToken(token.LPAREN, "(", pos)
	case ch == ')':
		return makeToken(token.RPAREN, ")", pos)
	case ch == '{':
		return makeToken(token.LBRACE, "{", pos)
	case ch == '}':
		return makeToken(token.RBRACE, "}", pos)
	case ch == ',':
		return makeToken(token.COMMA, ",", pos)
	case ch == '.':
		return makeToken(token.DOT, ".", pos)
	case ch == '-':
		return makeToken(token.MINUS, "-", pos)
	case ch == '+':
		return makeToken(token.PLUS, "+", pos)
	case ch == ';':
		return makeToken(token.SEMICOLON, ";", pos)
	case ch == '*':
		return makeToken(token.STAR, "*", pos)
	case ch == '/':
		return makeToken(token.SLASH, "/", pos)

	case ch == '!':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.BANGEQ, "!=", pos)
		}
		return makeToken(token.BANG, "!", pos)

	case ch == '=':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.EQ, "==", pos)
		}
		return makeToken(token.ASSIGN, "=", pos)

	case ch == '<':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.LTE, "<=", pos)
		}
		return makeToken(token.LT, "<", pos)

	case ch == '>':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.GTE, ">=", pos)
		}
		return makeToken(token.GT, ">", pos)
	}

	return makeToken(token.ILLEGAL, "Unexpected character.", pos)
}

// Tokenize returns all tokens (including the final EOF) produced by repeated
// calls to NextToken.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

// ---------------------------------------------------------------------------
// Internal readers — each assumes the first character has already been
// consumed by the advance() call inside NextToken.
// ---------------------------------------------------------------------------

func (l *Lexer) readIdentFromFirst(first byte) string {
	buf := make([]byte, 1, 16)
	buf[0] = first
	for isIdentContinue(l.ch) {
		buf = append(buf, l.ch)
		l.advance()
	}
	return string(buf)
}

// readNumberFromFirst parses an integer or float literal given the
// already-consumed first digit `first`. Lox numbers are always float64 at
// runtime; the lexer preserves the literal text for the compiler to parse.
func (l *Lexer) readNumberFromFirst(first byte) string {
	buf := make([]byte, 1, 24)
	buf[0] = first

	for isDigit(l.ch) {
		buf = append(buf, l.ch)
		l.advance()
	}

	if l.ch == '.' && isDigit(l.peek()) {
		buf = append(buf, '.')
		l.advance()
		for isDigit(l.ch) {
			buf = append(buf, l.ch)
			l.advance()
		}
	}

	return string(buf)
}

// readStringBody reads the content of a string literal after the opening '"'
// has been consumed, returning the bytes between the quotes (no decoding:
// Lox strings have no escape sequences).
func (l *Lexer) readStringBody() (string, bool) {
	var buf []byte
	for {
		switch l.ch {
		case 0:
			return "", false
		case '"':
			l.advance() // consume closing '"'
			return string(buf), true
		default:
			buf = append(buf, l.ch)
			l.advance()
		}
	}
}

// ---------------------------------------------------------------------------
// Character classification helpers
// ---------------------------------------------------------------------------

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
