// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer

import (
	"testing"

	"github.com/probelang/loxvm/lang/token"
)

func typesOf(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, toks []token.Token, want []token.Type) {
	t.Helper()
	got := typesOf(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestNextTokenPunctuation(t *testing.T) {
	l := New("", "(){},.-+;*/")
	toks := l.Tokenize()
	assertTypes(t, toks, []token.Type{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.COMMA,
		token.DOT, token.MINUS, token.PLUS, token.SEMICOLON, token.STAR,
		token.SLASH, token.EOF,
	})
}

func TestNextTokenTwoCharOperators(t *testing.T) {
	l := New("", "! != = == < <= > >=")
	toks := l.Tokenize()
	assertTypes(t, toks, []token.Type{
		token.BANG, token.BANGEQ, token.ASSIGN, token.EQ,
		token.LT, token.LTE, token.GT, token.GTE, token.EOF,
	})
}

func TestNextTokenNumber(t *testing.T) {
	l := New("", "123 3.14 0")
	toks := l.Tokenize()
	assertTypes(t, toks, []token.Type{token.NUMBER, token.NUMBER, token.NUMBER, token.EOF})
	if toks[0].Literal != "123" {
		t.Errorf("literal = %q, want %q", toks[0].Literal, "123")
	}
	if toks[1].Literal != "3.14" {
		t.Errorf("literal = %q, want %q", toks[1].Literal, "3.14")
	}
}

func TestNextTokenString(t *testing.T) {
	l := New("", `"hello, world"`)
	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("type = %v, want STRING", tok.Type)
	}
	if tok.Literal != "hello, world" {
		t.Errorf("literal = %q, want %q", tok.Literal, "hello, world")
	}
}

func TestNextTokenUnterminatedString(t *testing.T) {
	l := New("", `"hello`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("type = %v, want ILLEGAL", tok.Type)
	}
}

func TestNextTokenIdentifiersAndKeywords(t *testing.T) {
	l := New("", "var x = true and false")
	toks := l.Tokenize()
	assertTypes(t, toks, []token.Type{
		token.VAR, token.IDENT, token.ASSIGN, token.TRUE, token.AND, token.FALSE, token.EOF,
	})
	if toks[1].Literal != "x" {
		t.Errorf("literal = %q, want %q", toks[1].Literal, "x")
	}
}

func TestNextTokenLineComment(t *testing.T) {
	l := New("", "1 // this is a comment\n2")
	toks := l.Tokenize()
	assertTypes(t, toks, []token.Type{token.NUMBER, token.NUMBER, token.EOF})
	if toks[1].Pos.Line != 2 {
		t.Errorf("second number's line = %d, want 2", toks[1].Pos.Line)
	}
}

func TestNextTokenEOFIsStable(t *testing.T) {
	l := New("", "")
	first := l.NextToken()
	second := l.NextToken()
	if first.Type != token.EOF || second.Type != token.EOF {
		t.Fatalf("expected repeated EOF, got %v then %v", first.Type, second.Type)
	}
}

func TestNextTokenUnexpectedCharacter(t *testing.T) {
	l := New("", "@")
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("type = %v, want ILLEGAL", tok.Type)
	}
}
