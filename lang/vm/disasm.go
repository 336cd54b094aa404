// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// Disassemble renders a Chunk's code stream as a human-readable table:
// offset, source line, mnemonic, and operands. It is a debug/front-end
// tool only — spec.md §1 scopes it out of the core's semantics, but the
// core exposes it because every instruction's operand width is fully
// determined by its opcode.
func Disassemble(name string, chunk *Chunk) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "== %s ==\n", name)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"OFFSET", "LINE", "OP", "OPERANDS"})
	table.SetAutoWrapText(false)

	offset := 0
	lastLine := -1
	for offset < len(chunk.Code) {
		op := OpCode(chunk.Code[offset])
		line := chunk.Lines[offset]
		lineCol := fmt.Sprintf("%d", line)
		if line == lastLine {
			lineCol = "|"
		}
		lastLine = line

		var operands string
		var next int
		switch op {
		case OpConstant, OpGetLocal, OpSetLocal, OpGetGlobal, OpDefineGlobal,
			OpSetGlobal, OpGetUpvalue, OpSetUpvalue, OpGetProperty, OpSetProperty,
			OpGetSuper, OpCall, OpClass, OpMethod:
			idx := chunk.Code[offset+1]
			operands = fmt.Sprintf("%d", idx)
			if op == OpConstant || op == OpGetGlobal || op == OpDefineGlobal ||
				op == OpSetGlobal || op == OpGetProperty || op == OpSetProperty ||
				op == OpGetSuper || op == OpClass || op == OpMethod {
				operands = fmt.Sprintf("%d '%s'", idx, chunk.Constants.Get(int(idx)).String())
			}
			next = offset + 2

		case OpInvoke, OpSuperInvoke:
			idx := chunk.Code[offset+1]
			argc := chunk.Code[offset+2]
			operands = fmt.Sprintf("%d '%s' (%d args)", idx, chunk.Constants.Get(int(idx)).String(), argc)
			next = offset + 3

		case OpJump, OpJumpIfFalse, OpLoop:
			hi := chunk.Code[offset+1]
			lo := chunk.Code[offset+2]
			jumpOffset := int(hi)<<8 | int(lo)
			sign := 1
			if op == OpLoop {
				sign = -1
			}
			operands = fmt.Sprintf("%d -> %d", offset, offset+3+sign*jumpOffset)
			next = offset + 3

		case OpClosure:
			idx := chunk.Code[offset+1]
			fnVal := chunk.Constants.Get(int(idx))
			operands = fmt.Sprintf("%d %s", idx, fnVal.String())
			next = offset + 2
			if fnVal.IsFunction() {
				for i := 0; i < fnVal.Obj.Fn.UpvalueCount; i++ {
					next += 2
				}
			}

		default:
			next = offset + 1
		}

		table.Append([]string{fmt.Sprintf("%04d", offset), lineCol, op.String(), operands})
		offset = next
	}

	table.Render()
	return buf.String()
}
