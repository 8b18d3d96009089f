// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import (
	"github.com/btcsuite/btcd/txscript"
)

// instruction is one decoded step of a script: either a data push (isData
// true, data holds the pushed bytes, possibly empty) or a plain opcode.
type instruction struct {
	opcode byte
	data   []byte
	isData bool
}

// isIf reports whether the instruction is OP_IF.
func (i instruction) isIf() bool {
	return !i.isData && i.opcode == txscript.OP_IF
}

// isEndif reports whether the instruction is OP_ENDIF.
func (i instruction) isEndif() bool {
	return !i.isData && i.opcode == txscript.OP_ENDIF
}

// isEmptyPush reports whether the instruction is a push of zero bytes, the
// form an on-chain OP_0/OP_FALSE disassembles to.
func (i instruction) isEmptyPush() bool {
	return i.isData && len(i.data) == 0
}

// isPushDataOpcode reports whether op is one of the explicit-length data
// push opcodes (OP_DATA_1..75, OP_PUSHDATA1/2/4). OP_0 is deliberately not
// included here: the tokenizer classifies it as a plain opcode with no
// associated Data(), so it is handled as its own case below.
func isPushDataOpcode(op byte) bool {
	return (op >= txscript.OP_DATA_1 && op <= txscript.OP_DATA_75) ||
		op == txscript.OP_PUSHDATA1 || op == txscript.OP_PUSHDATA2 || op == txscript.OP_PUSHDATA4
}

// decodeScript splits a script into its instruction sequence using
// txscript's own tokenizer, so push-length parsing and malformed-script
// detection match the rest of the btcd stack exactly.
//
// OP_0 and a one-byte push of 0x00 never collide: the tokenizer reports
// them as different opcodes (OP_0 vs OP_DATA_1) with Data() nil for the
// former and a one-byte slice for the latter, so classification below is
// by opcode, never by inspecting the pushed bytes.
func decodeScript(script []byte) ([]instruction, error) {
	var out []instruction

	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		op := tokenizer.Opcode()

		switch {
		case op == txscript.OP_0:
			out = append(out, instruction{opcode: op, data: []byte{}, isData: true})

		case isPushDataOpcode(op):
			out = append(out, instruction{opcode: op, data: tokenizer.Data(), isData: true})

		default:
			out = append(out, instruction{opcode: op})
		}
	}

	if err := tokenizer.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
