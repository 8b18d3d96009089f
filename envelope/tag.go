// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import "github.com/btcsuite/btcd/txscript"

// Tag identifies a field inside an envelope. Odd tags unrecognized by this
// parser are dropped silently; even tags unrecognized by this parser make
// the envelope invalid, reserving them for future forward-compatible fields.
type Tag byte

const (
	// BodyTag terminates the field section; every push up to OP_ENDIF
	// after it concatenates into the body.
	BodyTag Tag = 0x00
	// ContentTypeTag carries the inscription's media type.
	ContentTypeTag Tag = 0x01
)

// value returns the raw bytes a Tag decodes to as a data push: BodyTag is
// the canonical empty push (what an on-chain OP_0 disassembles to), every
// other tag is its one-byte value. Used to key the field map while
// scanning a script.
func (t Tag) value() []byte {
	if t == BodyTag {
		return nil
	}

	return []byte{byte(t)}
}

// opcodes returns the literal opcode bytes a Tag is emitted as, for
// AddOps: BodyTag is the raw OP_0 opcode, every other tag is an explicit
// OP_DATA_1 plus its value byte. Emitted via AddOps rather than AddData so
// the script builder's minimal-push rewriting never collapses a one-byte
// tag into the wrong opcode.
func (t Tag) opcodes() []byte {
	if t == BodyTag {
		return []byte{txscript.OP_0}
	}

	return []byte{txscript.OP_DATA_1, byte(t)}
}

// isEven reports whether tag's numeric value is even. BodyTag (0) is even
// but is consumed by the parser before this check is ever applied to it.
func (t Tag) isEven() bool {
	return byte(t)%2 == 0
}
