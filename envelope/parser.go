// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import (
	"bytes"

	"github.com/ordpub/envelope/internal/sequencereader"
)

// parser walks a decoded instruction sequence with the two primitives the
// envelope grammar needs: advance (consume-or-error) and accept
// (consume-if-match, else leave the stream untouched).
type parser struct {
	seq *sequencereader.SequenceReader[instruction]
}

func newParser(instrs []instruction) *parser {
	return &parser{seq: sequencereader.New(instrs)}
}

// advance consumes and returns the next instruction, or ErrNoInscription
// once the stream is exhausted.
func (p *parser) advance() (instruction, error) {
	if !p.seq.HasNext() {
		return instruction{}, ErrNoInscription
	}

	return p.seq.Next()
}

// acceptPush consumes the next instruction and returns true iff it is a
// data push equal to want; otherwise it leaves the stream untouched.
func (p *parser) acceptPush(want []byte) bool {
	return p.seq.Accept(instruction{data: want, isData: true}, func(a, b instruction) bool {
		return a.isData == b.isData && bytes.Equal(a.data, b.data)
	})
}

// acceptEndif consumes the next instruction and returns true iff it is
// OP_ENDIF; otherwise it leaves the stream untouched.
func (p *parser) acceptEndif() bool {
	next, ok := p.seq.Peek()
	if !ok || !next.isEndif() {
		return false
	}

	_, _ = p.seq.Next()

	return true
}

// expectPush consumes the next instruction, requiring it to be a data push.
func (p *parser) expectPush() ([]byte, error) {
	instr, err := p.advance()
	if err != nil {
		return nil, err
	}

	if !instr.isData {
		return nil, ErrInvalidInscription
	}

	return instr.data, nil
}
