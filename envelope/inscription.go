// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package envelope implements the taproot inscription envelope: the
// OP_FALSE OP_IF "ord"|"pub" ... OP_ENDIF script fragment that carries a
// tagged field section and a body, plus the JSON expansion wrapper nested
// inside that body for protocols other than the legacy ord-v0 one.
package envelope

import (
	"bytes"
	"unicode/utf8"

	"github.com/btcsuite/btcd/txscript"
)

// maxScriptElementSize is the largest single data push the body is chunked
// into on emission; the parser concatenates pushes of any size on the way
// back in.
const maxScriptElementSize = 520

// Inscription is the normalized record produced by parsing a witness, or
// consumed to build a reveal script.
type Inscription struct {
	// ContentType is the media type of Body, when present.
	ContentType []byte
	// Body is the payload, after any expansion decoding/decompression.
	Body []byte
	// Tracking controls the envelope magic ("ord" when true, "pub"
	// otherwise) and is informational for downstream indexers.
	Tracking bool
	// ContentMetadata is UTF-8 JSON carried alongside the body, not
	// re-validated by the parser.
	ContentMetadata []byte
	// ProtocolProperties is the merged per-inscription and per-protocol
	// properties object, stringified, when the expansion carried one.
	ProtocolProperties *string
	// ContentDamaged is true when Body came from a compressed expansion
	// whose brotli stream failed to decompress cleanly; Body then holds
	// whatever bytes were produced before the failure, which may be empty.
	ContentDamaged bool
}

// New builds an Inscription directly from a content type and body, with
// Tracking defaulted to true. Intended for tests exercising the script
// codec independent of the builder.
func New(contentType, body []byte) *Inscription {
	return &Inscription{ContentType: contentType, Body: body, Tracking: true}
}

// ContentTypeString returns ContentType decoded as UTF-8, or "" if absent
// or not valid UTF-8.
func (i *Inscription) ContentTypeString() string {
	if i.ContentType == nil || !utf8.Valid(i.ContentType) {
		return ""
	}

	return string(i.ContentType)
}

// ContentLength returns len(Body), or -1 if Body is absent.
func (i *Inscription) ContentLength() int {
	if i.Body == nil {
		return -1
	}

	return len(i.Body)
}

// AppendRevealScript appends this inscription's envelope to builder and
// returns the finished script.
func (i *Inscription) AppendRevealScript(builder *txscript.ScriptBuilder) *txscript.ScriptBuilder {
	magic := []byte("pub")
	if i.Tracking {
		magic = []byte("ord")
	}

	// Both AddData and AddFullData apply the minimal-push rewrite, turning a
	// single byte 0x00, 0x01..0x10 or 0x81 into OP_0, OP_1..OP_16 or
	// OP_1NEGATE; decodeScript reads OP_0 as an empty push and the others
	// as plain opcodes, so a one-byte value would not survive a round trip.
	// One-byte values are therefore emitted as an explicit OP_DATA_1 push;
	// AddFullData (no 520-byte element check) handles every other length.
	push := func(data []byte) {
		if len(data) == 1 {
			builder.AddOps([]byte{txscript.OP_DATA_1, data[0]})
			return
		}
		builder.AddFullData(data)
	}

	builder.AddOp(txscript.OP_FALSE)
	builder.AddOp(txscript.OP_IF)
	push(magic)

	if i.ContentType != nil {
		builder.AddOps(ContentTypeTag.opcodes())
		push(i.ContentType)
	}

	if i.Body != nil {
		builder.AddOps(BodyTag.opcodes())
		for start := 0; start < len(i.Body); start += maxScriptElementSize {
			end := start + maxScriptElementSize
			if end > len(i.Body) {
				end = len(i.Body)
			}
			push(i.Body[start:end])
		}
	}

	builder.AddOp(txscript.OP_ENDIF)

	return builder
}

// ToWitness builds the two-element witness [script, control_block_stub]
// this inscription would be spent with, for round-trip tests. The second
// element is an empty placeholder; callers building real transactions
// supply their own control block.
func (i *Inscription) ToWitness() ([][]byte, error) {
	builder := txscript.NewScriptBuilder()
	i.AppendRevealScript(builder)

	script, err := builder.Script()
	if err != nil {
		return nil, err
	}

	return [][]byte{script, {}}, nil
}

// Parse extracts the first well-formed inscription from a witness: at most
// one, chosen per Witness selection rules, scanning its script element for
// the first complete envelope.
func Parse(witness [][]byte) (*Inscription, error) {
	script, err := scriptElement(witness)
	if err != nil {
		return nil, err
	}

	instrs, err := decodeScript(script)
	if err != nil {
		return nil, &ScriptError{Err: err}
	}

	return parseScript(instrs)
}

// parseScript scans an instruction sequence for envelopes and returns the
// first one found. A malformed envelope ends the scan with its error; later
// envelopes are not tried. Anything before the first envelope, and anything
// after one that parses, is ignored.
func parseScript(instrs []instruction) (*Inscription, error) {
	p := newParser(instrs)

	for {
		next, err := p.advance()
		if err != nil {
			return nil, err
		}

		if !next.isEmptyPush() {
			continue
		}

		insc, err := p.parseInscription()
		if err != nil {
			return nil, err
		}

		if insc != nil {
			return insc, nil
		}
	}
}

// parseInscription attempts to parse one envelope starting at the current
// position, assuming the leading empty push has already been consumed by
// the caller. It returns (nil, nil) when the current position is not the
// start of an envelope, signalling the caller to keep scanning.
func (p *parser) parseInscription() (*Inscription, error) {
	next, err := p.advance()
	if err != nil {
		return nil, err
	}

	if !next.isIf() {
		return nil, nil
	}

	if !p.acceptPush([]byte("ord")) {
		return nil, nil
	}

	fields := map[string][]byte{}

	for {
		instr, err := p.advance()
		if err != nil {
			return nil, err
		}

		if instr.isEmptyPush() {
			body := []byte{}
			for !p.acceptEndif() {
				push, err := p.expectPush()
				if err != nil {
					return nil, err
				}
				body = append(body, push...)
			}
			fields[string(BodyTag.value())] = body
			break
		}

		if instr.isEndif() {
			break
		}

		if !instr.isData {
			return nil, ErrInvalidInscription
		}

		key := string(instr.data)
		if _, exists := fields[key]; exists {
			return nil, ErrInvalidInscription
		}

		push, err := p.expectPush()
		if err != nil {
			return nil, err
		}
		fields[key] = push
	}

	contentType, hasContentType := fields[string(ContentTypeTag.value())]
	delete(fields, string(ContentTypeTag.value()))

	body, hasBody := fields[string(BodyTag.value())]
	delete(fields, string(BodyTag.value()))

	for tag := range fields {
		if len(tag) > 0 && Tag(tag[0]).isEven() {
			return nil, ErrUnrecognizedEvenField
		}
	}

	var ct, bd []byte
	if hasContentType {
		ct = contentType
	}
	if hasBody {
		bd = body
	}

	if hasContentType && hasBody && bytes.Equal(ct, []byte("application/json")) && utf8.Valid(bd) {
		if unwrapped, ok := tryUnwrapExpansion(bd); ok {
			return &Inscription{
				ContentType:        ct,
				Body:               unwrapped.body,
				Tracking:           unwrapped.tracking,
				ContentMetadata:    unwrapped.contentMetadata,
				ProtocolProperties: unwrapped.protocolProperties,
				ContentDamaged:     unwrapped.contentDamaged,
			}, nil
		}
	}

	return &Inscription{ContentType: ct, Body: bd, Tracking: true}, nil
}
