// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import (
	"errors"
	"fmt"
)

// Parser error kinds. These are terminal: a caller that gets any of them
// treats the transaction as carrying no inscription, with no partial
// recovery across kinds.
var (
	// ErrEmptyWitness is returned for a witness with no elements.
	ErrEmptyWitness = errors.New("envelope: empty witness")
	// ErrKeyPathSpend is returned for a taproot key-path spend, which
	// carries no script and therefore no envelope.
	ErrKeyPathSpend = errors.New("envelope: key-path spend")
	// ErrNoInscription is returned when the script element contains no
	// well-formed envelope.
	ErrNoInscription = errors.New("envelope: no inscription")
	// ErrInvalidInscription is returned for a malformed envelope: an
	// unexpected instruction in the field loop, or a duplicate non-body
	// tag.
	ErrInvalidInscription = errors.New("envelope: invalid inscription")
	// ErrUnrecognizedEvenField is returned when an envelope carries an
	// even-valued tag this parser does not recognize.
	ErrUnrecognizedEvenField = errors.New("envelope: unrecognized even field")
)

// ScriptError wraps a script decode failure surfaced by the underlying
// instruction tokenizer.
type ScriptError struct {
	Err error
}

// Error implements error.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("envelope: script: %s", e.Err)
}

// Unwrap returns the wrapped tokenizer error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ErrMutualExclusion is a builder error: compression and off-chain content
// cannot be requested on the same inscription.
var ErrMutualExclusion = errors.New("envelope: compression and offchain cannot both be enabled")

// ErrContentTooLarge is a builder error: the chain's content-size limit
// was exceeded.
var ErrContentTooLarge = errors.New("envelope: content exceeds chain size limit")
