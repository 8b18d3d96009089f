// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package reveal assembles the one-leaf taproot output an inscription's
// reveal transaction spends from: a script tree whose single leaf is a
// public-key check followed by the envelope, and the PSBT annotation a
// signer needs to spend that leaf.
package reveal

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/ordpub/envelope/envelope"
)

// ErrNoInternalKey is returned when annotating a PSBT input that carries
// no taproot internal key.
var ErrNoInternalKey = errors.New("reveal: no taproot internal key on input")

// ErrNoWitnessScript is returned when AnnotateInput is given an empty leaf
// script to build the leaf from.
var ErrNoWitnessScript = errors.New("reveal: no witness script on input")

// LeafScript builds the reveal leaf: a signature check against pubKey
// followed by the inscription's envelope.
func LeafScript(pubKey *btcec.PublicKey, inscription *envelope.Inscription) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddData(schnorr.SerializePubKey(pubKey))
	builder.AddOp(txscript.OP_CHECKSIG)
	inscription.AppendRevealScript(builder)

	return builder.Script()
}

// Tree builds the one-leaf taproot script tree for a reveal leaf.
func Tree(leafScript []byte) *txscript.IndexedTapScriptTree {
	return txscript.AssembleTaprootScriptTree(txscript.NewBaseTapLeaf(leafScript))
}

// Output computes the taproot address a reveal transaction pays into:
// internalKey tweaked by the leaf's script-tree root.
func Output(chainParams *chaincfg.Params, internalKey *btcec.PublicKey, tree *txscript.IndexedTapScriptTree) (*btcutil.AddressTaproot, error) {
	rootHash := tree.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(internalKey, rootHash[:])

	return btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), chainParams)
}

// AnnotateInput fills in the taproot leaf-script, control block and merkle
// root a signer needs on a PSBT input to spend the reveal leaf, given the
// tree the leaf belongs to and the same leafScript that built it (as
// returned by LeafScript). input.TaprootInternalKey must already be set;
// input.WitnessScript is set here rather than read, since a reveal
// transaction always has exactly the one leaf LeafScript/Tree just built,
// never an arbitrary pre-staged script.
func AnnotateInput(input *psbt.PInput, leafScript []byte, tree *txscript.IndexedTapScriptTree) error {
	if len(input.TaprootInternalKey) == 0 {
		return ErrNoInternalKey
	}
	if len(leafScript) == 0 {
		return ErrNoWitnessScript
	}

	leaf := txscript.NewBaseTapLeaf(leafScript)
	input.WitnessScript = leafScript

	internalKey, err := schnorr.ParsePubKey(input.TaprootInternalKey)
	if err != nil {
		return err
	}

	ctrlBlock := tree.LeafMerkleProofs[0].ToControlBlock(internalKey)

	leafEntry := &psbt.TaprootTapLeafScript{
		Script:      leaf.Script,
		LeafVersion: leaf.LeafVersion,
	}
	leafEntry.ControlBlock, err = ctrlBlock.ToBytes()
	if err != nil {
		return err
	}

	if len(input.TaprootLeafScript) == 0 {
		input.TaprootLeafScript = []*psbt.TaprootTapLeafScript{leafEntry}
	}

	if len(input.TaprootMerkleRoot) == 0 {
		input.TaprootMerkleRoot = ctrlBlock.RootHash(leaf.Script)
	}

	return nil
}
