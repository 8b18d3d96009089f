// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"github.com/sirupsen/logrus"
)

// maxDecompressedSize bounds how much decoded body a single compressed
// expansion may inflate to; it is a security-critical limit, not a
// performance tuning knob.
const maxDecompressedSize = 10_000_000

// brCompression is the Expansion.Compression value that marks content as
// brotli-compressed then base64-encoded.
const brCompression = "br base64"

// Expansion is the second-level JSON payload nested in an envelope's body
// for every protocol other than the legacy ord-v0 one.
type Expansion struct {
	Protocol           string  `json:"protocol"`
	ProtocolVersion    string  `json:"protocol_version"`
	ProtocolProperties string  `json:"protocol_properties"`
	Compression        *string `json:"compression,omitempty"`
	Offchain           *string `json:"offchain,omitempty"`
	Content            *string `json:"content,omitempty"`
	ContentHash        *string `json:"content_hash,omitempty"`
	ContentType        *string `json:"content_type,omitempty"`
	ContentMetadata    *string `json:"content_metadata,omitempty"`
	Wrapped            bool    `json:"wrapped"`
}

// expansionResult is what an unwrapped Expansion contributes to the
// parsed Inscription.
type expansionResult struct {
	body               []byte
	tracking           bool
	contentMetadata    []byte
	protocolProperties *string
	contentDamaged     bool
}

// tryUnwrapExpansion attempts to interpret body as a wrapped Expansion.
// ok is false when body is not valid Expansion JSON or the expansion is
// not marked wrapped; callers then return the envelope's raw field values
// as the inscription.
func tryUnwrapExpansion(body []byte) (expansionResult, bool) {
	var expansion Expansion
	if err := json.Unmarshal(body, &expansion); err != nil {
		return expansionResult{}, false
	}

	if !expansion.Wrapped {
		return expansionResult{}, false
	}

	var contentMetadata []byte
	if expansion.ContentMetadata != nil {
		decoded, err := base64.StdEncoding.DecodeString(*expansion.ContentMetadata)
		if err != nil {
			logrus.Warnf("envelope: expansion content_metadata is not valid base64: %s", err)
		} else {
			contentMetadata = decoded
		}
	}

	var protocolProperties *string
	tracking := false
	if expansion.ProtocolProperties != "{}" {
		protocolProperties = &expansion.ProtocolProperties

		var props map[string]interface{}
		if err := json.Unmarshal([]byte(expansion.ProtocolProperties), &props); err == nil {
			if t, ok := props["tracking"].(bool); ok {
				tracking = t
			}
		}
	}

	var resultBody []byte
	var damaged bool
	switch {
	case expansion.Compression != nil:
		resultBody, damaged = decompressExpansionContent(expansion.Content)
	case expansion.Offchain != nil && expansion.Content == nil:
		resultBody = nil
	default:
		resultBody = decodeExpansionContent(expansion.Content)
	}

	return expansionResult{
		body:               resultBody,
		tracking:           tracking,
		contentMetadata:    contentMetadata,
		protocolProperties: protocolProperties,
		contentDamaged:     damaged,
	}, true
}

// decompressExpansionContent base64-decodes content and brotli-decompresses
// it behind a 10 MB limit reader. Decompression failure is not an error: it
// is logged, and the body becomes whatever bytes were decoded before the
// failure (often empty), with damaged reported true so the caller can mark
// the record rather than silently hand back a truncated body. This mirrors
// the wrapper's tolerance of corrupt or hostile payloads: a caller never
// throws on bad brotli.
func decompressExpansionContent(content *string) ([]byte, bool) {
	if content == nil {
		return nil, false
	}

	raw, err := base64.StdEncoding.DecodeString(*content)
	if err != nil {
		logrus.Warnf("envelope: expansion content is not valid base64: %s", err)
		return nil, true
	}

	limited := io.LimitReader(brotli.NewReader(bytes.NewReader(raw)), maxDecompressedSize)
	decompressed, err := io.ReadAll(limited)
	if err != nil {
		logrus.Warnf("envelope: decompression failed, content marked damaged: %s", err)
		return decompressed, true
	}

	return decompressed, false
}

// decodeExpansionContent base64-decodes an uncompressed expansion content
// field. A malformed field decodes to nil rather than erroring, consistent
// with the parser's general tolerance of a damaged body.
func decodeExpansionContent(content *string) []byte {
	if content == nil {
		return nil
	}

	raw, err := base64.StdEncoding.DecodeString(*content)
	if err != nil {
		logrus.Warnf("envelope: expansion content is not valid base64: %s", err)
		return nil
	}

	return raw
}

// buildExpansionBody serializes an Expansion for use as an envelope body,
// returning ErrInvalidInscription if the result is not valid UTF-8 (it
// always is, as json.Marshal never emits invalid UTF-8, but the check
// mirrors the parser's own UTF-8 test on the body).
func buildExpansionBody(expansion Expansion) ([]byte, error) {
	body, err := json.Marshal(expansion)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(body) {
		return nil, ErrInvalidInscription
	}

	return body, nil
}

func strPtr(s string) *string { return &s }
