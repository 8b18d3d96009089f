// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"

	"github.com/ordpub/envelope/chain"
	"github.com/ordpub/envelope/mediatype"
	"github.com/ordpub/envelope/offchain"
	"github.com/ordpub/envelope/protocolspec"
)

// Legacy ord-v1 comment/description text, carried verbatim so a client
// that does not yet understand ord-v1 can explain itself to a user.
const (
	ordv1GeneralMessage = "This inscription is using the ordv1 protocol. If " +
		"you see this message, you're likely using an outdated ordv0-only client or explorer. Consider " +
		"upgrading to the software referenced in this message, asking your current software provider to add " +
		"support for ordv1, or switching to other software compatible with ordv1."
	ordv1CompressedMessage = "This inscription is compressed using the ordv1 protocol. " +
		"If you see this message, you're likely using an outdated ordv0-only client or explorer. Consider " +
		"upgrading to the software referenced in this message, asking your current software provider to add " +
		"support for ordv1, or switching to other software compatible with ordv1."
	ordv1OffchainMessage = "This inscription's content is off-chain as a torrent using " +
		"the ordv1 protocol. If you see this message, you're likely using an outdated ordv0-only client or " +
		"explorer. Consider upgrading to the software referenced in this message, asking your current " +
		"software provider to add support for ordv1, or switching to other software compatible with ordv1."
	ordv1SoftwareMessage = "https://github.com/ordpub/envelope"
)

// BuildOptions are the inputs to Builder.Build: a file plus the chain it
// targets and everything the protocol-spec merge and expansion wrapper
// need.
type BuildOptions struct {
	Chain       chain.Chain
	Path        string
	Title       string
	Subtitle    string
	License     string
	Description string

	Compression bool
	Offchain    bool
	TorrentPath string
	TrackerURL  string
	PeerAddr    string

	MetadataPath   string
	PropertiesPath string
	ProtocolID     string
}

// Builder constructs Inscription records from files. Its three
// collaborators are injected so tests can substitute a stub off-chain
// binder, a fixed media-type table, or a fixed protocol-spec set without
// touching the filesystem or a real torrent stack.
type Builder struct {
	MediaType mediatype.Lookup
	Specs     protocolspec.Resolver
	Offchain  offchain.Binder
}

// NewBuilder returns a Builder wired to the real media-type table,
// bundled protocol specs, and torrent-backed off-chain binder.
func NewBuilder() *Builder {
	return &Builder{
		MediaType: mediatype.Default{},
		Specs:     protocolspec.Default{},
		Offchain:  offchain.DefaultBinder{},
	}
}

// Build reads opts.Path and produces the Inscription it should be
// reveal-scripted as, per the four output shapes: compressed, off-chain,
// v1-plain, or legacy ord-v0.
func (b *Builder) Build(opts BuildOptions) (*Inscription, error) {
	if opts.Compression && opts.Offchain {
		return nil, ErrMutualExclusion
	}

	raw, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("envelope: read %s: %w", opts.Path, err)
	}

	hasMetadataFile := opts.MetadataPath != "" && filepath.Ext(opts.MetadataPath) == ".json"

	result, encoded, err := compressIfRequested(raw, opts.Compression, hasMetadataFile)
	if err != nil {
		return nil, err
	}

	if limit := opts.Chain.ContentSizeLimit(); limit != nil && len(result) > *limit {
		return nil, fmt.Errorf("%w: content size of %d bytes exceeds %d byte limit for %s inscriptions",
			ErrContentTooLarge, len(result), *limit, opts.Chain)
	}

	metadataBytes, encodedMetadata, err := readMetadataFile(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	spec, err := b.Specs.Resolve(opts.ProtocolID)
	if err != nil {
		return nil, err
	}

	if opts.ProtocolID == "ord-v1" {
		spec["title"] = opts.Title
		spec["subtitle"] = opts.Subtitle
		spec["license"] = opts.License
		spec["description"] = opts.Description

		switch {
		case encoded:
			spec["comment"] = ordv1CompressedMessage
		case opts.Offchain:
			spec["comment"] = ordv1OffchainMessage
		default:
			spec["comment"] = ordv1GeneralMessage
		}

		// The CLI description set above is immediately overwritten here.
		// Preserved as-is: this mirrors the source exactly rather than
		// silently dropping the dead argument.
		spec["description"] = ordv1SoftwareMessage
	} else {
		spec["title"] = ""
		spec["subtitle"] = ""
		spec["license"] = ""
	}

	tracking, _ := spec["tracking"].(bool)
	tracking = tracking || opts.ProtocolID == "ord-v0"

	if opts.PropertiesPath != "" && filepath.Ext(opts.PropertiesPath) == ".json" {
		properties, err := readJSONObject(opts.PropertiesPath)
		if err != nil {
			return nil, err
		}

		// Preserved as-is: this merge is gated on the literal key "key"
		// rather than the loop variable, so it only ever fires when spec
		// already has a field literally named "key". The evident intent
		// was to merge every property unconditionally.
		for key, value := range properties {
			if _, ok := spec["key"]; ok {
				spec[key] = value
			}
		}
	}

	protocolProperties, err := marshalCompact(spec)
	if err != nil {
		return nil, err
	}

	contentType, err := b.MediaType.ForPath(opts.Path)
	if err != nil {
		return nil, err
	}

	protocolVersion := jsonString(spec["version"])

	switch {
	case encoded:
		return b.wrap(opts.ProtocolID, protocolVersion, protocolProperties, tracking, metadataBytes, encodedMetadata, Expansion{
			Compression: strPtr(brCompression),
			Content:     strPtr(base64.StdEncoding.EncodeToString(result)),
			ContentHash: strPtr(sha256Hex(result)),
			ContentType: strPtr(contentType),
		})

	case opts.Offchain:
		magnet, sha256hex, err := b.Offchain.MakeOffchainInscription(opts.Path, opts.TorrentPath, opts.TrackerURL, opts.PeerAddr)
		if err != nil {
			return nil, fmt.Errorf("envelope: offchain binding: %w", err)
		}

		return b.wrap(opts.ProtocolID, protocolVersion, protocolProperties, tracking, metadataBytes, encodedMetadata, Expansion{
			Offchain:    strPtr(magnet),
			ContentHash: strPtr(sha256hex),
			ContentType: strPtr(contentType),
		})

	case opts.ProtocolID != "ord-v0":
		return b.wrap(opts.ProtocolID, protocolVersion, protocolProperties, tracking, metadataBytes, encodedMetadata, Expansion{
			Content:     strPtr(base64.StdEncoding.EncodeToString(result)),
			ContentHash: strPtr(sha256Hex(result)),
			ContentType: strPtr(contentType),
		})

	default:
		return &Inscription{
			ContentType: []byte(contentType),
			Body:        result,
			Tracking:    true,
		}, nil
	}
}

// wrap serializes an Expansion carrying the fields common to all three
// wrapped shapes and returns the enclosing Inscription.
func (b *Builder) wrap(protocolID, protocolVersion, protocolProperties string, tracking bool, metadataBytes []byte, encodedMetadata *string, partial Expansion) (*Inscription, error) {
	expansion := Expansion{
		Protocol:           protocolID,
		ProtocolVersion:    protocolVersion,
		ProtocolProperties: protocolProperties,
		Compression:        partial.Compression,
		Offchain:           partial.Offchain,
		Content:            partial.Content,
		ContentHash:        partial.ContentHash,
		ContentType:        partial.ContentType,
		ContentMetadata:    encodedMetadata,
		Wrapped:            true,
	}

	body, err := buildExpansionBody(expansion)
	if err != nil {
		return nil, err
	}

	return &Inscription{
		ContentType:        []byte("application/json"),
		Body:               body,
		Tracking:           tracking,
		ContentMetadata:    metadataBytes,
		ProtocolProperties: &protocolProperties,
	}, nil
}

// compressIfRequested brotli-compresses raw (quality 11, window 22) when
// compression is requested or a metadata file is present, keeping the
// compressed bytes only if they are strictly smaller.
func compressIfRequested(raw []byte, compression, hasMetadataFile bool) ([]byte, bool, error) {
	if !compression && !hasMetadataFile {
		return raw, false, nil
	}

	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{Quality: 11, LGWin: 22})
	if _, err := w.Write(raw); err != nil {
		return nil, false, fmt.Errorf("envelope: brotli compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, false, fmt.Errorf("envelope: brotli compress: %w", err)
	}

	compressed := buf.Bytes()
	if len(raw) > 0 && len(compressed) < len(raw) {
		return compressed, true, nil
	}

	return raw, false, nil
}

// readMetadataFile reads and compactly re-serializes a .json metadata
// file, returning both the raw UTF-8 bytes (for Inscription.ContentMetadata)
// and the base64 encoding (for Expansion.ContentMetadata). A path that is
// empty or not a .json file yields (nil, nil, nil).
func readMetadataFile(path string) ([]byte, *string, error) {
	if path == "" || filepath.Ext(path) != ".json" {
		return nil, nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("envelope: read metadata %s: %w", path, err)
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, nil, fmt.Errorf("envelope: parse metadata %s: %w", path, err)
	}

	compact, err := json.Marshal(value)
	if err != nil {
		return nil, nil, err
	}

	encoded := base64.StdEncoding.EncodeToString(compact)

	return compact, &encoded, nil
}

// readJSONObject reads a JSON object file for the properties merge.
func readJSONObject(path string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("envelope: read properties %s: %w", path, err)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("envelope: parse properties %s: %w", path, err)
	}

	return obj, nil
}

// marshalCompact serializes spec into a stable compact JSON string.
func marshalCompact(spec map[string]interface{}) (string, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// jsonString mirrors serde_json::Value::to_string(): a JSON string value
// serializes WITH its surrounding quotes, so a spec's "version": "1.0.0"
// ends up in protocol_version as the five characters "1.0.0" wrapped in a
// literal quote pair, not the bare text. Preserved rather than cleaned up
// since nothing downstream re-parses protocol_version as JSON.
func jsonString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}

	return string(data)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
