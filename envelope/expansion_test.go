// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"
)

func brotliBase64(t *testing.T, raw []byte) string {
	t.Helper()

	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{Quality: 11, LGWin: 22})
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestTryUnwrapExpansionCompressedContent(t *testing.T) {
	content := brotliBase64(t, []byte("hello, compressed world"))

	body, err := buildExpansionBody(Expansion{
		Protocol:           "pub-v1",
		ProtocolVersion:    `"1.0.0"`,
		ProtocolProperties: "{}",
		Compression:        strPtr(brCompression),
		Content:            strPtr(content),
		Wrapped:            true,
	})
	require.NoError(t, err)

	result, ok := tryUnwrapExpansion(body)
	require.True(t, ok)
	require.Equal(t, []byte("hello, compressed world"), result.body)
	require.False(t, result.tracking)
	require.Nil(t, result.protocolProperties)
}

func TestTryUnwrapExpansionOffchainAbsentContentLeavesBodyNil(t *testing.T) {
	body, err := buildExpansionBody(Expansion{
		Protocol:           "pub-v1",
		ProtocolVersion:    `"1.0.0"`,
		ProtocolProperties: "{}",
		Offchain:           strPtr("magnet:?xt=urn:btih:deadbeef"),
		Wrapped:            true,
	})
	require.NoError(t, err)

	result, ok := tryUnwrapExpansion(body)
	require.True(t, ok)
	require.Nil(t, result.body)
}

func TestTryUnwrapExpansionPlainContentIsBase64Decoded(t *testing.T) {
	body, err := buildExpansionBody(Expansion{
		Protocol:           "pub-v1",
		ProtocolVersion:    `"1.0.0"`,
		ProtocolProperties: "{}",
		Content:            strPtr(base64.StdEncoding.EncodeToString([]byte("plain content"))),
		Wrapped:            true,
	})
	require.NoError(t, err)

	result, ok := tryUnwrapExpansion(body)
	require.True(t, ok)
	require.Equal(t, []byte("plain content"), result.body)
}

func TestTryUnwrapExpansionCorruptBrotliIsToleratedNotErrored(t *testing.T) {
	body, err := buildExpansionBody(Expansion{
		Protocol:           "pub-v1",
		ProtocolVersion:    `"1.0.0"`,
		ProtocolProperties: "{}",
		Compression:        strPtr(brCompression),
		Content:            strPtr(base64.StdEncoding.EncodeToString([]byte("not brotli data at all"))),
		Wrapped:            true,
	})
	require.NoError(t, err)

	result, ok := tryUnwrapExpansion(body)
	require.True(t, ok)
	require.Empty(t, result.body)
	require.True(t, result.contentDamaged)
}

func TestTryUnwrapExpansionNotWrappedFails(t *testing.T) {
	_, ok := tryUnwrapExpansion([]byte(`{"wrapped":false}`))
	require.False(t, ok)
}

func TestTryUnwrapExpansionMalformedJSONFails(t *testing.T) {
	_, ok := tryUnwrapExpansion([]byte(`not json`))
	require.False(t, ok)
}

func TestTryUnwrapExpansionTrackingFromProperties(t *testing.T) {
	body, err := buildExpansionBody(Expansion{
		Protocol:           "ord-v1",
		ProtocolVersion:    `"1.0.0"`,
		ProtocolProperties: `{"tracking":true,"title":"x"}`,
		Content:            strPtr(base64.StdEncoding.EncodeToString([]byte("x"))),
		Wrapped:            true,
	})
	require.NoError(t, err)

	result, ok := tryUnwrapExpansion(body)
	require.True(t, ok)
	require.True(t, result.tracking)
	require.NotNil(t, result.protocolProperties)
}
