// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package offchain_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ordpub/envelope/offchain"
)

// stubBinder is the "substitute for real torrent machinery" the design
// notes call for: envelope-wrapper tests depend on Binder, not on this
// package building a real .torrent file.
type stubBinder struct {
	magnet, sha256Hex string
}

func (s stubBinder) MakeOffchainInscription(string, string, string, string) (string, string, error) {
	return s.magnet, s.sha256Hex, nil
}

func TestStubBinderSatisfiesInterface(t *testing.T) {
	var binder offchain.Binder = stubBinder{magnet: "magnet:?xt=urn:btih:deadbeef", sha256Hex: "abcd"}

	magnet, sha256Hex, err := binder.MakeOffchainInscription("f", "", "tracker", "peer")
	require.NoError(t, err)
	require.Equal(t, "magnet:?xt=urn:btih:deadbeef", magnet)
	require.Equal(t, "abcd", sha256Hex)
}

func TestDefaultBinderWritesTorrentAndUsesFixedMagnetDefaults(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "content.bin")
	require.NoError(t, os.WriteFile(filePath, []byte("hello inscription"), 0o644))

	binder := offchain.DefaultBinder{}

	magnet, sha256Hex, err := binder.MakeOffchainInscription(filePath, "", "udp://custom-tracker.example:80", "203.0.113.1:6881")
	require.NoError(t, err)
	require.NotEmpty(t, sha256Hex)

	// The magnet URI ignores the caller-supplied tracker/peer: it always
	// carries the compiled-in defaults.
	require.Contains(t, magnet, url.QueryEscape(offchain.DefaultTracker))
	require.Contains(t, magnet, url.QueryEscape(offchain.DefaultPeer))
	require.NotContains(t, magnet, "custom-tracker")

	torrentPath := filePath + ".torrent"
	contents, err := os.ReadFile(torrentPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), "udp://custom-tracker.example:80")
}

func TestDefaultBinderHonorsExplicitTorrentPath(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "content.bin")
	require.NoError(t, os.WriteFile(filePath, []byte("payload"), 0o644))
	torrentPath := filepath.Join(dir, "custom.torrent")

	binder := offchain.DefaultBinder{}

	_, _, err := binder.MakeOffchainInscription(filePath, torrentPath, "udp://tracker.example:80", "")
	require.NoError(t, err)

	_, err = os.Stat(torrentPath)
	require.NoError(t, err)
}
