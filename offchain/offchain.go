// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package offchain builds the v1 .torrent file and magnet URI that stand
// in for an inscription's content when it is bound off-chain instead of
// embedded in the envelope body. It is exposed behind the Binder interface
// so the envelope builder can be tested with a stub that returns fixed
// strings, without any real torrent machinery.
package offchain

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// pieceLength is the BitTorrent v1 piece size used for every inscription
// torrent, 1 MiB.
const pieceLength = 1048576

// DefaultTracker and DefaultPeer are the fixed values written into every
// magnet URI's tr= and x.pe= parameters, regardless of the tracker/peer
// arguments a caller supplies. Those arguments are still honored for the
// .torrent file's announce and nodes fields; only the magnet URI ignores
// them. Preserved as-is rather than unified: see the design notes on the
// discrepancy between the two.
const (
	DefaultTracker = "udp://tracker.openbittorrent.com:6969"
	DefaultPeer    = "dht.aelitis.com:6881"
)

// Binder binds a file to off-chain storage, returning a magnet URI and the
// hex SHA-256 of the file's contents.
type Binder interface {
	MakeOffchainInscription(filePath, torrentPath, trackerURL, peerAddr string) (magnet, sha256Hex string, err error)
}

// DefaultBinder implements Binder by constructing a real v1 torrent file.
type DefaultBinder struct{}

// MakeOffchainInscription implements Binder.
func (DefaultBinder) MakeOffchainInscription(filePath, torrentPath, trackerURL, peerAddr string) (string, string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", "", fmt.Errorf("offchain: canonicalize path: %w", err)
	}

	contents, err := os.ReadFile(absPath)
	if err != nil {
		return "", "", fmt.Errorf("offchain: read file: %w", err)
	}

	infoDict := bencodeDict{
		{key: "length", value: bencodeInt(len(contents))},
		{key: "name", value: bencodeString(filepath.Base(absPath))},
		{key: "piece length", value: bencodeInt(pieceLength)},
		{key: "pieces", value: bencodeString(pieceHashes(contents))},
	}

	infoHash := sha1.Sum(infoDict.bencode())

	torrentDict := bencodeDict{
		{key: "announce", value: bencodeString(trackerURL)},
		{key: "info", value: infoDict},
		{key: "nodes", value: bencodeNodes(peerAddr)},
	}

	resolvedTorrentPath := torrentPath
	if resolvedTorrentPath == "" {
		resolvedTorrentPath = absPath + ".torrent"
	}

	if err := os.WriteFile(resolvedTorrentPath, torrentDict.bencode(), 0o644); err != nil {
		return "", "", fmt.Errorf("offchain: write torrent file: %w", err)
	}

	sha256sum := sha256.Sum256(contents)

	magnet := fmt.Sprintf(
		"magnet:?xt=urn:btih:%s&tr=%s&x.pe=%s",
		hex.EncodeToString(infoHash[:]),
		url.QueryEscape(DefaultTracker),
		url.QueryEscape(DefaultPeer),
	)

	return magnet, hex.EncodeToString(sha256sum[:]), nil
}

// pieceHashes splits contents into pieceLength-byte pieces and returns the
// concatenation of each piece's raw SHA-1 digest, the BEP 3 "pieces" field.
func pieceHashes(contents []byte) []byte {
	var out []byte
	for start := 0; start < len(contents); start += pieceLength {
		end := start + pieceLength
		if end > len(contents) {
			end = len(contents)
		}
		sum := sha1.Sum(contents[start:end])
		out = append(out, sum[:]...)
	}
	if len(contents) == 0 {
		sum := sha1.Sum(nil)
		out = append(out, sum[:]...)
	}
	return out
}

// bencodeNodes parses peerAddr as space-separated "host:port" pairs into a
// BEP 5 nodes list, skipping entries that do not parse.
func bencodeNodes(peerAddr string) bencodeList {
	nodes := bencodeList{}
	for _, node := range strings.Fields(peerAddr) {
		host, portStr, found := strings.Cut(node, ":")
		if !found {
			continue
		}

		port, err := strconv.ParseInt(portStr, 10, 64)
		if err != nil {
			continue
		}

		nodes = append(nodes, bencodeList{bencodeString(host), bencodeInt(port)})
	}

	return nodes
}
