// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package protocolspec resolves a protocol identifier to its bundled JSON
// spec: a static map compiled into the binary via go:embed, read-only at
// runtime, matching the "no global mutable state" design the envelope
// builder relies on.
package protocolspec

import (
	"embed"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/coreos/go-semver/semver"
)

//go:embed specs/*.json
var specFS embed.FS

const specsDir = "specs"

// ErrInvalidSpec is returned when a bundled spec file is not a JSON object.
var ErrInvalidSpec = errors.New("protocolspec: spec file is not a JSON object")

// Resolver resolves a protocol identifier to its spec object.
type Resolver interface {
	Resolve(protocolID string) (map[string]interface{}, error)
}

// Default resolves protocol identifiers against the specs embedded in this
// binary.
type Default struct{}

// Resolve implements Resolver. Fixed filenames are used for the two pinned
// protocols; every other identifier is resolved by enumerating bundled
// filenames that start with it and picking the highest semver, falling
// back to an empty object when none match.
func (Default) Resolve(protocolID string) (map[string]interface{}, error) {
	name, err := specFilename(protocolID)
	if err != nil {
		return nil, err
	}

	if name == "" {
		return map[string]interface{}{}, nil
	}

	contents, err := specFS.ReadFile(specsDir + "/" + name)
	if err != nil {
		return nil, err
	}

	var spec map[string]interface{}
	if err := json.Unmarshal(contents, &spec); err != nil {
		return nil, ErrInvalidSpec
	}

	return spec, nil
}

// specFilename picks the bundled spec filename for a protocol identifier,
// or "" if none applies.
func specFilename(protocolID string) (string, error) {
	switch protocolID {
	case "ord-v1":
		return "ord-v1.0.0.json", nil
	case "pub-v1", "pub":
		return "pub-v1.0.0.json", nil
	}

	entries, err := specFS.ReadDir(specsDir)
	if err != nil {
		return "", err
	}

	var candidates []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), protocolID) {
			candidates = append(candidates, entry.Name())
		}
	}

	if len(candidates) == 0 {
		return "", nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		va, oka := versionOf(candidates[a])
		vb, okb := versionOf(candidates[b])
		if !oka || !okb {
			return false
		}
		return va.LessThan(*vb)
	})

	return candidates[len(candidates)-1], nil
}

// versionOf extracts the major.minor.patch triple from a spec filename of
// the form "<id>-v<semver>.json".
func versionOf(filename string) (*semver.Version, bool) {
	trimmed := strings.TrimSuffix(filename, ".json")
	idx := strings.LastIndex(trimmed, "-v")
	if idx < 0 {
		return nil, false
	}

	v, err := semver.NewVersion(trimmed[idx+2:])
	if err != nil {
		return nil, false
	}

	return v, true
}
