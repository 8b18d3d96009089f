// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package mediatype resolves a file path to a MIME content type. The
// envelope builder depends on this only through the Lookup interface so
// callers (and tests) can substitute a fixed table without touching the
// standard library's extension database.
package mediatype

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnknown is returned when no content type can be determined for a path.
var ErrUnknown = errors.New("mediatype: unknown content type for path")

// Lookup resolves a file path to a content type string.
type Lookup interface {
	ForPath(path string) (string, error)
}

// Default is a Lookup backed by the standard library's extension table,
// augmented with a few extensions it does not carry.
type Default struct{}

// extra covers extensions the standard mime package's table has no entry
// for; it is consulted only after mime.TypeByExtension returns nothing, so
// it never overrides a standard-library mapping.
var extra = map[string]string{
	".avif": "image/avif",
	".webp": "image/webp",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
	".txt":  "text/plain;charset=utf-8",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".pdf":  "application/pdf",
	".gz":   "application/gzip",
	".wasm": "application/wasm",
}

// ForPath implements Lookup.
func (Default) ForPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", ErrUnknown
	}

	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType, nil
	}

	if contentType, ok := extra[ext]; ok {
		return contentType, nil
	}

	return "", ErrUnknown
}

// ForPath resolves path using Default.
func ForPath(path string) (string, error) {
	return Default{}.ForPath(path)
}
