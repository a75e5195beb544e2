// Package manifest serializes checksum lists to the portable manifest
// format and back.
//
// A manifest is the literal header followed by one "digest  path" line per
// entry, newline-joined, optionally masked with the cipher package. Its
// file name is the SHA-256 of the unmasked bytes, so identical content
// always maps to the same name whatever the password.
package manifest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jamesainslie/ldc/pkg/ldc/checksum"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

const (
	// Header prefixes every serialized manifest.
	Header = "MANIFEST_HEADER"

	// Extension is appended to the content hash to form the file name.
	Extension = ".comparator"

	separator = "  "
)

// Marshal serializes list with the header. Entries are written in path
// order; an unsorted list is sorted on a copy first. Paths containing a
// newline or invalid UTF-8 cannot round-trip and are rejected.
func Marshal(list types.ChecksumList) ([]byte, error) {
	if !list.IsSorted() {
		list = append(types.ChecksumList(nil), list...)
		list.Sort()
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	for i, e := range list {
		if strings.ContainsAny(e.Path, "\r\n") || !utf8.ValidString(e.Path) {
			return nil, fmt.Errorf("%w: path %q cannot be stored in a manifest", types.ErrMalformedEntry, e.Path)
		}
		if e.Digest == "" || strings.Contains(e.Digest, separator) {
			return nil, fmt.Errorf("%w: invalid digest for %q", types.ErrMalformedEntry, e.Path)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(e.Digest)
		buf.WriteString(separator)
		buf.WriteString(e.Path)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses unmasked manifest bytes. Invalid UTF-8 or a missing
// header yields ErrCorrupt; a line without the separator yields a
// *types.MalformedEntryError. Entries keep file order.
func Unmarshal(data []byte) (types.ChecksumList, error) {
	if !utf8.Valid(data) {
		return nil, types.ErrCorrupt
	}

	text := string(data)
	if !strings.HasPrefix(text, Header) {
		return nil, types.ErrCorrupt
	}
	text = text[len(Header):]

	list := types.ChecksumList{}
	for i, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		digest, path, ok := strings.Cut(line, separator)
		if !ok || digest == "" || path == "" {
			return nil, &types.MalformedEntryError{Line: i + 1, Text: line}
		}
		list = append(list, types.ChecksumEntry{Path: path, Digest: digest})
	}
	return list, nil
}

// Name returns the content-addressed file name for an unmasked payload.
func Name(payload []byte) string {
	return checksum.HashBytes(payload) + Extension
}
