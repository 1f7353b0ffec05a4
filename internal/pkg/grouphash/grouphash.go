// Package grouphash encodes group names into URL path segments.
//
// Group names are free-form Unicode (typically Cyrillic, e.g. "ИТ-21"), so they
// are carried in URLs as unpadded URL-safe base64 of their UTF-8 bytes. Decode
// is the exact inverse of Encode for every string, including the empty one.
package grouphash

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

var encoding = base64.RawURLEncoding

// Encode returns the URL-safe hash of a group name.
func Encode(name string) string {
	return encoding.EncodeToString([]byte(name))
}

// Decode reverses Encode. Inputs that are not valid hashes, or that do not
// decode to UTF-8 text, are rejected.
func Decode(hash string) (string, error) {
	raw, err := encoding.DecodeString(hash)
	if err != nil {
		return "", fmt.Errorf("invalid group hash %q: %w", hash, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("invalid group hash %q: not utf-8", hash)
	}
	return string(raw), nil
}
