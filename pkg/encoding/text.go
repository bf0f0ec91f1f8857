// Package encoding provides text encoding utilities for model files.
//
// Model files produced by the original toolset are Windows-1252 encoded;
// files written by newer tools are UTF-8. Decoding accepts both.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Name identifies an output encoding.
type Name string

const (
	UTF8        Name = "utf-8"
	Windows1252 Name = "cp1252"
)

// ParseName maps a configuration string to a Name. Unknown values fall back
// to UTF-8; ok reports whether the value was recognized.
func ParseName(s string) (name Name, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf8", "utf-8":
		return UTF8, true
	case "cp1252", "windows-1252", "windows1252", "latin1":
		return Windows1252, true
	default:
		return UTF8, false
	}
}

// DecodeText converts model file bytes to a UTF-8 string. Valid UTF-8 input
// is returned unchanged; anything else is decoded as Windows-1252.
// A UTF-8 byte order mark is dropped.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		// Return as-is if decoding fails
		return string(data)
	}
	return string(result)
}

// EncodeText converts a UTF-8 string to bytes in the given encoding.
// Characters that Windows-1252 cannot represent are replaced.
func EncodeText(s string, name Name) []byte {
	if name != Windows1252 {
		return []byte(s)
	}
	encoder := xencoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	result, _, err := transform.Bytes(encoder, []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// NormalizeName normalizes a node or resource name for case-insensitive lookup.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
