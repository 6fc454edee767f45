// Package dataurl turns hex-encoded profile pictures into data URLs.
//
// DeSo returns profile pictures in several shapes: a ready data URL, a hex
// dump of raw image bytes, or a hex dump of the text of a data URL (possibly
// written as a run of `\x` escapes). Classify detects the shape once and
// Encode renders it; neither returns an error.
package dataurl

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

type Kind int

const (
	KindEmpty Kind = iota
	KindInvalid
	KindAlreadyEncoded
	KindDoubleEncoded
	KindRawHex
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInvalid:
		return "invalid"
	case KindAlreadyEncoded:
		return "already_encoded"
	case KindDoubleEncoded:
		return "double_encoded"
	case KindRawHex:
		return "raw_hex"
	}
	return "unknown"
}

// Classification is the result of Classify.
type Classification struct {
	Kind Kind
	// Value holds the input for KindAlreadyEncoded and the decoded text for
	// KindDoubleEncoded.
	Value string
	// Bytes holds the decoded image bytes for KindRawHex.
	Bytes []byte
}

// chunkSize is a multiple of 3 so per-chunk base64 output concatenates cleanly.
const chunkSize = 0x8000

var (
	escapeRun = regexp.MustCompile(`(?i)\\x`)
	hexOnly   = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

var signatures = []struct {
	magic []byte
	mime  string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
	{[]byte{0x47, 0x49, 0x46, 0x38}, "image/gif"},
}

func isEncoded(s string) bool {
	return strings.HasPrefix(s, "data:") || strings.Contains(s, "base64,")
}

// cleanHex strips the 0x prefix and literal \x runs, validates and pads.
func cleanHex(s string) (string, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	s = escapeRun.ReplaceAllString(s, "")
	if !hexOnly.MatchString(s) {
		return "", false
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return s, true
}

// DecodeHex returns the bytes of a hex string after cleanup, or nil.
func DecodeHex(s string) []byte {
	cleaned, ok := cleanHex(s)
	if !ok {
		return nil
	}
	b, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil
	}
	return b
}

// HexToUTF8 decodes a hex string as UTF-8 text. Invalid sequences are
// replaced with U+FFFD. Returns "" when s is not hex.
func HexToUTF8(s string) string {
	b := DecodeHex(s)
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

func Classify(s string) Classification {
	if s == "" {
		return Classification{Kind: KindEmpty}
	}
	if isEncoded(s) {
		return Classification{Kind: KindAlreadyEncoded, Value: s}
	}
	b := DecodeHex(s)
	if len(b) == 0 {
		return Classification{Kind: KindInvalid}
	}
	if text := HexToUTF8(s); strings.HasPrefix(text, "data:") || strings.HasPrefix(text, "http") {
		return Classification{Kind: KindDoubleEncoded, Value: text}
	}
	return Classification{Kind: KindRawHex, Bytes: b}
}

func Encode(c Classification) string {
	switch c.Kind {
	case KindAlreadyEncoded, KindDoubleEncoded:
		return c.Value
	case KindRawHex:
		payload := encodeChunked(c.Bytes)
		if payload == "" {
			return ""
		}
		return "data:" + SniffMIME(c.Bytes) + ";base64," + payload
	}
	return ""
}

// FromHex converts a profile picture value into something usable as an img src.
func FromHex(s string) string {
	return Encode(Classify(s))
}

// SniffMIME picks the image type from the leading bytes, defaulting to PNG.
func SniffMIME(b []byte) string {
	for _, sig := range signatures {
		if bytes.HasPrefix(b, sig.magic) {
			return sig.mime
		}
	}
	return "image/png"
}

func encodeChunked(b []byte) string {
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(b)))
	for i := 0; i < len(b); i += chunkSize {
		end := i + chunkSize
		if end > len(b) {
			end = len(b)
		}
		sb.WriteString(base64.StdEncoding.EncodeToString(b[i:end]))
	}
	return sb.String()
}
