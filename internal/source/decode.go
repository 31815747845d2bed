// Package source turns raw input bytes into the UTF-8 text the lexer
// consumes. Decoding is the only stage of compilation that can hard-fail:
// every later stage reports problems as diagnostics instead.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ErrNotText reports input that cannot be decoded as text in any supported
// encoding.
var ErrNotText = errors.New("input is not decodable text")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts data to a UTF-8 string. A byte-order mark selects UTF-8 or
// UTF-16; without one, valid UTF-8 is taken as-is and anything else falls
// back to Latin-1 unless it looks binary.
func Decode(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeUTF16(data, unicode.LittleEndian)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeUTF16(data, unicode.BigEndian)
	}

	if utf8.Valid(data) {
		if bytes.IndexByte(data, 0) >= 0 {
			return "", ErrNotText
		}
		return string(data), nil
	}

	if looksBinary(data) {
		return "", ErrNotText
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(decoded), nil
}

func decodeUTF16(data []byte, endian unicode.Endianness) (string, error) {
	dec := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
	decoded, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode utf-16: %w", err)
	}
	if bytes.IndexByte(decoded, 0) >= 0 {
		return "", ErrNotText
	}
	return string(decoded), nil
}

// looksBinary applies the usual NUL-byte heuristic plus a density check on
// C0 control characters other than whitespace.
func looksBinary(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	control := 0
	for _, b := range data {
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' {
			control++
		}
	}
	return len(data) > 0 && control*10 > len(data)
}

// CountLines reports the number of source lines, counting a trailing partial
// line.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
