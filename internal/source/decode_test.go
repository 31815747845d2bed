package source

import (
	"errors"
	"testing"
	"unicode/utf16"
)

func TestDecodePlainUTF8(t *testing.T) {
	got, err := Decode([]byte("system \"App\":\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "system \"App\":\n" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeStripsUTF8BOM(t *testing.T) {
	got, err := Decode([]byte{0xEF, 0xBB, 0xBF, 'h', 'i'})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "hi" {
		t.Errorf("got %q", got)
	}
}

func encodeUTF16(s string, bigEndian bool) []byte {
	units := utf16.Encode([]rune("\uFEFF" + s))
	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		if bigEndian {
			out = append(out, byte(u>>8), byte(u))
		} else {
			out = append(out, byte(u), byte(u>>8))
		}
	}
	return out
}

func TestDecodeUTF16(t *testing.T) {
	for _, tc := range []struct {
		name      string
		bigEndian bool
	}{
		{"little endian", false},
		{"big endian", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(encodeUTF16("module M:", tc.bigEndian))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != "module M:" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestDecodeLatin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as standalone UTF-8.
	got, err := Decode([]byte{'c', 'a', 'f', 0xE9})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "café" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeRejectsBinary(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x01, 0x02, 0x03})
	if !errors.Is(err, ErrNotText) {
		t.Errorf("err = %v, want ErrNotText", err)
	}
}

func TestDecodeRejectsNULInUTF8(t *testing.T) {
	_, err := Decode([]byte("text\x00more"))
	if !errors.Is(err, ErrNotText) {
		t.Errorf("err = %v, want ErrNotText", err)
	}
}

func TestCountLines(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
	} {
		if got := CountLines(tc.in); got != tc.want {
			t.Errorf("CountLines(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
