package ident

import (
	"math"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		number int64
		want   ID
	}{
		{name: "zero", number: 0, want: "20"},
		{name: "first id of seed one", number: 1024, want: "2400"},
		{name: "hex letters are lowercase", number: 0xabcdef, want: "2abcdef"},
		{name: "max int64", number: math.MaxInt64, want: "27fffffffffffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.number)
			if err != nil {
				t.Fatalf("Encode(%d) returned error: %v", tt.number, err)
			}
			if got != tt.want {
				t.Errorf("Encode(%d) = %q, want %q", tt.number, got, tt.want)
			}
			if strings.ContainsAny(string(got), "[]/") {
				t.Errorf("Encode(%d) = %q contains path separators", tt.number, got)
			}
		})
	}
}

func TestEncodeNegative(t *testing.T) {
	if _, err := Encode(-1); err == nil {
		t.Fatal("expected error for negative number")
	}
}

func TestRoundTrip(t *testing.T) {
	numbers := []int64{0, 1, 15, 16, 1023, 1024, 1025, 7 * 1024, 1 << 40, math.MaxInt64}
	for _, n := range numbers {
		id, err := Encode(n)
		if err != nil {
			t.Fatalf("Encode(%d): %v", n, err)
		}
		decoded, err := Decode(id)
		if err != nil {
			t.Fatalf("Decode(%q): %v", id, err)
		}
		if decoded != n {
			t.Errorf("Decode(Encode(%d)) = %d", n, decoded)
		}
		again, _ := Encode(decoded)
		if again != id {
			t.Errorf("re-encoding %q produced %q", id, again)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		id   ID
	}{
		{name: "empty", id: ""},
		{name: "prefix only", id: "2"},
		{name: "legacy scheme", id: "1abc"},
		{name: "unknown scheme", id: "3abc"},
		{name: "upper case", id: "2ABC"},
		{name: "leading zero", id: "200ff"},
		{name: "not hex", id: "2xyz"},
		{name: "overflow", id: "2ffffffffffffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.id); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tt.id)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	if v := ID("2ff").Version(); v != VersionSequence {
		t.Errorf("Version() = %s, want %s", v, VersionSequence)
	}
	if v := ID("1ff").Version(); v != VersionLegacyTime {
		t.Errorf("Version() = %s, want %s", v, VersionLegacyTime)
	}
	if v := ID("").Version(); v != 0 {
		t.Errorf("Version() of empty id = %v, want 0", v)
	}
}

func TestValid(t *testing.T) {
	tests := map[string]bool{
		"2400":    true,
		"20":      true,
		"1legacy": true,
		"1a/b":    false,
		"2":       false,
		"":        false,
		"x12":     false,
		"2G":      false,
	}
	for in, want := range tests {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}
