package ident

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the format discriminator stored in the first byte of an id.
type Version byte

const (
	VersionLegacyTime Version = '1' // reserved, time based scheme
	VersionSequence   Version = '2' // seed based scheme
)

func (v Version) String() string {
	switch v {
	case VersionLegacyTime:
		return "legacy-time"
	case VersionSequence:
		return "sequence"
	default:
		return fmt.Sprintf("Unknown(%q)", byte(v))
	}
}

// ID is the textual id of a persisted object. The zero value means "not assigned".
type ID string

// Empty reports whether no id was assigned yet.
func (id ID) Empty() bool {
	return len(id) == 0
}

func (id ID) String() string {
	return string(id)
}

// Version returns the format discriminator of the id (0 for an empty id).
func (id ID) Version() Version {
	if id.Empty() {
		return 0
	}
	return Version(id[0])
}

// Encode converts an allocated number into its textual form.
// Negative numbers are never produced by the allocator and are rejected.
func Encode(number int64) (ID, error) {
	if number < 0 {
		return "", fmt.Errorf("cannot encode negative id number %d", number)
	}
	return ID(string(VersionSequence) + strconv.FormatInt(number, 16)), nil
}

// Decode returns the number encoded in a sequence based id.
// Ids of any other version are rejected, as are upper case digits since
// they would not survive a round trip through Encode.
func Decode(id ID) (int64, error) {
	if id.Empty() {
		return 0, fmt.Errorf("cannot decode empty id")
	}
	if id.Version() != VersionSequence {
		return 0, fmt.Errorf("id %q uses unsupported scheme %s", string(id), id.Version())
	}
	digits := string(id[1:])
	if digits == "" {
		return 0, fmt.Errorf("id %q has no number", string(id))
	}
	if strings.ToLower(digits) != digits {
		return 0, fmt.Errorf("id %q is not lowercase", string(id))
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, fmt.Errorf("id %q has leading zeros", string(id))
	}
	n, err := strconv.ParseInt(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", string(id), err)
	}
	return n, nil
}

// Valid reports whether s is well formed for its version. Legacy ids are
// only checked for path safety since their layout is not generated anymore.
func Valid(s string) bool {
	id := ID(s)
	switch id.Version() {
	case VersionSequence:
		_, err := Decode(id)
		return err == nil
	case VersionLegacyTime:
		return len(s) > 1 && !strings.ContainsAny(s, "[]/")
	default:
		return false
	}
}
