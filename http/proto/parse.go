package proto

import (
	"bytes"
	"math"

	"github.com/indigo-web/utils/uf"
)

const (
	minTokenLength = len("HTTP/x.x")
	// the separator is looked for only in the place where a single-digit major
	// version would put it, so HTTP/10.0 is rejected.
	separatorWindow = len("HTTP/x.")
)

// FromWire parses a version token received from a peer. The caller must delimit the token
// beforehand: raw must contain nothing but the token itself.
//
// The returned version owns a private copy of raw, therefore the caller is free to reuse
// or recycle its buffer right after the call. FromWire never folds the result into HTTP10
// or HTTP11, even if the bytes spell exactly them.
func FromWire(raw []byte) (Version, error) {
	if len(raw) < minTokenLength {
		return nil, malformed(TooSmall, raw)
	}

	if uf.B2S(raw[:len(scheme)]) != scheme {
		return nil, malformed(BadPrefix, raw)
	}

	dot := bytes.IndexByte(raw[:separatorWindow], '.')
	if dot == -1 {
		return nil, malformed(NoMinorVersion, raw)
	}

	major, ok := parseUint(raw[len(scheme):dot])
	if !ok {
		return nil, malformed(NonNumericMajor, raw)
	}

	minor, ok := parseUint(raw[dot+1:])
	if !ok {
		return nil, malformed(NonNumericMinor, raw)
	}

	owned := make([]byte, len(raw))
	copy(owned, raw)

	return &parsed{token{major: major, minor: minor, raw: owned}}, nil
}

// parsed is a version built by FromWire. Its text form is derived from the wire bytes on
// every call.
type parsed struct {
	token
}

func (p *parsed) String() string {
	// raw is a private copy and is never mutated, so viewing it as a string is safe
	return uf.B2S(p.raw)
}

// parseUint parses a non-empty run of ASCII digits. Signs, spaces and values overflowing
// int are rejected.
func parseUint(raw []byte) (num int, ok bool) {
	if len(raw) == 0 {
		return 0, false
	}

	for _, char := range raw {
		char -= '0'
		if char > 9 {
			return 0, false
		}

		if num > (math.MaxInt-int(char))/10 {
			return 0, false
		}

		num = num*10 + int(char)
	}

	return num, true
}
