package proto

import (
	"errors"
	"strconv"
)

// Reason tells which part of a version token was malformed.
type Reason uint8

const (
	TooSmall Reason = iota + 1
	BadPrefix
	NoMinorVersion
	NonNumericMajor
	NonNumericMinor
)

func (r Reason) String() string {
	lut := [...]string{
		TooSmall:        "too small",
		BadPrefix:       "bad prefix",
		NoMinorVersion:  "no minor version",
		NonNumericMajor: "non-numeric major",
		NonNumericMinor: "non-numeric minor",
	}
	if int(r) >= len(lut) || r == 0 {
		return "unknown"
	}

	return lut[r]
}

// ErrMalformedVersion matches every error returned by FromWire when used with errors.Is.
var ErrMalformedVersion = errors.New("malformed HTTP version")

type MalformedVersionError struct {
	Reason Reason
	// Token is a copy of the rejected input.
	Token string
}

func malformed(reason Reason, raw []byte) error {
	return &MalformedVersionError{
		Reason: reason,
		Token:  string(raw),
	}
}

func (m *MalformedVersionError) Error() string {
	return ErrMalformedVersion.Error() + " " + strconv.Quote(m.Token) + ": " + m.Reason.String()
}

func (m *MalformedVersionError) Is(target error) bool {
	return target == ErrMalformedVersion
}
