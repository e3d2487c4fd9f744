package proto

import (
	"io"
	"strconv"
)

// Version is an HTTP protocol version token, HTTP/<major>.<minor>, as it appears in the
// request and status lines of HTTP/1.x messages. Values are obtained either via For, which
// hands out the shared HTTP10 and HTTP11 instances where possible, or via FromWire.
type Version interface {
	Major() int
	Minor() int
	// AppendTo appends the wire bytes of the version to dst. The bytes are never re-encoded
	// from the numbers, so a version obtained from FromWire is written back exactly as it
	// was received.
	AppendTo(dst []byte) []byte
	WriteTo(w io.Writer) (int64, error)
	// String returns the wire bytes as a string.
	String() string

	wire() []byte
}

// HTTP10 and HTTP11 are the shared canonical versions. They are built once and never change.
var (
	HTTP10 Version = newKnown(1, 0)
	HTTP11 Version = newKnown(1, 1)
)

// For returns a version with the given numbers. (1, 0) and (1, 1) always result in HTTP10
// and HTTP11 respectively, any other pair is encoded into a new instance on every call.
func For(major, minor int) Version {
	if major == 1 {
		switch minor {
		case 0:
			return HTTP10
		case 1:
			return HTTP11
		}
	}

	return newKnown(major, minor)
}

// Equal reports whether both versions have the same major and minor numbers. Wire bytes
// aren't compared, so HTTP/1.01 received from a peer equals HTTP11.
func Equal(a, b Version) bool {
	return a.Major() == b.Major() && a.Minor() == b.Minor()
}

const scheme = "HTTP/"

// Encode returns the canonical ASCII representation of the version.
func Encode(major, minor int) []byte {
	return AppendEncoded(make([]byte, 0, len("HTTP/x.x")), major, minor)
}

// AppendEncoded appends the canonical ASCII representation of the version to dst.
func AppendEncoded(dst []byte, major, minor int) []byte {
	dst = append(dst, scheme...)
	dst = strconv.AppendInt(dst, int64(major), 10)
	dst = append(dst, '.')

	return strconv.AppendInt(dst, int64(minor), 10)
}

// token holds what both kinds of versions have in common. raw is never modified after
// the construction.
type token struct {
	major, minor int
	raw          []byte
}

func (t token) Major() int {
	return t.major
}

func (t token) Minor() int {
	return t.minor
}

func (t token) AppendTo(dst []byte) []byte {
	return append(dst, t.raw...)
}

func (t token) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(t.raw)
	return int64(n), err
}

func (t token) wire() []byte {
	return t.raw
}

// known is built from the numbers, both its forms are encoded once.
type known struct {
	token
	text string
}

func newKnown(major, minor int) *known {
	raw := Encode(major, minor)

	return &known{
		token: token{major: major, minor: minor, raw: raw},
		text:  string(raw),
	}
}

func (k *known) String() string {
	return k.text
}
