package requestgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	require.Empty(t, Headers(0))
	require.Equal(t, "Host: localhost", Headers(1))

	lines := strings.Split(Headers(5), "\r\n")
	require.Len(t, lines, 5)
	require.Equal(t, "Host: localhost", lines[4])
}

func TestGenerate(t *testing.T) {
	require.Equal(t, "GET / HTTP/1.1\r\n\r\n", string(Generate("/", "HTTP/1.1", "")))
	require.Equal(t,
		"GET /x HTTP/1.0\r\nHost: localhost\r\n\r\n",
		string(Generate("/x", "HTTP/1.0", Headers(1))),
	)
}

func TestDisperse(t *testing.T) {
	parts := Disperse([]byte("HTTP/1.1"), 3)
	require.Equal(t, [][]byte{[]byte("HTT"), []byte("P/1"), []byte(".1")}, parts)
	require.Empty(t, Disperse(nil, 3))
}
