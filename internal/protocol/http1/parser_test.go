package http1

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/indigo-web/protover/config"
	"github.com/indigo-web/protover/http/method"
	"github.com/indigo-web/protover/http/proto"
	"github.com/indigo-web/protover/http/status"
	"github.com/indigo-web/protover/internal/buffer"
	"github.com/indigo-web/protover/internal/requestgen"
	"github.com/stretchr/testify/require"
)

func getParser(cfg *config.Config) (*Parser, *RequestLine) {
	request := new(RequestLine)
	requestLine := buffer.New(cfg.RequestLine.Size.Default, cfg.RequestLine.Size.Maximal)

	return NewParser(cfg, request, requestLine), request
}

func feedPartially(p *Parser, raw []byte, n int) (state State, extra []byte, err error) {
	parts := requestgen.Disperse(raw, n)

	for i, chunk := range parts {
		state, extra, err = p.Parse(chunk)
		switch state {
		case Pending:
		case HeadersCompleted:
			if i+1 < len(parts) {
				return state, extra, errors.New("not all chunks were fed")
			}

			return state, extra, err
		case Error:
			return state, extra, err
		}
	}

	return state, extra, err
}

func requireStatus(t *testing.T, state State, err error, code status.Code) {
	t.Helper()
	require.Equal(t, Error, state)
	require.Error(t, err)
	require.Equal(t, code, status.CodeOf(err), err.Error())
}

func BenchmarkParser(b *testing.B) {
	parser, request := getParser(config.Default())

	for _, n := range []int{0, 5, 10, 50} {
		b.Run(fmt.Sprintf("with %d headers", n), func(b *testing.B) {
			data := requestgen.Generate("/"+strings.Repeat("a", 500), "HTTP/1.1", requestgen.Headers(n))
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _, _ = parser.Parse(data)
				request.Reset()
			}
		})
	}
}

func TestParser(t *testing.T) {
	t.Run("simple GET", func(t *testing.T) {
		parser, request := getParser(config.Default())
		state, extra, err := parser.Parse(requestgen.Generate("/hello", "HTTP/1.1", requestgen.Headers(3)))
		require.NoError(t, err)
		require.Equal(t, HeadersCompleted, state)
		require.Empty(t, extra)
		require.Equal(t, method.GET, request.Method)
		require.Equal(t, "/hello", request.Target)
		require.Equal(t, 1, request.Version.Major())
		require.Equal(t, 1, request.Version.Minor())
		require.Equal(t, "HTTP/1.1", request.Version.String())
		require.NotSame(t, proto.HTTP11, request.Version)
	})

	t.Run("bare LF", func(t *testing.T) {
		parser, request := getParser(config.Default())
		state, extra, err := parser.Parse([]byte("HEAD / HTTP/1.0\nHost: localhost\n\n"))
		require.NoError(t, err)
		require.Equal(t, HeadersCompleted, state)
		require.Empty(t, extra)
		require.Equal(t, method.HEAD, request.Method)
		require.True(t, proto.Equal(proto.HTTP10, request.Version))
	})

	t.Run("pipelined", func(t *testing.T) {
		parser, request := getParser(config.Default())
		first := requestgen.Generate("/first", "HTTP/1.1", "")
		second := requestgen.Generate("/second", "HTTP/2.0", requestgen.Headers(2))
		state, extra, err := parser.Parse(append(append([]byte{}, first...), second...))
		require.NoError(t, err)
		require.Equal(t, HeadersCompleted, state)
		require.Equal(t, "/first", request.Target)
		require.Equal(t, string(second), string(extra))

		state, extra, err = parser.Parse(extra)
		require.NoError(t, err)
		require.Equal(t, HeadersCompleted, state)
		require.Empty(t, extra)
		require.Equal(t, "/second", request.Target)
		require.Equal(t, "HTTP/2.0", request.Version.String())
	})

	t.Run("fed partially", func(t *testing.T) {
		raw := requestgen.Generate("/path/to/something", "HTTP/1.01", requestgen.Headers(5))

		for n := 1; n <= len(raw); n++ {
			parser, request := getParser(config.Default())
			state, extra, err := feedPartially(parser, raw, n)
			require.NoError(t, err, n)
			require.Equal(t, HeadersCompleted, state, n)
			require.Empty(t, extra, n)
			require.Equal(t, "/path/to/something", request.Target, n)
			require.Equal(t, "HTTP/1.01", request.Version.String(), n)
			require.True(t, proto.Equal(proto.HTTP11, request.Version), n)
		}
	})

	t.Run("split version followed by headers", func(t *testing.T) {
		parser, request := getParser(config.Default())
		state, _, err := parser.Parse([]byte("GET /split HTTP/1"))
		require.NoError(t, err)
		require.Equal(t, Pending, state)

		state, extra, err := parser.Parse([]byte(".01\r\nHost: localhost\r\n\r\nGET"))
		require.NoError(t, err)
		require.Equal(t, HeadersCompleted, state)
		require.Equal(t, "GET", string(extra))
		require.Equal(t, "/split", request.Target)
		require.Equal(t, "HTTP/1.01", request.Version.String())
	})

	t.Run("split version with a malformed tail", func(t *testing.T) {
		parser, _ := getParser(config.Default())
		state, _, err := parser.Parse([]byte("GET / HTTP/1"))
		require.NoError(t, err)
		require.Equal(t, Pending, state)

		state, _, err = parser.Parse([]byte(".x\r\n\r\n"))
		requireStatus(t, state, err, status.BadRequest)
		var malformed *proto.MalformedVersionError
		require.True(t, errors.As(err, &malformed))
		require.Equal(t, proto.NonNumericMinor, malformed.Reason)
		require.Equal(t, "HTTP/1.x", malformed.Token)
	})

	t.Run("version outlives the buffers", func(t *testing.T) {
		parser, request := getParser(config.Default())
		raw := requestgen.Generate("/", "HTTP/1.1", "")
		_, _, err := parser.Parse(raw[:len(raw)-8])
		require.NoError(t, err)
		state, _, err := parser.Parse(raw[len(raw)-8:])
		require.NoError(t, err)
		require.Equal(t, HeadersCompleted, state)

		version := request.Version
		for i := range raw {
			raw[i] = 'X'
		}

		state, _, err = parser.Parse(requestgen.Generate("/next", "HTTP/1.0", ""))
		require.NoError(t, err)
		require.Equal(t, HeadersCompleted, state)
		require.Equal(t, "HTTP/1.1", version.String())
	})
}

func TestParser_MalformedVersion(t *testing.T) {
	for _, tc := range []struct {
		Version string
		Reason  proto.Reason
	}{
		{"HTTP/11", proto.TooSmall},
		{"HTTP/1.", proto.TooSmall},
		{"HTTPS/1.1", proto.BadPrefix},
		{"HTTQ/1.1", proto.BadPrefix},
		{"HTTP/111", proto.NoMinorVersion},
		{"HTTP/10.0", proto.NoMinorVersion},
		{"HTTP/a.1", proto.NonNumericMajor},
		{"HTTP/1.1 trailing", proto.NonNumericMinor},
	} {
		t.Run(tc.Version, func(t *testing.T) {
			parser, _ := getParser(config.Default())
			state, _, err := parser.Parse(requestgen.Generate("/", tc.Version, ""))
			requireStatus(t, state, err, status.BadRequest)
			require.ErrorIs(t, err, proto.ErrMalformedVersion)

			var malformed *proto.MalformedVersionError
			require.True(t, errors.As(err, &malformed))
			require.Equal(t, tc.Reason, malformed.Reason)
		})
	}
}

func TestParser_Errors(t *testing.T) {
	t.Run("unknown method", func(t *testing.T) {
		parser, _ := getParser(config.Default())
		state, _, err := parser.Parse([]byte("BREW /pot HTTP/1.1\r\n\r\n"))
		requireStatus(t, state, err, status.NotImplemented)
	})

	t.Run("empty method", func(t *testing.T) {
		parser, _ := getParser(config.Default())
		state, _, err := parser.Parse([]byte(" / HTTP/1.1\r\n\r\n"))
		requireStatus(t, state, err, status.BadRequest)
	})

	t.Run("empty target", func(t *testing.T) {
		parser, _ := getParser(config.Default())
		state, _, err := parser.Parse([]byte("GET  HTTP/1.1\r\n\r\n"))
		requireStatus(t, state, err, status.BadRequest)
	})

	t.Run("prohibited char in target", func(t *testing.T) {
		parser, _ := getParser(config.Default())
		state, _, err := parser.Parse([]byte("GET /\r\n\r\n"))
		requireStatus(t, state, err, status.BadRequest)
	})

	t.Run("too long request line", func(t *testing.T) {
		cfg := config.Default()
		cfg.RequestLine.Size.Default, cfg.RequestLine.Size.Maximal = 16, 32
		parser, _ := getParser(cfg)
		raw := requestgen.Generate("/"+strings.Repeat("a", 64), "HTTP/1.1", "")
		state, _, err := feedPartially(parser, raw, 8)
		requireStatus(t, state, err, status.RequestURITooLong)
	})

	t.Run("too long split version", func(t *testing.T) {
		cfg := config.Default()
		cfg.RequestLine.Size.Default, cfg.RequestLine.Size.Maximal = 16, 24
		parser, _ := getParser(cfg)
		state, _, err := parser.Parse([]byte("GET / HTTP/1."))
		require.NoError(t, err)
		require.Equal(t, Pending, state)

		state, _, err = parser.Parse([]byte(strings.Repeat("1", 40) + "\r\n\r\n"))
		requireStatus(t, state, err, status.RequestURITooLong)
	})

	t.Run("too many headers", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.MaxLines = 3
		parser, _ := getParser(cfg)
		state, _, err := parser.Parse(requestgen.Generate("/", "HTTP/1.1", requestgen.Headers(4)))
		requireStatus(t, state, err, status.HeaderFieldsTooLarge)
	})

	t.Run("too long header line", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.MaxLineSize = 20
		parser, _ := getParser(cfg)
		raw := requestgen.Generate("/", "HTTP/1.1", "Cookie: "+strings.Repeat("c", 30))
		state, _, err := feedPartially(parser, raw, 4)
		requireStatus(t, state, err, status.HeaderFieldsTooLarge)
	})

	t.Run("CR without LF", func(t *testing.T) {
		parser, _ := getParser(config.Default())
		state, _, err := parser.Parse([]byte("GET / HTTP/1.1\r\n\r\r"))
		requireStatus(t, state, err, status.BadRequest)
	})

	t.Run("reset after error", func(t *testing.T) {
		parser, request := getParser(config.Default())
		state, _, _ := parser.Parse([]byte("GET /a HTTP/x.y\r\n"))
		require.Equal(t, Error, state)

		parser.Reset()
		require.Nil(t, request.Version)
		state, _, err := parser.Parse(requestgen.Generate("/b", "HTTP/1.1", ""))
		require.NoError(t, err)
		require.Equal(t, HeadersCompleted, state)
		require.Equal(t, "/b", request.Target)
	})
}
