package buffer

import (
	"strings"
	"testing"

	"github.com/indigo-web/protover/http/proto"
	"github.com/stretchr/testify/require"
)

func pushSegment(t *testing.T, buff *Buffer, text string) {
	ok := buff.Append([]byte(text))
	require.True(t, ok)
	segment := buff.Finish()
	require.Equal(t, text, string(segment))
}

func BenchmarkBuffer(b *testing.B) {
	buff := New(1024, 4096)
	smallString := []byte(strings.Repeat("a", 1023))
	bigString := []byte(strings.Repeat("a", 4095))

	b.Run("no overflow", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(smallString)))
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_ = buff.Append(smallString)
			buff.Clear()
		}
	})

	b.Run("with overflow", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(bigString)))
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_ = buff.Append(bigString)
			buff.Clear()
			buff.memory = buff.memory[0:0:1024]
		}
	})
}

func TestBuffer(t *testing.T) {
	t.Run("no overflow", func(t *testing.T) {
		buff := New(10, 20)
		pushSegment(t, buff, "Hello")
		pushSegment(t, buff, "Here")
	})

	t.Run("with overflow", func(t *testing.T) {
		buff := New(10, 20)
		// "Hello, World!" is 13 characters length, so it will force the Buffer
		// to grow an underlying slice
		pushSegment(t, buff, "Hello, ")
		pushSegment(t, buff, "World!")
	})

	t.Run("overflow over the limit", func(t *testing.T) {
		buff := New(10, 20)
		pushSegment(t, buff, "Hello, ")
		pushSegment(t, buff, "World!")
		pushSegment(t, buff, "Lorem ")
		// at this point, we have reached 19 elements in underlying slice
		require.False(t, buff.Append([]byte("overflow")))
		require.Equal(t, 1, buff.Free())
		require.True(t, buff.Append([]byte("!")))
		require.Zero(t, buff.Free())
		require.False(t, buff.Append([]byte("!")))
	})

	t.Run("segment length", func(t *testing.T) {
		buff := New(10, 20)
		require.True(t, buff.Append([]byte("Hello, ")))
		require.True(t, buff.Append([]byte("World!")))
		require.Equal(t, 13, buff.SegmentLength())
		require.Equal(t, 13, buff.Readable())
	})

	t.Run("discard bytes", func(t *testing.T) {
		testDiscard(t, 13)
		testDiscard(t, 50)
	})

	t.Run("discard segment", func(t *testing.T) {
		buff := New(50, 50)
		require.True(t, buff.Append([]byte("Hello")))
		buff.Finish()
		require.True(t, buff.Append([]byte("World")))
		buff.Discard(0)
		require.Equal(t, "Hello", string(buff.memory))
	})

	t.Run("truncate", func(t *testing.T) {
		testTrunc(t, 1)
		testTrunc(t, 5)
	})
}

func TestBuffer_IndexByte(t *testing.T) {
	buff := New(32, 32)
	pushSegment(t, buff, "GET ")
	require.True(t, buff.Append([]byte("HTTP/1.1")))

	t.Run("relative to the segment", func(t *testing.T) {
		require.Equal(t, 6, buff.IndexByte(0, 7, '.'))
	})

	t.Run("bounded", func(t *testing.T) {
		require.Equal(t, -1, buff.IndexByte(0, 6, '.'))
		require.Equal(t, -1, buff.IndexByte(7, 8, '.'))
	})

	t.Run("clamped", func(t *testing.T) {
		require.Equal(t, 6, buff.IndexByte(-5, 100, '.'))
		require.Equal(t, -1, buff.IndexByte(5, 2, '.'))
	})
}

func TestBuffer_VersionToken(t *testing.T) {
	// a token split across two reads is glued in the buffer and must outlive it
	buff := New(8, 16)
	require.True(t, buff.Append([]byte("HTTP/")))
	require.True(t, buff.Append([]byte("1.1")))

	version, err := proto.FromWire(buff.Finish())
	require.NoError(t, err)

	buff.Clear()
	require.True(t, buff.Append([]byte("XXXXXXXX")))
	require.Equal(t, "HTTP/1.1", version.String())
}

func testDiscard(t *testing.T, n int) {
	buff := New(10, 20)
	require.True(t, buff.Append([]byte("Hello, world!")))
	segment := buff.Finish()
	buff.Discard(n)
	require.True(t, buff.Append([]byte("Hello!")))
	newSegment := buff.Finish()
	require.Equal(t, "Hello!", string(newSegment))
	require.Equal(t, "Hello! world!", string(segment))
}

func testTrunc(t *testing.T, n int) {
	buff := New(10, 20)
	require.True(t, buff.Append([]byte("Hello, world!")))
	segment := buff.Finish()
	require.True(t, buff.Append([]byte("Hi?")))
	buff.Trunc(n)
	require.Equal(t, "Hello, world!", string(segment))

	orig := "Hi?"
	if n > len(orig) {
		n = len(orig)
	}

	require.Equal(t, orig[:len(orig)-n], string(buff.Finish()))
}
