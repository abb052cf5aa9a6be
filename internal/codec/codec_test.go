package codec

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

// decompress reads data back with the format's standard streaming
// decompressor, which is exactly what consumers of a container will use.
func decompress(t *testing.T, typ Type, data []byte) []byte {
	t.Helper()

	var r io.Reader
	switch typ {
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer gr.Close()
		r = gr
	case Zstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	case S2:
		r = s2.NewReader(bytes.NewReader(data))
	case LZ4:
		r = lz4.NewReader(bytes.NewReader(data))
	default:
		t.Fatalf("no decompressor for %s", typ)
	}

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}

func testPayload(size int) []byte {
	// Half compressible text, half pseudo-random, so codecs see both.
	data := make([]byte, size)
	text := []byte("the quick brown fox jumps over the lazy dog; ")
	for i := 0; i < size/2; i++ {
		data[i] = text[i%len(text)]
	}
	rng := rand.New(rand.NewSource(7))
	rng.Read(data[size/2:])
	return data
}

func TestRoundTrip(t *testing.T) {
	payload := testPayload(64 * 1024)

	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			c, err := New(typ, DefaultLevel)
			require.NoError(t, err)

			compressed, err := c.Compress(payload)
			require.NoError(t, err)
			require.NotEmpty(t, compressed)

			require.Equal(t, payload, decompress(t, typ, compressed))
		})
	}
}

func TestConcatenatedUnitsDecompressAsOneStream(t *testing.T) {
	// The container format relies on this: compressing contiguous blocks
	// independently and concatenating the units must decompress to the
	// original concatenated input.
	payload := testPayload(100_000)
	blockSize := 30_000

	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			c, err := New(typ, DefaultLevel)
			require.NoError(t, err)

			var container bytes.Buffer
			for off := 0; off < len(payload); off += blockSize {
				end := off + blockSize
				if end > len(payload) {
					end = len(payload)
				}
				unit, err := c.Compress(payload[off:end])
				require.NoError(t, err)
				container.Write(unit)
			}

			require.Equal(t, payload, decompress(t, typ, container.Bytes()))
		})
	}
}

func TestCompressIsDeterministic(t *testing.T) {
	payload := testPayload(16 * 1024)

	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			c, err := New(typ, DefaultLevel)
			require.NoError(t, err)

			a, err := c.Compress(payload)
			require.NoError(t, err)
			b, err := c.Compress(payload)
			require.NoError(t, err)
			require.Equal(t, a, b)
		})
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(Type("brotli"), DefaultLevel)
	require.Error(t, err)
}

func TestNewRejectsBadLevels(t *testing.T) {
	_, err := New(Gzip, 42)
	require.Error(t, err)

	_, err = New(Zstd, 23)
	require.Error(t, err)

	_, err = New(LZ4, 10)
	require.Error(t, err)
}

func TestIdentityCopies(t *testing.T) {
	c, err := New(Identity, DefaultLevel)
	require.NoError(t, err)

	in := []byte("unchanged")
	out, err := c.Compress(in)
	require.NoError(t, err)
	require.Equal(t, in, out)

	// The output must be an independent copy.
	out[0] = 'X'
	require.Equal(t, byte('u'), in[0])
}

func TestExtensions(t *testing.T) {
	for _, tc := range []struct {
		typ Type
		ext string
	}{
		{Gzip, ".gz"},
		{Zstd, ".zst"},
		{S2, ".s2"},
		{LZ4, ".lz4"},
	} {
		c, err := New(tc.typ, DefaultLevel)
		require.NoError(t, err)
		require.Equal(t, tc.ext, c.Extension())
		require.Equal(t, tc.typ, c.Type())
	}
}
