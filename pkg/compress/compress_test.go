// pkg/compress/compress_test.go

package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCompress(t *testing.T, c Compressor) {
	src := bytes.Repeat([]byte("elevation 1234.5 "), 512)
	dst := make([]byte, c.CompressBound(len(src)))
	n, err := c.Compress(dst, src)
	require.NoError(t, err, c.Name())

	raw := make([]byte, len(src))
	m, err := c.Decompress(raw, dst[:n])
	require.NoError(t, err, c.Name())
	assert.Equal(t, len(src), m)
	assert.Equal(t, src, raw)
}

func TestCompressors(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		t.Run(name, func(t *testing.T) {
			c := NewCompressor(name)
			require.NotNil(t, c)
			testCompress(t, c)
		})
	}
}

func TestUnknownCompressor(t *testing.T) {
	assert.Nil(t, NewCompressor("brotli"))
}

func TestNoOpShortBuffer(t *testing.T) {
	_, err := NewCompressor("none").Compress(make([]byte, 2), []byte("abc"))
	assert.Error(t, err)
}
