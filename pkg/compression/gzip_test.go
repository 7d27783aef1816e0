package compression

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const soapResponse = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body><R><ResponseValue>600010</ResponseValue></R></soap:Body></soap:Envelope>`

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestCompressor_Gzip(t *testing.T) {
	compressor := NewCompressor()

	compressed := gzipBytes(t, []byte(soapResponse))

	for _, encoding := range []string{"gzip", "GZIP", " gzip ", "x-gzip"} {
		decompressed, err := compressor.Decompress(compressed, encoding)
		require.NoError(t, err, encoding)
		assert.Equal(t, soapResponse, string(decompressed))
	}
}

func TestCompressor_LargeData(t *testing.T) {
	compressor := NewCompressor()

	largeData := bytes.Repeat([]byte("<Line>test data</Line>"), 50000)

	compressed := gzipBytes(t, largeData)
	assert.Less(t, len(compressed), len(largeData)/10)

	decompressed, err := compressor.Decompress(compressed, EncodingGzip)
	require.NoError(t, err)
	assert.Equal(t, largeData, decompressed)
}

func TestCompressor_Deflate(t *testing.T) {
	compressor := NewCompressor()

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	_, err := zw.Write([]byte(soapResponse))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	out, err := compressor.Decompress(zbuf.Bytes(), EncodingDeflate)
	require.NoError(t, err)
	assert.Equal(t, soapResponse, string(out))

	var rbuf bytes.Buffer
	fw, err := flate.NewWriter(&rbuf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte(soapResponse))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	out, err = compressor.Decompress(rbuf.Bytes(), EncodingDeflate)
	require.NoError(t, err, "raw deflate without zlib header is tolerated")
	assert.Equal(t, soapResponse, string(out))
}

func TestCompressor_Identity(t *testing.T) {
	compressor := NewCompressor()

	for _, encoding := range []string{"", "identity"} {
		out, err := compressor.Decompress([]byte(soapResponse), encoding)
		require.NoError(t, err)
		assert.Equal(t, soapResponse, string(out))
	}
}

func TestCompressor_Unsupported(t *testing.T) {
	_, err := NewCompressor().Decompress([]byte("x"), "br")
	assert.Error(t, err)
}

func TestCompressor_InvalidCompressedData(t *testing.T) {
	_, err := NewCompressor().Decompress([]byte("this is not gzip compressed data"), EncodingGzip)
	assert.Error(t, err)
}

func TestCompressor_CorruptedData(t *testing.T) {
	compressor := NewCompressor()

	compressed := gzipBytes(t, []byte("test data for corruption testing with more content"))

	// Corrupt the GZIP header magic number
	corrupted := make([]byte, len(compressed))
	copy(corrupted, compressed)
	corrupted[0] = 0xFF
	corrupted[1] = 0xFF

	_, err := compressor.Decompress(corrupted, EncodingGzip)
	assert.Error(t, err)
}

func TestCompressor_MaxSize(t *testing.T) {
	compressor := NewCompressor(WithMaxSize(1024))

	bomb := gzipBytes(t, bytes.Repeat([]byte{'A'}, 4096))

	_, err := compressor.Decompress(bomb, EncodingGzip)
	assert.ErrorIs(t, err, ErrTooLarge)

	exact := gzipBytes(t, bytes.Repeat([]byte{'A'}, 1024))

	out, err := compressor.Decompress(exact, EncodingGzip)
	require.NoError(t, err)
	assert.Len(t, out, 1024)
}

func TestAcceptEncoding(t *testing.T) {
	assert.Equal(t, "gzip, deflate", AcceptEncoding)
}
