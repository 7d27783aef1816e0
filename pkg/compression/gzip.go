package compression

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Content-Encoding values
const (
	EncodingGzip     = "gzip"
	EncodingDeflate  = "deflate"
	EncodingIdentity = "identity"
)

// AcceptEncoding is the Accept-Encoding header value matching what Decompress handles
const AcceptEncoding = EncodingGzip + ", " + EncodingDeflate

// DefaultMaxSize caps decompressed output
const DefaultMaxSize = 64 << 20

// ErrTooLarge is returned when decompressed data exceeds the configured limit
var ErrTooLarge = errors.New("decompressed data exceeds size limit")

// Compressor handles content encodings
type Compressor struct {
	maxSize int64
}

// Option configures a Compressor
type Option func(*Compressor)

// WithMaxSize caps decompressed output at n bytes
func WithMaxSize(n int64) Option {
	return func(c *Compressor) {
		c.maxSize = n
	}
}

// NewCompressor creates a new compressor
func NewCompressor(opts ...Option) *Compressor {
	c := &Compressor{
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decompress decodes data according to a Content-Encoding header value
func (c *Compressor) Decompress(data []byte, encoding string) ([]byte, error) {
	switch normalize(encoding) {
	case "", EncodingIdentity:
		return data, nil
	case EncodingGzip, "x-gzip":
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()
		return c.readAll(reader)
	case EncodingDeflate:
		out, err := c.inflateZlib(data)
		if err == nil || errors.Is(err, ErrTooLarge) {
			return out, err
		}
		// Some servers send raw deflate without the zlib wrapper
		raw := flate.NewReader(bytes.NewReader(data))
		defer raw.Close()
		return c.readAll(raw)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

func (c *Compressor) inflateZlib(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()
	return c.readAll(reader)
}

func (c *Compressor) readAll(r io.Reader) ([]byte, error) {
	limit := c.maxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed data: %w", err)
	}
	if n > limit {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

func normalize(encoding string) string {
	return strings.ToLower(strings.TrimSpace(encoding))
}
