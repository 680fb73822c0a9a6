package core

// streaming.go provides the io.Reader wrappers applied to CSV input before
// it reaches encoding/csv:
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) so the
//     first header name matches what the caller typed
//   - CountingReader: tracks bytes consumed for the completion log record
//
// Field bytes are otherwise passed through untouched; values are opaque.

import (
	"bufio"
	"bytes"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader. The BOM check happens lazily on the first call.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// WrapForStreaming strips a BOM and counts the bytes that remain.
// BOM removal must happen first so the count reflects CSV payload only.
func WrapForStreaming(r io.Reader) *CountingReader {
	return NewCountingReader(NewBOMSkippingReader(r))
}
