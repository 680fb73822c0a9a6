package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("userId,question")...),
			expected: "userId,question",
		},
		{
			name:     "file without BOM",
			input:    []byte("userId,question"),
			expected: "userId,question",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
		{
			name:     "shorter than BOM",
			input:    []byte("a"),
			expected: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestBOMSkippingReader_OneByteReads(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("k,v\r\na,1\r\n")...)
	reader := NewBOMSkippingReader(iotest.OneByteReader(bytes.NewReader(input)))
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "k,v\r\na,1\r\n" {
		t.Errorf("got %q", string(result))
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	reader := NewCountingReader(strings.NewReader(input))

	buf := make([]byte, 100)
	totalRead := 0
	for {
		n, err := reader.Read(buf)
		totalRead += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if totalRead != len(input) {
		t.Errorf("total read = %d, want %d", totalRead, len(input))
	}
	if reader.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", reader.BytesRead, len(input))
	}
}

func TestWrapForStreaming(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	reader := WrapForStreaming(bytes.NewReader(input))

	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "hello" {
		t.Errorf("got %q, want %q", string(result), "hello")
	}
	if reader.BytesRead != 5 {
		t.Errorf("BytesRead = %d, want 5", reader.BytesRead)
	}
}
