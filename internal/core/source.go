package core

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
)

// RowReader yields the records of an opened source: the header first, then
// data rows. Read returns io.EOF after the last record. Close releases any
// handle the source opened and must be called on every exit path.
type RowReader interface {
	Read() ([]string, error)
	Close() error
}

// Source is a tabular input whose first record is the column header.
type Source interface {
	Open(ctx context.Context) (RowReader, error)
}

// BytesCounter is implemented by readers that know how much input they consumed.
type BytesCounter interface {
	BytesRead() int64
}

// FromPath reads comma-separated records from the file at path.
func FromPath(path string) Source {
	return pathSource{path: path}
}

// FromReader reads comma-separated records from r. The reader is not closed.
func FromReader(r io.Reader) Source {
	return readerSource{r: r}
}

// FromRows serves an in-memory table. rows[0] is the header.
func FromRows(rows [][]string) Source {
	return rowsSource{rows: rows}
}

type pathSource struct {
	path string
}

func (s pathSource) Open(ctx context.Context) (RowReader, error) {
	if s.path == "" {
		return nil, invalidArg("source", "path is empty")
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, ioFailure("open", s.path, err)
	}
	return newCSVReader(f, f, s.path), nil
}

type readerSource struct {
	r io.Reader
}

func (s readerSource) Open(ctx context.Context) (RowReader, error) {
	if s.r == nil {
		return nil, invalidArg("source", "reader is nil")
	}
	return newCSVReader(s.r, nil, ""), nil
}

// csvReader adapts encoding/csv to RowReader.
type csvReader struct {
	counter *CountingReader
	reader  *csv.Reader
	closer  io.Closer
	path    string
}

func newCSVReader(r io.Reader, closer io.Closer, path string) *csvReader {
	counter := WrapForStreaming(r)
	reader := csv.NewReader(counter)
	reader.Comma = ','
	// Row length is checked against the header by the unfolder, which
	// reports it as a row/header mismatch rather than a parse error.
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false
	return &csvReader{counter: counter, reader: reader, closer: closer, path: path}
}

func (c *csvReader) Read() ([]string, error) {
	rec, err := c.reader.Read()
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return nil, ioFailure("read", c.path, err)
}

func (c *csvReader) Close() error {
	if c.closer == nil {
		return nil
	}
	if err := c.closer.Close(); err != nil {
		return ioFailure("close", c.path, err)
	}
	return nil
}

func (c *csvReader) BytesRead() int64 {
	return c.counter.BytesRead
}

type rowsSource struct {
	rows [][]string
}

func (s rowsSource) Open(ctx context.Context) (RowReader, error) {
	return &sliceReader{rows: s.rows}, nil
}

type sliceReader struct {
	rows [][]string
	pos  int
}

func (r *sliceReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *sliceReader) Close() error { return nil }
