package core

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
)

// SinkKind identifies where an unfold result is delivered.
type SinkKind int

const (
	SinkSequence SinkKind = iota // returned to the caller as Rows
	SinkStream                   // written as CSV to a caller-owned writer
	SinkPath                     // written as CSV to a file, truncating it
)

func (k SinkKind) String() string {
	switch k {
	case SinkSequence:
		return "sequence"
	case SinkStream:
		return "stream"
	case SinkPath:
		return "path"
	default:
		return "unknown"
	}
}

// Sink is the output destination of an unfold call. Build one with
// ToSequence, ToStream or ToPath; each case carries only what it needs.
type Sink struct {
	kind SinkKind
	w    io.Writer
	path string
}

// ToSequence returns the result in memory as a one-shot Rows cursor.
func ToSequence() Sink {
	return Sink{kind: SinkSequence}
}

// ToStream writes the result as CSV to w. The writer is flushed but not closed.
func ToStream(w io.Writer) Sink {
	return Sink{kind: SinkStream, w: w}
}

// ToPath writes the result as CSV to the file at path, creating or
// truncating it. The file is closed before Unfold returns.
func ToPath(path string) Sink {
	return Sink{kind: SinkPath, path: path}
}

// Kind reports which case the sink is.
func (s Sink) Kind() SinkKind { return s.kind }

func (s Sink) validate() error {
	switch s.kind {
	case SinkSequence:
		return nil
	case SinkStream:
		if s.w == nil {
			return invalidArg("sink", "stream writer is nil")
		}
	case SinkPath:
		if s.path == "" {
			return invalidArg("sink", "output path is empty")
		}
	default:
		return invalidArg("sink", "unknown sink kind %d", int(s.kind))
	}
	return nil
}

// deliver hands the finished table to the sink. For the sequence case the
// returned Rows is non-nil; for the others it is nil.
func (s Sink) deliver(header []string, rows [][]string) (*Rows, error) {
	switch s.kind {
	case SinkSequence:
		return newRows(header, rows), nil
	case SinkStream:
		return nil, WriteCSV(s.w, header, rows)
	case SinkPath:
		return nil, writeCSVFile(s.path, header, rows)
	}
	return nil, invalidArg("sink", "unknown sink kind %d", int(s.kind))
}

// WriteCSV writes header and rows to w with comma delimiters, standard
// quoting and CRLF record terminators, then flushes.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = ','
	cw.UseCRLF = true

	if err := cw.Write(header); err != nil {
		return ioFailure("write", "", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			cw.Flush()
			return ioFailure("write", "", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return ioFailure("flush", "", err)
	}
	return nil
}

func writeCSVFile(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return ioFailure("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ioFailure("close", path, cerr)
		}
	}()

	if err := WriteCSV(f, header, rows); err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			ioErr.Path = path
		}
		return err
	}
	return nil
}
