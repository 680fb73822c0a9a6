package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// DefaultFiller pads pivot groups that collected fewer payload values than
// the widest group.
const DefaultFiller = "0"

// autoColumnPrefix names payload columns when no naming column is given: v0, v1, ...
const autoColumnPrefix = "v"

// ContextCheckInterval is how often (in rows) the pass checks for cancellation.
var ContextCheckInterval = 100

// Option configures a single Unfold call.
type Option func(*options) error

type options struct {
	constants []string
	namesFrom string
	hasNames  bool
	sink      Sink
	filler    string
}

// WithConstantColumns declares columns that must hold one value per pivot
// group. They are emitted after the pivot column, in the given order.
func WithConstantColumns(cols ...string) Option {
	return func(o *options) error {
		seen := NewOrderedSet()
		for i, c := range cols {
			if c == "" {
				return invalidArg("constantColumns", "entry %d is empty", i)
			}
			if !seen.Add(c) {
				return invalidArg("constantColumns", "column %q listed more than once", c)
			}
		}
		o.constants = seen.Values()
		return nil
	}
}

// WithNewColumnNamesFrom names payload columns after the distinct values of
// col, in first-seen order, instead of v0, v1, ...
func WithNewColumnNamesFrom(col string) Option {
	return func(o *options) error {
		if col == "" {
			return invalidArg("newColumnNamesFrom", "column name is empty")
		}
		o.namesFrom = col
		o.hasNames = true
		return nil
	}
}

// WithSink selects the output destination. The default is ToStream(os.Stdout).
func WithSink(s Sink) Option {
	return func(o *options) error {
		if err := s.validate(); err != nil {
			return err
		}
		o.sink = s
		return nil
	}
}

// WithFiller overrides the padding value for short pivot groups.
func WithFiller(v string) Option {
	return func(o *options) error {
		o.filler = v
		return nil
	}
}

// Result summarizes a completed unfold.
type Result struct {
	// Rows holds the table when the sink is ToSequence; nil otherwise.
	Rows *Rows

	Header       []string
	Groups       int   // output data rows, one per distinct pivot value
	PayloadWidth int   // largest number of payload values in any group
	RowsRead     int   // data rows consumed from the source
	BytesRead    int64 // for CSV sources; zero otherwise
}

// Unfold reshapes src from long to wide form. Rows are grouped by the value
// of the pivot column; each group becomes one output row holding the pivot
// value, the declared constant columns and every payload value collected
// for it, in source order.
//
// The source is read exactly once. Nothing is written to the sink unless
// the whole pass succeeds.
func Unfold(ctx context.Context, src Source, pivot, payload string, opts ...Option) (*Result, error) {
	u, err := newUnfolder(pivot, payload, opts)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, invalidArg("source", "source is nil")
	}

	if err := u.consume(ctx, src); err != nil {
		return nil, err
	}

	header, rows := u.table()
	seq, err := u.opts.sink.deliver(header, rows)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Rows:         seq,
		Header:       header,
		Groups:       len(u.groups),
		PayloadWidth: u.width,
		RowsRead:     u.rowsRead,
		BytesRead:    u.bytesRead,
	}

	slog.Debug("unfold complete",
		"pivot", pivot,
		"payload", payload,
		"sink", u.opts.sink.Kind().String(),
		"groups", res.Groups,
		"width", res.PayloadWidth,
		"rows_read", res.RowsRead,
		"bytes_read", res.BytesRead,
	)
	return res, nil
}

// pivotGroup accumulates everything known about one pivot value.
type pivotGroup struct {
	key       string
	payload   []string
	constants map[string]string
}

// unfolder is the per-call accumulator. It is never shared between calls.
type unfolder struct {
	pivot   string
	payload string
	opts    options

	header     []string
	pivotIdx   int
	payloadIdx int
	namesIdx   int
	constAt    map[int]string // header position -> declared constant column name

	groups    []*pivotGroup
	byKey     map[string]*pivotGroup
	names     *OrderedSet
	width     int
	rowsRead  int
	bytesRead int64
}

func newUnfolder(pivot, payload string, opts []Option) (*unfolder, error) {
	if pivot == "" {
		return nil, invalidArg("pivotColumn", "must name the column to unfold")
	}
	if payload == "" {
		return nil, invalidArg("payloadColumn", "must name the column holding the unfold values")
	}

	o := options{sink: ToStream(os.Stdout), filler: DefaultFiller}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	return &unfolder{
		pivot:    pivot,
		payload:  payload,
		opts:     o,
		namesIdx: -1,
		byKey:    make(map[string]*pivotGroup),
		names:    NewOrderedSet(),
	}, nil
}

// consume opens the source, resolves the header and makes the single pass.
func (u *unfolder) consume(ctx context.Context, src Source) (err error) {
	rr, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rr.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if bc, ok := rr.(BytesCounter); ok {
			u.bytesRead = bc.BytesRead()
		}
	}()

	header, err := rr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ioFailure("read header", "", io.ErrUnexpectedEOF)
		}
		return err
	}
	if err := u.resolveHeader(header); err != nil {
		return err
	}

	for {
		if u.rowsRead%ContextCheckInterval == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return fmt.Errorf("unfold cancelled at line %d: %w", u.rowsRead+1, cerr)
			}
		}

		row, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		u.rowsRead++
		if err := u.addRow(row, u.rowsRead+1); err != nil {
			return err
		}
	}
}

func (u *unfolder) resolveHeader(header []string) error {
	u.header = append([]string(nil), header...)

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	lookup := func(role, name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return -1, &UnknownColumnError{Role: role, Column: name, Header: u.header}
		}
		return i, nil
	}

	var err error
	if u.opts.hasNames {
		if u.namesIdx, err = lookup("naming", u.opts.namesFrom); err != nil {
			return err
		}
	}
	if u.pivotIdx, err = lookup("pivot", u.pivot); err != nil {
		return err
	}
	if u.payloadIdx, err = lookup("payload", u.payload); err != nil {
		return err
	}

	declared := NewOrderedSet(u.opts.constants...)
	for _, c := range u.opts.constants {
		if _, err := lookup("constant", c); err != nil {
			return err
		}
	}
	u.constAt = make(map[int]string)
	for i, name := range header {
		if declared.Contains(name) {
			u.constAt[i] = name
		}
	}
	return nil
}

func (u *unfolder) addRow(row []string, line int) error {
	if len(row) > len(u.header) {
		return &RowHeaderMismatchError{Line: line, Fields: len(row), HeaderLen: len(u.header)}
	}
	if err := u.requireField(row, u.pivotIdx, line); err != nil {
		return err
	}
	if err := u.requireField(row, u.payloadIdx, line); err != nil {
		return err
	}
	if u.namesIdx >= 0 {
		if err := u.requireField(row, u.namesIdx, line); err != nil {
			return err
		}
	}

	key := row[u.pivotIdx]
	g, ok := u.byKey[key]
	if !ok {
		g = &pivotGroup{key: key, constants: make(map[string]string, len(u.opts.constants))}
		u.byKey[key] = g
		u.groups = append(u.groups, g)
	}
	g.payload = append(g.payload, row[u.payloadIdx])
	if len(g.payload) > u.width {
		u.width = len(g.payload)
	}

	for pos, value := range row {
		col, isConst := u.constAt[pos]
		if !isConst {
			continue
		}
		recorded, seen := g.constants[col]
		if !seen {
			g.constants[col] = value
			continue
		}
		if recorded != value {
			return &InconsistentConstantError{
				Column:     col,
				PivotValue: key,
				Recorded:   recorded,
				Found:      value,
				Line:       line,
			}
		}
	}

	if u.namesIdx >= 0 {
		u.names.Add(row[u.namesIdx])
	}
	return nil
}

func (u *unfolder) requireField(row []string, idx, line int) error {
	if idx < len(row) {
		return nil
	}
	return &RowHeaderMismatchError{
		Line:      line,
		Fields:    len(row),
		HeaderLen: len(u.header),
		Column:    u.header[idx],
	}
}

// table builds the output header and one row per pivot group, in
// first-seen order.
func (u *unfolder) table() ([]string, [][]string) {
	header := make([]string, 0, 1+len(u.opts.constants)+u.width)
	header = append(header, u.pivot)
	header = append(header, u.opts.constants...)
	if u.opts.hasNames {
		header = append(header, u.names.Values()...)
	} else {
		for i := 0; i < u.width; i++ {
			header = append(header, autoColumnPrefix+strconv.Itoa(i))
		}
	}

	rows := make([][]string, 0, len(u.groups))
	for _, g := range u.groups {
		row := make([]string, 0, 1+len(u.opts.constants)+u.width)
		row = append(row, g.key)
		for _, c := range u.opts.constants {
			// A group whose rows were all too short to reach c has no
			// recorded value; it is emitted empty.
			row = append(row, g.constants[c])
		}
		row = append(row, g.payload...)
		for i := len(g.payload); i < u.width; i++ {
			row = append(row, u.opts.filler)
		}
		rows = append(rows, row)
	}
	return header, rows
}
