package core

import "iter"

// Rows is a forward-only cursor over a finished unfold result. The first
// record is the header. It is materialized: grouping needs the whole input
// before any output row exists. Once consumed it cannot be restarted.
//
//	for res.Rows.Next() {
//	    fmt.Println(res.Rows.Row())
//	}
type Rows struct {
	records [][]string
	pos     int // index of the current record, -1 before the first Next
}

func newRows(header []string, rows [][]string) *Rows {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	records = append(records, rows...)
	return &Rows{records: records, pos: -1}
}

// Next advances to the next record. It returns false when the cursor is exhausted.
func (r *Rows) Next() bool {
	if r.pos+1 >= len(r.records) {
		r.pos = len(r.records)
		return false
	}
	r.pos++
	return true
}

// Row returns the current record, or nil before the first Next and after the last.
func (r *Rows) Row() []string {
	if r.pos < 0 || r.pos >= len(r.records) {
		return nil
	}
	return r.records[r.pos]
}

// Remaining reports how many records Next has yet to yield.
func (r *Rows) Remaining() int {
	n := len(r.records) - r.pos - 1
	if n < 0 {
		return 0
	}
	return n
}

// All yields the remaining records, advancing the cursor as it goes.
func (r *Rows) All() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for r.Next() {
			if !yield(r.Row()) {
				return
			}
		}
	}
}

// Collect drains the cursor into a slice.
func (r *Rows) Collect() [][]string {
	out := make([][]string, 0, r.Remaining())
	for row := range r.All() {
		out = append(out, row)
	}
	return out
}
