// Package templates renders the HTML fragments of the unfold server as
// templ components. Every value is escaped; cells come from user uploads.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// ResultTable renders an unfolded table with its header row.
func ResultTable(id string, header []string, rows [][]string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.str(`<div class="unfold-result" data-unfold-id="`)
		ew.esc(id)
		ew.str(`"><p class="summary">`)
		ew.str(strconv.Itoa(len(rows)))
		ew.str(` rows, `)
		ew.str(strconv.Itoa(len(header)))
		ew.str(` columns</p><table><thead><tr>`)
		for _, h := range header {
			ew.str(`<th>`)
			ew.esc(h)
			ew.str(`</th>`)
		}
		ew.str(`</tr></thead><tbody>`)
		for _, row := range rows {
			ew.str(`<tr>`)
			for _, cell := range row {
				ew.str(`<td>`)
				ew.esc(cell)
				ew.str(`</td>`)
			}
			ew.str(`</tr>`)
		}
		ew.str(`</tbody></table></div>`)
		return ew.err
	})
}

// ErrorAlert renders a failure with its support code and suggested action.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.str(`<div class="alert alert-error" role="alert"><strong>`)
		ew.esc(message)
		ew.str(`</strong>`)
		if action != "" {
			ew.str(`<p>`)
			ew.esc(action)
			ew.str(`</p>`)
		}
		ew.str(`<small>Code: `)
		ew.esc(code)
		ew.str(`</small></div>`)
		return ew.err
	})
}

// errWriter stops writing after the first failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) str(s string) {
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
}

func (e *errWriter) esc(s string) {
	e.str(templ.EscapeString(s))
}
