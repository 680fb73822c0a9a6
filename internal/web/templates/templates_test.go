package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultTable(t *testing.T) {
	var sb strings.Builder
	err := ResultTable("id-1", []string{"question", "v0"}, [][]string{
		{"DOB", "1983"},
		{"<script>", "a&b"},
	}).Render(context.Background(), &sb)
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, `data-unfold-id="id-1"`)
	assert.Contains(t, out, "2 rows, 2 columns")
	assert.Contains(t, out, "<th>question</th><th>v0</th>")
	assert.Contains(t, out, "<td>DOB</td><td>1983</td>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "a&amp;b")
	assert.NotContains(t, out, "<script>")
}

func TestErrorAlert(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, ErrorAlert("Bad <input>", "Fix it", "COL001").Render(context.Background(), &sb))

	out := sb.String()
	assert.Contains(t, out, "Bad &lt;input&gt;")
	assert.Contains(t, out, "<p>Fix it</p>")
	assert.Contains(t, out, "Code: COL001")

	sb.Reset()
	require.NoError(t, ErrorAlert("Oops", "", "ERR000").Render(context.Background(), &sb))
	assert.NotContains(t, sb.String(), "<p>")
}
