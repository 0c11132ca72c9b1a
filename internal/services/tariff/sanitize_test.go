package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTML_StripsTagsAndEntities(t *testing.T) {
	in := `<p>Goods of heading 84.71 &amp; parts thereof</p>`
	assert.Equal(t, "Goods of heading 84.71 & parts thereof", cleanHTML(in))
}

func TestCleanHTML_PreservesTableRows(t *testing.T) {
	in := `<table><tr><th>Code</th><th>Rate</th></tr><tr><td>8471.30.00</td><td>Free</td></tr></table>`

	out := cleanHTML(in)
	assert.Contains(t, out, "Code | Rate |")
	assert.Contains(t, out, "8471.30.00 | Free |")
}

func TestCleanHTML_MarksEmptyCells(t *testing.T) {
	in := `<tr><td>value</td><td></td></tr>`

	out := cleanHTML(in)
	assert.Contains(t, out, "[Empty]")
}

func TestCleanHTML_Empty(t *testing.T) {
	assert.Equal(t, "", cleanHTML(""))
}

func TestCleanHTML_CollapsesWhitespace(t *testing.T) {
	in := "<div>first</div>\n\n\n\n<div>second    block</div>"

	out := cleanHTML(in)
	assert.NotContains(t, out, "  ")
	assert.NotContains(t, out, "\n\n\n")
}

func TestSanitizePayload_RenamesNotes(t *testing.T) {
	payload := map[string]any{
		"code":  "8471",
		"notes": "<p>Chapter notes</p>",
		"children": []any{
			map[string]any{"description": "<b>Laptops</b>", "rate": 0.0},
		},
	}

	out, ok := sanitizePayload(payload).(map[string]any)
	assert.True(t, ok)
	assert.NotContains(t, out, "notes")
	assert.Equal(t, "Chapter notes", out["sanitized_notes"])

	children := out["children"].([]any)
	child := children[0].(map[string]any)
	assert.Equal(t, "Laptops", child["description"])
	assert.Equal(t, 0.0, child["rate"])
}
