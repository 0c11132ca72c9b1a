package tariff

import (
	"html"
	"regexp"
	"strings"
)

// Tariff API responses embed legal notes as HTML. The cleaner strips the
// markup while keeping table semantics readable as plain text, so chapter
// notes stay useful as prompt context.

var (
	reRowStart    = regexp.MustCompile(`(?i)<tr[^>]*>`)
	reRowEnd      = regexp.MustCompile(`(?i)</tr>`)
	reEmptyCell   = regexp.MustCompile(`(?i)<td[^>]*>\s*</td>`)
	reEmptyHeader = regexp.MustCompile(`(?i)<th[^>]*>\s*</th>`)
	reCellOpen    = regexp.MustCompile(`(?i)<td[^>]*>`)
	reCellClose   = regexp.MustCompile(`(?i)</td>`)
	reHeaderOpen  = regexp.MustCompile(`(?i)<th[^>]*>`)
	reHeaderClose = regexp.MustCompile(`(?i)</th>`)
	reBlockClose  = regexp.MustCompile(`(?i)</(h[1-6]|p|div)>`)
	reLineBreak   = regexp.MustCompile(`(?i)<br[^>]*/?>`)
	reAnyTag      = regexp.MustCompile(`<[^>]*>`)
	reSpaces      = regexp.MustCompile(` +`)
	reBlankLines  = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// cleanHTML strips markup from a notes string while preserving table
// structure as pipe-separated rows.
func cleanHTML(text string) string {
	if text == "" {
		return ""
	}

	t := text
	t = reRowStart.ReplaceAllString(t, "\n[ROW_START] ")
	t = reRowEnd.ReplaceAllString(t, " [ROW_END]\n")
	t = reEmptyCell.ReplaceAllString(t, " [EMPTY_CELL] ")
	t = reEmptyHeader.ReplaceAllString(t, " [EMPTY_HEADER] ")
	t = reCellOpen.ReplaceAllString(t, " [CELL] ")
	t = reCellClose.ReplaceAllString(t, " [/CELL] ")
	t = reHeaderOpen.ReplaceAllString(t, " [HEADER] ")
	t = reHeaderClose.ReplaceAllString(t, " [/HEADER] ")
	t = reBlockClose.ReplaceAllString(t, "\n")
	t = reLineBreak.ReplaceAllString(t, "\n")
	t = reAnyTag.ReplaceAllString(t, "")
	t = html.UnescapeString(t)

	t = strings.ReplaceAll(t, "[ROW_START]", "\n")
	t = strings.ReplaceAll(t, "[ROW_END]", "")
	t = strings.ReplaceAll(t, "[EMPTY_CELL]", "[Empty]")
	t = strings.ReplaceAll(t, "[EMPTY_HEADER]", "[Empty Header]")
	t = strings.ReplaceAll(t, "[CELL]", "")
	t = strings.ReplaceAll(t, "[/CELL]", " | ")
	t = strings.ReplaceAll(t, "[HEADER]", "")
	t = strings.ReplaceAll(t, "[/HEADER]", " | ")

	t = reSpaces.ReplaceAllString(t, " ")
	t = reBlankLines.ReplaceAllString(t, "\n\n")

	lines := strings.Split(t, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// sanitizePayload walks a decoded JSON payload and cleans every string
// value. "notes" keys are renamed to "sanitized_notes" after cleaning, as
// the tariff API mixes raw HTML notes into otherwise structured data.
func sanitizePayload(data any) any {
	switch v := data.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizePayload(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		if notes, ok := v["notes"].(string); ok {
			out["sanitized_notes"] = cleanHTML(notes)
		}
		for k, val := range v {
			if k == "notes" {
				continue
			}
			if s, ok := val.(string); ok {
				out[k] = cleanHTML(s)
				continue
			}
			out[k] = sanitizePayload(val)
		}
		return out
	case string:
		return cleanHTML(v)
	default:
		return data
	}
}
