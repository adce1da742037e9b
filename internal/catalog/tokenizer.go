package catalog

import "strings"

// Tokenize splits a whole CSV document into rows of trimmed fields.
//
// The scan is a single left-to-right pass with one byte of lookahead:
//
//   - ',' ends a field unless a quoted span is open.
//   - '"' opens or closes a quoted span. Inside a span, '""' is a literal
//     quote and does not close it.
//   - '\r', '\n' and "\r\n" end a row unless a quoted span is open, in which
//     case they are field content.
//
// Rows whose fields are all empty (blank lines, ",,,") are dropped. Input is
// never rejected: an unbalanced quote simply keeps the span open until the
// next quote or the end of input, and rows keep whatever length they scanned
// to. The empty string yields no rows.
//
// All delimiters are ASCII, so scanning bytes never splits a UTF-8 sequence.
func Tokenize(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, strings.TrimSpace(field.String()))
		field.Reset()
	}
	endRow := func() {
		endField()
		if !allEmpty(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case inQuotes:
			field.WriteByte(c)
		case c == ',':
			endField()
		case c == '\r' || c == '\n':
			endRow()
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			field.WriteByte(c)
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}

// allEmpty reports whether every field in row is empty.
// Fields are stored trimmed, so no further trimming is needed.
func allEmpty(row []string) bool {
	for _, f := range row {
		if f != "" {
			return false
		}
	}
	return true
}
