// Package csv implements the table import/export text format.
//
// The format is comma-delimited with double-quote quoting, but it is not
// strict RFC 4180: the parser is a single quote-toggle state machine that
// accepts any input, including hand-authored irregular files. A quote
// character anywhere outside quote mode opens it, even mid-field. This
// asymmetry is load-bearing: exported files must re-import byte-for-byte,
// and user-supplied files must never fail to parse.
//
// Multiple tables can share one file. A table boundary is a sentinel row
// whose first field is ">>> 表格：<title> <<<"; see Assemble.
package csv

import "strings"

// Parse converts raw text into rows of fields.
//
// Outside quote mode a '"' opens it, ',' ends the field and '\n' (or
// "\r\n") ends the row. Inside quote mode a doubled '""' unescapes to one
// literal quote, a lone '"' closes the mode, and every other character --
// including commas and newlines -- is taken literally. That is what allows
// multi-line cell content.
//
// Parse is total: it cannot fail, every byte of input is consumed.
// A trailing fragment is flushed as a final row only if it holds any
// accumulated field text or the current row already has fields; a fully
// empty tail produces no phantom row.
func Parse(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			if c != '"' {
				field.WriteByte(c)
				continue
			}
			if i+1 < len(text) && text[i+1] == '"' {
				// Escaped quote: emit one literal '"', stay in quote mode.
				field.WriteByte('"')
				i++
			} else {
				inQuotes = false
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			endField()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				// CRLF: the \r is consumed without emission, \n handled next.
				continue
			}
			field.WriteByte(c)
		case '\n':
			endRow()
		default:
			field.WriteByte(c)
		}
	}

	// Flush an in-progress final row; a completely empty tail is dropped.
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}

// isBlankRow reports whether every field is empty after trimming.
// Blank rows are visual separators on export and are dropped on import.
func isBlankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// trimFields returns a copy of row with every field whitespace-trimmed.
func trimFields(row []string) []string {
	out := make([]string, len(row))
	for i, f := range row {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
