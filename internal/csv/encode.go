package csv

import "strings"

// bom is the UTF-8 byte-order mark prepended to every export so spreadsheet
// tools detect the encoding correctly.
const bom = "\uFEFF"

// EncodeTable renders a single table as CSV text: header row first, then
// data rows, BOM-prefixed. Every field is quoted unconditionally with
// internal quotes doubled; stricter than necessary, but always re-readable
// by Parse.
func EncodeTable(t Table) []byte {
	var b strings.Builder
	b.WriteString(bom)
	writeTable(&b, t)
	return []byte(b.String())
}

// EncodeTables renders a multi-table bundle. Each table is preceded by its
// sentinel title row (the lone quoted field of that row), and tables are
// separated by two blank lines for readability. The output is exactly what
// Assemble's multi-table mode detects, so export and import round-trip.
func EncodeTables(tables []Table) []byte {
	var b strings.Builder
	b.WriteString(bom)
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n\n\n")
		}
		writeRow(&b, []string{MarkerPrefix + t.Title + " " + MarkerSuffix})
		b.WriteString("\n")
		writeTable(&b, t)
	}
	return []byte(b.String())
}

func writeTable(b *strings.Builder, t Table) {
	writeRow(b, t.Columns)
	for _, row := range t.Rows {
		b.WriteString("\n")
		writeRow(b, row)
	}
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}
