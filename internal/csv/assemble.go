package csv

import "strings"

// Sentinel marker row format. A row whose first field (trimmed) starts with
// MarkerPrefix and ends with MarkerSuffix titles a new table within a
// multi-table file. The colon is the full-width '：'; the exact bytes matter
// for round-trip compatibility with previously exported files.
const (
	MarkerPrefix = ">>> 表格："
	MarkerSuffix = "<<<"
)

// Table is one assembled table: a title, ordered column headers, and data
// rows aligned positionally with the headers. Rows are not rectangularized
// on import; a short row stays short until an edit operation pads it.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Assemble interprets parsed rows as either a single table or a multi-table
// bundle. fallbackTitle (typically the import filename without extension)
// names the table when the input carries no sentinel marker.
//
// Assemble never fails. Empty input yields zero tables; a marker row with
// no following header row yields a table with an empty column list. The
// caller decides whether an empty result is actionable.
func Assemble(rows [][]string, fallbackTitle string) []Table {
	if len(rows) == 0 {
		return nil
	}

	if hasMarker(rows) {
		return assembleBundle(rows)
	}
	return assembleSingle(rows, fallbackTitle)
}

// hasMarker reports whether any row's first field starts a sentinel marker.
func hasMarker(rows [][]string) bool {
	for _, row := range rows {
		if len(row) > 0 && strings.HasPrefix(strings.TrimSpace(row[0]), MarkerPrefix) {
			return true
		}
	}
	return false
}

// assembleSingle treats row 0 as headers and the remainder as data,
// dropping fully blank rows.
func assembleSingle(rows [][]string, title string) []Table {
	t := Table{
		Title:   title,
		Columns: trimFields(rows[0]),
	}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	backfill(&t)
	return []Table{t}
}

// assembleBundle walks rows in order, opening a new table at each marker
// row. Rows before the first marker are ignored. Within a table, blank
// rows are skipped, the first non-blank row becomes the headers (trimmed
// per field) and later non-blank rows are appended verbatim.
func assembleBundle(rows [][]string) []Table {
	var tables []Table
	var active *Table

	for _, row := range rows {
		if title, ok := markerTitle(row); ok {
			tables = append(tables, Table{Title: title})
			active = &tables[len(tables)-1]
			continue
		}
		if active == nil || isBlankRow(row) {
			continue
		}
		if active.Columns == nil {
			active.Columns = trimFields(row)
			continue
		}
		active.Rows = append(active.Rows, row)
	}

	for i := range tables {
		backfill(&tables[i])
	}
	return tables
}

// markerTitle extracts the title from a sentinel marker row.
// The row must both start with the prefix and end with the suffix;
// a prefix-only row is data, not a boundary.
func markerTitle(row []string) (string, bool) {
	if len(row) == 0 {
		return "", false
	}
	first := strings.TrimSpace(row[0])
	if !strings.HasPrefix(first, MarkerPrefix) || !strings.HasSuffix(first, MarkerSuffix) {
		return "", false
	}
	title := strings.TrimPrefix(first, MarkerPrefix)
	title = strings.TrimSuffix(title, MarkerSuffix)
	return strings.TrimSpace(title), true
}

// backfill guarantees a table is never rowless: a table with zero data rows
// gets one synthetic row of empty strings sized to its column count.
func backfill(t *Table) {
	if len(t.Rows) > 0 {
		return
	}
	t.Rows = [][]string{make([]string, len(t.Columns))}
}
