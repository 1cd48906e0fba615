package core

// ops.go implements table edit operations. Every operation returns a new
// table value instead of mutating the receiver, matching the
// replace-whole-structure-on-every-edit model the UI follows; stale
// references to the old value stay valid.
//
// Structural column edits re-establish the rectangularity invariant by
// padding short rows. Imported rows are deliberately left non-rectangular
// until an edit touches the table; padding is an edit-time invariant, not
// an import-time one.

// Rename returns the table with a new title.
func (t Table) Rename(title string) Table {
	out := t.Clone()
	out.Title = title
	return out
}

// SetCell returns the table with the cell at (row, col) set to value.
// A row or column index outside the table leaves it unchanged. The target
// row is padded to the column count first, so setting a cell in a short
// imported row works.
func (t Table) SetCell(row, col int, value string) Table {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Columns) {
		return t
	}
	out := t.Clone()
	out.Rows[row] = padRow(out.Rows[row], len(out.Columns))
	out.Rows[row][col] = value
	return out
}

// SetHeader returns the table with the header at col set to value.
func (t Table) SetHeader(col int, value string) Table {
	if col < 0 || col >= len(t.Columns) {
		return t
	}
	out := t.Clone()
	out.Columns[col] = value
	return out
}

// InsertRow returns the table with an empty row inserted at the given
// index. An index at or beyond the end appends.
func (t Table) InsertRow(at int) Table {
	out := t.Clone()
	if at < 0 {
		at = 0
	}
	if at > len(out.Rows) {
		at = len(out.Rows)
	}
	row := make([]string, len(out.Columns))
	out.Rows = append(out.Rows[:at], append([][]string{row}, out.Rows[at:]...)...)
	return out
}

// DeleteRow returns the table without the row at the given index. The last
// remaining row cannot be deleted; a table is never rowless.
func (t Table) DeleteRow(at int) Table {
	if at < 0 || at >= len(t.Rows) || len(t.Rows) == 1 {
		return t
	}
	out := t.Clone()
	out.Rows = append(out.Rows[:at], out.Rows[at+1:]...)
	return out
}

// InsertColumn returns the table with an empty column inserted at the given
// index. All rows are padded to the previous column count first, then get
// the new empty cell.
func (t Table) InsertColumn(at int) Table {
	out := t.Clone()
	if at < 0 {
		at = 0
	}
	if at > len(out.Columns) {
		at = len(out.Columns)
	}
	out.Columns = append(out.Columns[:at], append([]string{""}, out.Columns[at:]...)...)
	for i, row := range out.Rows {
		row = padRow(row, len(out.Columns)-1)
		out.Rows[i] = append(row[:at], append([]string{""}, row[at:]...)...)
	}
	return out
}

// DeleteColumn returns the table without the column at the given index.
// The last remaining column cannot be deleted.
func (t Table) DeleteColumn(at int) Table {
	if at < 0 || at >= len(t.Columns) || len(t.Columns) == 1 {
		return t
	}
	out := t.Clone()
	out.Columns = append(out.Columns[:at], out.Columns[at+1:]...)
	for i, row := range out.Rows {
		row = padRow(row, len(out.Columns)+1)
		out.Rows[i] = append(row[:at], row[at+1:]...)
	}
	return out
}

// Duplicate returns a deep copy of the table under a fresh identifier.
func (t Table) Duplicate() Table {
	out := t.Clone()
	out.ID = NewID()
	out.Title = t.Title + " (copy)"
	return out
}

// padRow extends row with empty strings up to width. Rows longer than
// width are returned as-is.
func padRow(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
