// Package core provides the business logic for the table workspace editor.
// This package has no HTTP or storage-driver dependencies and can be used
// by any frontend.
package core

import (
	"strconv"

	"github.com/google/uuid"
)

// Table is a named grid of cells. Columns are order-significant header
// strings and every row is positionally aligned with them. Structural edit
// operations keep rows padded to the column count; imported rows may be
// shorter until the first edit touches them.
type Table struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Page is a named, ordered collection of tables. It is the unit a user
// switches between in the UI.
type Page struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tables []Table `json:"tables"`
}

// Workspace is the top-level persisted document: all pages plus which one
// is active. The whole value is serialized as one JSON document.
type Workspace struct {
	Pages        []Page `json:"pages"`
	ActivePageID string `json:"activePageId,omitempty"`
}

// NewID returns a fresh opaque identifier for pages and tables.
func NewID() string {
	return uuid.NewString()
}

// NewTable creates a table with the given title and a cols x rows grid of
// empty cells under generated column headers.
func NewTable(title string, cols, rows int) Table {
	t := Table{
		ID:      NewID(),
		Title:   title,
		Columns: make([]string, cols),
		Rows:    make([][]string, rows),
	}
	for i := range t.Columns {
		t.Columns[i] = "Column " + strconv.Itoa(i+1)
	}
	for i := range t.Rows {
		t.Rows[i] = make([]string, cols)
	}
	return t
}

// DefaultTable is the table every new page starts with.
func DefaultTable() Table {
	return NewTable("Untitled Table", 3, 3)
}

// NewPage creates a page containing one default table.
func NewPage(name string) Page {
	return Page{
		ID:     NewID(),
		Name:   name,
		Tables: []Table{DefaultTable()},
	}
}

// DefaultWorkspace is the state used when nothing has been persisted yet,
// or when the persisted document cannot be read.
func DefaultWorkspace() Workspace {
	page := NewPage("Page 1")
	return Workspace{
		Pages:        []Page{page},
		ActivePageID: page.ID,
	}
}

// Clone returns a deep copy of the table. Edit operations work on clones so
// a table value handed out earlier is never mutated behind the caller's
// back (the duplicate-table action relies on this).
func (t Table) Clone() Table {
	out := t
	out.Columns = append([]string(nil), t.Columns...)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// Clone returns a deep copy of the page and everything in it.
func (p Page) Clone() Page {
	out := p
	out.Tables = make([]Table, len(p.Tables))
	for i, t := range p.Tables {
		out.Tables[i] = t.Clone()
	}
	return out
}

// Clone returns a deep copy of the whole workspace.
func (w Workspace) Clone() Workspace {
	out := w
	out.Pages = make([]Page, len(w.Pages))
	for i, p := range w.Pages {
		out.Pages[i] = p.Clone()
	}
	return out
}
