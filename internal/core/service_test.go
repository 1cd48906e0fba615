package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gridnote/gridnote/internal/config"
	"github.com/gridnote/gridnote/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Import: config.ImportConfig{
			MaxFileSize:      1 << 20,
			MaxTablesPerPage: 5,
		},
	}
}

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewService(mem, testConfig(), nil), mem
}

// firstPage returns the single page of a fresh default workspace.
func firstPage(t *testing.T, s *Service) Page {
	t.Helper()
	ws := s.Workspace(context.Background())
	if len(ws.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(ws.Pages))
	}
	return ws.Pages[0]
}

func TestWorkspaceDefaults(t *testing.T) {
	s, _ := newTestService(t)
	ws := s.Workspace(context.Background())

	if len(ws.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(ws.Pages))
	}
	p := ws.Pages[0]
	if p.Name != "Page 1" {
		t.Errorf("page name = %q, want %q", p.Name, "Page 1")
	}
	if ws.ActivePageID != p.ID {
		t.Errorf("active page = %q, want %q", ws.ActivePageID, p.ID)
	}
	if len(p.Tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(p.Tables))
	}
	tab := p.Tables[0]
	if tab.Title != "Untitled Table" || len(tab.Columns) != 3 || len(tab.Rows) != 3 {
		t.Errorf("default table = %+v", tab)
	}
}

func TestWorkspaceCorruptStateFallsBack(t *testing.T) {
	ctx := context.Background()
	mem := store.Seed([]byte(`{"pages": not json`))
	s := NewService(mem, testConfig(), nil)

	ws := s.Workspace(ctx)
	if len(ws.Pages) != 1 || ws.Pages[0].Name != "Page 1" {
		t.Errorf("corrupt state did not fall back to default: %+v", ws)
	}

	// The reset is persisted, so the IDs just handed out keep working.
	if _, err := s.GetPage(ctx, ws.Pages[0].ID); err != nil {
		t.Errorf("GetPage on fallback page: %v", err)
	}
	doc, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reset: %v", err)
	}
	var saved Workspace
	if err := json.Unmarshal(doc, &saved); err != nil {
		t.Fatalf("persisted reset is not valid JSON: %v", err)
	}
	if saved.Pages[0].ID != ws.Pages[0].ID {
		t.Errorf("persisted page ID = %q, want %q", saved.Pages[0].ID, ws.Pages[0].ID)
	}
}

func TestDefaultWorkspaceIDsAreStable(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestService(t)

	first := firstPage(t, s)
	again := firstPage(t, s)
	if first.ID != again.ID {
		t.Fatalf("default page ID changed between reads: %q then %q", first.ID, again.ID)
	}
	if first.Tables[0].ID != again.Tables[0].ID {
		t.Errorf("default table ID changed between reads")
	}

	// Operating on an ID read from the default workspace must work.
	if _, err := s.CreateTable(ctx, first.ID, "Follow-up"); err != nil {
		t.Errorf("CreateTable on default page: %v", err)
	}

	// The synthesized default was saved on first load.
	if _, err := mem.Load(ctx); err != nil {
		t.Errorf("default workspace was not persisted: %v", err)
	}
}

func TestWorkspacePersistsAcrossServices(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s1 := NewService(mem, testConfig(), nil)

	page, err := s1.CreatePage(ctx, "Budget")
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	// A second service over the same store sees the saved document.
	s2 := NewService(mem, testConfig(), nil)
	got, err := s2.GetPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetPage after reload: %v", err)
	}
	if got.Name != "Budget" {
		t.Errorf("page name = %q, want %q", got.Name, "Budget")
	}
}

func TestPageCRUD(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	created, err := s.CreatePage(ctx, "")
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if created.Name != "Page 2" {
		t.Errorf("default name = %q, want %q", created.Name, "Page 2")
	}

	pages := s.ListPages(ctx)
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if !pages[1].Active {
		t.Error("newly created page should be active")
	}

	if _, err := s.RenamePage(ctx, created.ID, "Notes"); err != nil {
		t.Fatalf("RenamePage: %v", err)
	}
	got, err := s.GetPage(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if got.Name != "Notes" {
		t.Errorf("name = %q, want %q", got.Name, "Notes")
	}

	if err := s.DeletePage(ctx, created.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if _, err := s.GetPage(ctx, created.ID); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("GetPage after delete = %v, want ErrPageNotFound", err)
	}

	if _, err := s.RenamePage(ctx, "missing", "x"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("RenamePage(missing) = %v, want ErrPageNotFound", err)
	}
}

func TestDeleteLastPageLeavesFreshOne(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	if err := s.DeletePage(ctx, p.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}

	ws := s.Workspace(ctx)
	if len(ws.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(ws.Pages))
	}
	if ws.Pages[0].ID == p.ID {
		t.Error("page was not replaced")
	}
	if ws.ActivePageID != ws.Pages[0].ID {
		t.Error("active page not pointed at the fresh page")
	}
}

func TestSetActivePage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	second, _ := s.CreatePage(ctx, "Two")
	if err := s.SetActivePage(ctx, p.ID); err != nil {
		t.Fatalf("SetActivePage: %v", err)
	}
	if ws := s.Workspace(ctx); ws.ActivePageID != p.ID {
		t.Errorf("active = %q, want %q", ws.ActivePageID, p.ID)
	}
	_ = second

	if err := s.SetActivePage(ctx, "missing"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("SetActivePage(missing) = %v, want ErrPageNotFound", err)
	}
}

func TestTableCRUD(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	created, err := s.CreateTable(ctx, p.ID, "Tasks")
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if created.Title != "Tasks" {
		t.Errorf("title = %q, want %q", created.Title, "Tasks")
	}

	if _, err := s.RenameTable(ctx, p.ID, created.ID, "Chores"); err != nil {
		t.Fatalf("RenameTable: %v", err)
	}
	got, err := s.GetTable(ctx, p.ID, created.ID)
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if got.Title != "Chores" {
		t.Errorf("title = %q, want %q", got.Title, "Chores")
	}

	dup, err := s.DuplicateTable(ctx, p.ID, created.ID)
	if err != nil {
		t.Fatalf("DuplicateTable: %v", err)
	}
	if dup.ID == created.ID || dup.Title != "Chores (copy)" {
		t.Errorf("duplicate = %+v", dup)
	}
	// Copy sits right after the original.
	page, _ := s.GetPage(ctx, p.ID)
	if page.Tables[2].ID != dup.ID {
		t.Errorf("duplicate not adjacent to original: %v", tableIDs(page))
	}

	if err := s.DeleteTable(ctx, p.ID, dup.ID); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if _, err := s.GetTable(ctx, p.ID, dup.ID); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("GetTable after delete = %v, want ErrTableNotFound", err)
	}
}

func tableIDs(p Page) []string {
	ids := make([]string, len(p.Tables))
	for i, t := range p.Tables {
		ids[i] = t.ID
	}
	return ids
}

func TestCreateTableRespectsPageLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	// Default page already holds one table; limit is 5.
	for i := 0; i < 4; i++ {
		if _, err := s.CreateTable(ctx, p.ID, ""); err != nil {
			t.Fatalf("CreateTable %d: %v", i, err)
		}
	}
	if _, err := s.CreateTable(ctx, p.ID, ""); !errors.Is(err, ErrPageFull) {
		t.Errorf("CreateTable over limit = %v, want ErrPageFull", err)
	}
}

func TestEditOperationsPersist(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)
	tab := p.Tables[0]

	if _, err := s.UpdateCell(ctx, p.ID, tab.ID, 0, 0, "hello"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	if _, err := s.UpdateHeader(ctx, p.ID, tab.ID, 1, "Amount"); err != nil {
		t.Fatalf("UpdateHeader: %v", err)
	}
	if _, err := s.InsertRow(ctx, p.ID, tab.ID, 0); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	if _, err := s.InsertColumn(ctx, p.ID, tab.ID, 0); err != nil {
		t.Fatalf("InsertColumn: %v", err)
	}

	got, err := s.GetTable(ctx, p.ID, tab.ID)
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if got.Rows[1][1] != "hello" {
		t.Errorf("cell = %q, want %q (rows=%v)", got.Rows[1][1], "hello", got.Rows)
	}
	if got.Columns[2] != "Amount" {
		t.Errorf("header = %q, want %q (cols=%v)", got.Columns[2], "Amount", got.Columns)
	}
	if len(got.Rows) != 4 || len(got.Columns) != 4 {
		t.Errorf("grid = %dx%d, want 4x4", len(got.Rows), len(got.Columns))
	}

	if _, err := s.DeleteRow(ctx, p.ID, tab.ID, 0); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if _, err := s.DeleteColumn(ctx, p.ID, tab.ID, 0); err != nil {
		t.Fatalf("DeleteColumn: %v", err)
	}
	got, _ = s.GetTable(ctx, p.ID, tab.ID)
	if len(got.Rows) != 3 || len(got.Columns) != 3 {
		t.Errorf("grid after delete = %dx%d, want 3x3", len(got.Rows), len(got.Columns))
	}
}

func TestImportCSVSingleTable(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	file := "Name,Age\nAnn,30\nBob,41\n"
	res, err := s.ImportCSV(ctx, p.ID, "people.csv", strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.TablesAdded != 1 {
		t.Fatalf("TablesAdded = %d, want 1", res.TablesAdded)
	}
	if want := []string{"people"}; !reflect.DeepEqual(res.Titles, want) {
		t.Errorf("Titles = %v, want %v", res.Titles, want)
	}

	page, _ := s.GetPage(ctx, p.ID)
	imported := page.Tables[len(page.Tables)-1]
	if imported.Title != "people" {
		t.Errorf("title = %q, want %q (filename without extension)", imported.Title, "people")
	}
	if want := []string{"Name", "Age"}; !reflect.DeepEqual(imported.Columns, want) {
		t.Errorf("Columns = %v, want %v", imported.Columns, want)
	}
	if want := [][]string{{"Ann", "30"}, {"Bob", "41"}}; !reflect.DeepEqual(imported.Rows, want) {
		t.Errorf("Rows = %v, want %v", imported.Rows, want)
	}
	if imported.ID == "" {
		t.Error("imported table has no ID")
	}
}

func TestImportCSVBundle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	file := "\uFEFF\">>> 表格：First <<<\"\n\"a\",\"b\"\n\"1\",\"2\"\n\n\n\">>> 表格：Second <<<\"\n\"x\"\n\"9\"\n"
	res, err := s.ImportCSV(ctx, p.ID, "bundle.csv", strings.NewReader(file))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if want := []string{"First", "Second"}; !reflect.DeepEqual(res.Titles, want) {
		t.Errorf("Titles = %v, want %v", res.Titles, want)
	}

	page, _ := s.GetPage(ctx, p.ID)
	if len(page.Tables) != 3 {
		t.Fatalf("tables = %d, want 3", len(page.Tables))
	}
	second := page.Tables[2]
	if want := [][]string{{"9"}}; !reflect.DeepEqual(second.Rows, want) {
		t.Errorf("second table rows = %v, want %v", second.Rows, want)
	}
}

func TestImportCSVErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	t.Run("nil reader", func(t *testing.T) {
		if _, err := s.ImportCSV(ctx, p.ID, "x.csv", nil); !errors.Is(err, ErrNoFile) {
			t.Errorf("err = %v, want ErrNoFile", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		if _, err := s.ImportCSV(ctx, p.ID, "x.csv", strings.NewReader("")); !errors.Is(err, ErrEmptyImport) {
			t.Errorf("err = %v, want ErrEmptyImport", err)
		}
	})

	t.Run("file over size limit", func(t *testing.T) {
		small := NewService(store.NewMemory(), &config.Config{
			Import: config.ImportConfig{MaxFileSize: 10, MaxTablesPerPage: 5},
		}, nil)
		sp := firstPage(t, small)
		_, err := small.ImportCSV(ctx, sp.ID, "big.csv", strings.NewReader("a,b\n1,2\n3,4\n"))
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("err = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("page table limit", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			if _, err := s.CreateTable(ctx, p.ID, ""); err != nil {
				t.Fatalf("CreateTable %d: %v", i, err)
			}
		}
		_, err := s.ImportCSV(ctx, p.ID, "x.csv", strings.NewReader("a\n1\n"))
		if !errors.Is(err, ErrPageFull) {
			t.Errorf("err = %v, want ErrPageFull", err)
		}
	})

	t.Run("unknown page", func(t *testing.T) {
		if _, err := s.ImportCSV(ctx, "missing", "x.csv", strings.NewReader("a\n1\n")); !errors.Is(err, ErrPageNotFound) {
			t.Errorf("err = %v, want ErrPageNotFound", err)
		}
	})
}

// A file of only newlines still parses (three empty rows), so a single
// table with one empty header and a backfilled row is assembled. Only a
// file with zero parsed rows is rejected.
func TestImportCSVBlankOnlyFile(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	res, err := s.ImportCSV(ctx, p.ID, "blank.csv", strings.NewReader("\n\n\n"))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.TablesAdded != 1 {
		t.Fatalf("TablesAdded = %d, want 1", res.TablesAdded)
	}

	page, _ := s.GetPage(ctx, p.ID)
	got := page.Tables[len(page.Tables)-1]
	if want := []string{""}; !reflect.DeepEqual(got.Columns, want) {
		t.Errorf("Columns = %v, want %v", got.Columns, want)
	}
	if want := [][]string{{""}}; !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %v, want %v", got.Rows, want)
	}
}

func TestImportFallbackTitle(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"people.csv", "people"},
		{"dir/people.csv", "people"},
		{"archive.2024.csv", "archive.2024"},
		{"", "Imported Table"},
		{".csv", "Imported Table"},
		{"  ", "Imported Table"},
	}
	for _, tt := range tests {
		if got := fallbackTitle(tt.filename); got != tt.want {
			t.Errorf("fallbackTitle(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestExportTable(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	if _, err := s.UpdateCell(ctx, p.ID, p.Tables[0].ID, 0, 0, "v"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	f, err := s.ExportTable(ctx, p.ID, p.Tables[0].ID)
	if err != nil {
		t.Fatalf("ExportTable: %v", err)
	}
	if f.Name != "Untitled Table.csv" {
		t.Errorf("Name = %q, want %q", f.Name, "Untitled Table.csv")
	}
	if !bytes.HasPrefix(f.Data, []byte("\uFEFF")) {
		t.Error("export missing BOM")
	}
	if !bytes.Contains(f.Data, []byte(`"v"`)) {
		t.Errorf("export missing edited cell: %q", f.Data)
	}
}

func TestExportPageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	if _, err := s.CreateTable(ctx, p.ID, "Second"); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	f, err := s.ExportPage(ctx, p.ID)
	if err != nil {
		t.Fatalf("ExportPage: %v", err)
	}

	// Importing the export into a fresh page reproduces both tables.
	fresh, _ := s.CreatePage(ctx, "Reimport")
	res, err := s.ImportCSV(ctx, fresh.ID, f.Name, bytes.NewReader(f.Data))
	if err != nil {
		t.Fatalf("ImportCSV of export: %v", err)
	}
	if want := []string{"Untitled Table", "Second"}; !reflect.DeepEqual(res.Titles, want) {
		t.Errorf("round-trip titles = %v, want %v", res.Titles, want)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p := firstPage(t, s)

	if _, err := s.UpdateCell(ctx, p.ID, p.Tables[0].ID, 1, 1, "needle"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	matches, err := s.Search(ctx, p.ID, "needle")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].Row != 1 || matches[0].Col != 1 {
		t.Errorf("matches = %v", matches)
	}

	if _, err := s.Search(ctx, "missing", "x"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Search on missing page = %v, want ErrPageNotFound", err)
	}
}

type stubGenerator struct {
	values []string
	err    error
	got    GenerateRequest
}

func (g *stubGenerator) SuggestCells(_ context.Context, req GenerateRequest) ([]string, error) {
	g.got = req
	return g.values, g.err
}

func TestGenerateCells(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		s, _ := newTestService(t)
		p := firstPage(t, s)
		_, err := s.GenerateCells(ctx, p.ID, p.Tables[0].ID, 0, "fill it")
		if !errors.Is(err, ErrAIDisabled) {
			t.Errorf("err = %v, want ErrAIDisabled", err)
		}
	})

	t.Run("fills the column", func(t *testing.T) {
		gen := &stubGenerator{values: []string{"a", "b", "c"}}
		s := NewService(store.NewMemory(), testConfig(), gen)
		p := firstPage(t, s)

		got, err := s.GenerateCells(ctx, p.ID, p.Tables[0].ID, 1, "letters")
		if err != nil {
			t.Fatalf("GenerateCells: %v", err)
		}
		for i, want := range []string{"a", "b", "c"} {
			if got.Rows[i][1] != want {
				t.Errorf("row %d col 1 = %q, want %q", i, got.Rows[i][1], want)
			}
		}
		if gen.got.Count != 3 || gen.got.Column != 1 || gen.got.Instruction != "letters" {
			t.Errorf("request = %+v", gen.got)
		}
	})

	t.Run("extra values are dropped", func(t *testing.T) {
		gen := &stubGenerator{values: []string{"1", "2", "3", "4", "5"}}
		s := NewService(store.NewMemory(), testConfig(), gen)
		p := firstPage(t, s)

		got, err := s.GenerateCells(ctx, p.ID, p.Tables[0].ID, 0, "count")
		if err != nil {
			t.Fatalf("GenerateCells: %v", err)
		}
		if len(got.Rows) != 3 {
			t.Errorf("rows = %d, want 3", len(got.Rows))
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("boom")}
		s := NewService(store.NewMemory(), testConfig(), gen)
		p := firstPage(t, s)

		_, err := s.GenerateCells(ctx, p.ID, p.Tables[0].ID, 0, "x")
		if err == nil || !strings.Contains(err.Error(), "generation failed") {
			t.Errorf("err = %v, want generation failed wrapper", err)
		}
	})

	t.Run("column out of range", func(t *testing.T) {
		gen := &stubGenerator{values: []string{"a"}}
		s := NewService(store.NewMemory(), testConfig(), gen)
		p := firstPage(t, s)

		if _, err := s.GenerateCells(ctx, p.ID, p.Tables[0].ID, 7, "x"); err == nil {
			t.Error("expected error for out-of-range column")
		}
	})
}

func TestState(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	info := s.State(ctx)
	if info.Pages != 1 || info.Tables != 1 {
		t.Errorf("info = %+v, want 1 page, 1 table", info)
	}
	// The first load persists the default workspace, so SavedAt is set
	// even before any explicit edit.
	if info.SavedAt == nil {
		t.Error("SavedAt should be set once the default workspace is persisted")
	}

	p := firstPage(t, s)
	if _, err := s.CreateTable(ctx, p.ID, ""); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	info = s.State(ctx)
	if info.Tables != 2 {
		t.Errorf("tables = %d, want 2", info.Tables)
	}
	if info.SavedAt == nil {
		t.Error("SavedAt should be set after a save")
	}
}

func TestSavedDocumentShape(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestService(t)
	p := firstPage(t, s)

	if _, err := s.UpdateCell(ctx, p.ID, p.Tables[0].ID, 0, 0, "x"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	doc, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var ws Workspace
	if err := json.Unmarshal(doc, &ws); err != nil {
		t.Fatalf("saved document is not valid workspace JSON: %v", err)
	}
	if ws.Pages[0].Tables[0].Rows[0][0] != "x" {
		t.Error("edit not present in saved document")
	}
}
