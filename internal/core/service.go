package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gridnote/gridnote/internal/config"
	"github.com/gridnote/gridnote/internal/csv"
	"github.com/gridnote/gridnote/internal/logging"
	"github.com/gridnote/gridnote/internal/store"
)

// CellGenerator produces suggested cell values for one column of a table.
// Implemented by the ai package; nil means generation is disabled.
type CellGenerator interface {
	SuggestCells(ctx context.Context, req GenerateRequest) ([]string, error)
}

// GenerateRequest carries the table context handed to the generator.
type GenerateRequest struct {
	TableTitle  string
	Columns     []string
	Rows        [][]string
	Column      int    // target column index
	Instruction string // user's description of what the column should hold
	Count       int    // number of values wanted, one per row
}

// Service is the entry point for all workspace operations. Every mutation
// is a load-modify-save of the whole workspace document under an internal
// mutex, so concurrent HTTP requests cannot interleave partial edits.
type Service struct {
	mu    sync.Mutex
	store store.Store
	gen   CellGenerator

	maxFileSize      int64
	maxTablesPerPage int
}

// NewService creates a Service. gen may be nil when AI generation is not
// configured.
func NewService(st store.Store, cfg *config.Config, gen CellGenerator) *Service {
	return &Service{
		store:            st,
		gen:              gen,
		maxFileSize:      cfg.Import.MaxFileSize,
		maxTablesPerPage: cfg.Import.MaxTablesPerPage,
	}
}

// PageSummary is the list-view projection of a page.
type PageSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TableCount int    `json:"tableCount"`
	Active     bool   `json:"active"`
}

// StateInfo describes the persisted document.
type StateInfo struct {
	Pages   int        `json:"pages"`
	Tables  int        `json:"tables"`
	SavedAt *time.Time `json:"savedAt,omitempty"`
}

// ImportResult reports what an import added to a page.
type ImportResult struct {
	TablesAdded int      `json:"tablesAdded"`
	Titles      []string `json:"titles"`
}

// ExportFile is a rendered CSV download.
type ExportFile struct {
	Name string
	Data []byte
}

// load reads the workspace document, falling back to a fresh default
// workspace when nothing was saved yet or the saved JSON cannot be read.
// Corruption is absorbed here, never surfaced to the user.
//
// The fallback is persisted immediately (the caller holds s.mu), so the
// default page and table IDs handed out stay valid on the next call. A
// transient store error is the one case that does not persist: the stored
// document may still be good, so it is not overwritten.
func (s *Service) load(ctx context.Context) Workspace {
	doc, err := s.store.Load(ctx)
	switch {
	case err == nil:
		var ws Workspace
		if uerr := json.Unmarshal(doc, &ws); uerr == nil && len(ws.Pages) > 0 {
			return ws
		}
		logging.FromContext(ctx).Warn("workspace state corrupt, resetting to default")
	case errors.Is(err, store.ErrNotFound):
		// First run, nothing saved yet.
	default:
		logging.FromContext(ctx).Warn("workspace state unreadable, using default", "error", err)
		return DefaultWorkspace()
	}

	ws := DefaultWorkspace()
	if err := s.save(ctx, ws); err != nil {
		logging.FromContext(ctx).Warn("persist default workspace", "error", err)
	}
	return ws
}

func (s *Service) save(ctx context.Context, ws Workspace) error {
	doc, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("marshal workspace: %w", err)
	}
	return s.store.Save(ctx, doc)
}

// update runs fn against the current workspace and persists the result.
// fn mutates the passed workspace value; if it returns an error nothing is
// saved.
func (s *Service) update(ctx context.Context, fn func(*Workspace) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := s.load(ctx)
	if err := fn(&ws); err != nil {
		return err
	}
	return s.save(ctx, ws)
}

// Workspace returns the full current workspace.
func (s *Service) Workspace(ctx context.Context) Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// State returns summary information about the persisted document.
func (s *Service) State(ctx context.Context) StateInfo {
	ws := s.Workspace(ctx)
	info := StateInfo{Pages: len(ws.Pages)}
	for _, p := range ws.Pages {
		info.Tables += len(p.Tables)
	}
	if at, err := s.store.SavedAt(ctx); err == nil {
		info.SavedAt = &at
	}
	return info
}

// ListPages returns summaries of all pages in order.
func (s *Service) ListPages(ctx context.Context) []PageSummary {
	ws := s.Workspace(ctx)
	out := make([]PageSummary, len(ws.Pages))
	for i, p := range ws.Pages {
		out[i] = PageSummary{
			ID:         p.ID,
			Name:       p.Name,
			TableCount: len(p.Tables),
			Active:     p.ID == ws.ActivePageID,
		}
	}
	return out
}

// GetPage returns one page with all its tables.
func (s *Service) GetPage(ctx context.Context, pageID string) (Page, error) {
	ws := s.Workspace(ctx)
	p := findPage(&ws, pageID)
	if p == nil {
		return Page{}, ErrPageNotFound
	}
	return *p, nil
}

// CreatePage appends a new page. An empty name gets a sequential default.
func (s *Service) CreatePage(ctx context.Context, name string) (Page, error) {
	var created Page
	err := s.update(ctx, func(ws *Workspace) error {
		if strings.TrimSpace(name) == "" {
			name = "Page " + strconv.Itoa(len(ws.Pages)+1)
		}
		created = NewPage(name)
		ws.Pages = append(ws.Pages, created)
		ws.ActivePageID = created.ID
		return nil
	})
	return created, err
}

// RenamePage sets a page's name.
func (s *Service) RenamePage(ctx context.Context, pageID, name string) (Page, error) {
	var renamed Page
	err := s.update(ctx, func(ws *Workspace) error {
		p := findPage(ws, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		p.Name = name
		renamed = *p
		return nil
	})
	return renamed, err
}

// DeletePage removes a page. Deleting the last page leaves a fresh default
// page so the workspace is never empty.
func (s *Service) DeletePage(ctx context.Context, pageID string) error {
	return s.update(ctx, func(ws *Workspace) error {
		idx := -1
		for i := range ws.Pages {
			if ws.Pages[i].ID == pageID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrPageNotFound
		}
		ws.Pages = append(ws.Pages[:idx], ws.Pages[idx+1:]...)
		if len(ws.Pages) == 0 {
			fresh := NewPage("Page 1")
			ws.Pages = []Page{fresh}
			ws.ActivePageID = fresh.ID
			return nil
		}
		if ws.ActivePageID == pageID {
			ws.ActivePageID = ws.Pages[0].ID
		}
		return nil
	})
}

// SetActivePage records which page the user is viewing.
func (s *Service) SetActivePage(ctx context.Context, pageID string) error {
	return s.update(ctx, func(ws *Workspace) error {
		if findPage(ws, pageID) == nil {
			return ErrPageNotFound
		}
		ws.ActivePageID = pageID
		return nil
	})
}

// CreateTable appends a default-sized table to a page.
func (s *Service) CreateTable(ctx context.Context, pageID, title string) (Table, error) {
	var created Table
	err := s.update(ctx, func(ws *Workspace) error {
		p := findPage(ws, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		if len(p.Tables) >= s.maxTablesPerPage {
			return ErrPageFull
		}
		if strings.TrimSpace(title) == "" {
			title = "Table " + strconv.Itoa(len(p.Tables)+1)
		}
		created = NewTable(title, 3, 3)
		p.Tables = append(p.Tables, created)
		return nil
	})
	return created, err
}

// GetTable returns one table.
func (s *Service) GetTable(ctx context.Context, pageID, tableID string) (Table, error) {
	ws := s.Workspace(ctx)
	p := findPage(&ws, pageID)
	if p == nil {
		return Table{}, ErrPageNotFound
	}
	idx := findTable(p, tableID)
	if idx < 0 {
		return Table{}, ErrTableNotFound
	}
	return p.Tables[idx], nil
}

// DeleteTable removes a table from a page.
func (s *Service) DeleteTable(ctx context.Context, pageID, tableID string) error {
	return s.update(ctx, func(ws *Workspace) error {
		p := findPage(ws, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		idx := findTable(p, tableID)
		if idx < 0 {
			return ErrTableNotFound
		}
		p.Tables = append(p.Tables[:idx], p.Tables[idx+1:]...)
		return nil
	})
}

// DuplicateTable deep-copies a table under a fresh identifier, inserting
// the copy right after the original.
func (s *Service) DuplicateTable(ctx context.Context, pageID, tableID string) (Table, error) {
	var copied Table
	err := s.update(ctx, func(ws *Workspace) error {
		p := findPage(ws, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		if len(p.Tables) >= s.maxTablesPerPage {
			return ErrPageFull
		}
		idx := findTable(p, tableID)
		if idx < 0 {
			return ErrTableNotFound
		}
		copied = p.Tables[idx].Duplicate()
		p.Tables = append(p.Tables[:idx+1], append([]Table{copied}, p.Tables[idx+1:]...)...)
		return nil
	})
	return copied, err
}

// mutateTable applies an edit operation to one table and persists the
// resulting value.
func (s *Service) mutateTable(ctx context.Context, pageID, tableID string, op func(Table) Table) (Table, error) {
	var result Table
	err := s.update(ctx, func(ws *Workspace) error {
		p := findPage(ws, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		idx := findTable(p, tableID)
		if idx < 0 {
			return ErrTableNotFound
		}
		result = op(p.Tables[idx])
		p.Tables[idx] = result
		return nil
	})
	return result, err
}

// RenameTable sets a table's title.
func (s *Service) RenameTable(ctx context.Context, pageID, tableID, title string) (Table, error) {
	return s.mutateTable(ctx, pageID, tableID, func(t Table) Table { return t.Rename(title) })
}

// UpdateCell sets one cell.
func (s *Service) UpdateCell(ctx context.Context, pageID, tableID string, row, col int, value string) (Table, error) {
	return s.mutateTable(ctx, pageID, tableID, func(t Table) Table { return t.SetCell(row, col, value) })
}

// UpdateHeader sets one column header.
func (s *Service) UpdateHeader(ctx context.Context, pageID, tableID string, col int, value string) (Table, error) {
	return s.mutateTable(ctx, pageID, tableID, func(t Table) Table { return t.SetHeader(col, value) })
}

// InsertRow adds an empty row at the given index.
func (s *Service) InsertRow(ctx context.Context, pageID, tableID string, at int) (Table, error) {
	return s.mutateTable(ctx, pageID, tableID, func(t Table) Table { return t.InsertRow(at) })
}

// DeleteRow removes the row at the given index.
func (s *Service) DeleteRow(ctx context.Context, pageID, tableID string, at int) (Table, error) {
	return s.mutateTable(ctx, pageID, tableID, func(t Table) Table { return t.DeleteRow(at) })
}

// InsertColumn adds an empty column at the given index.
func (s *Service) InsertColumn(ctx context.Context, pageID, tableID string, at int) (Table, error) {
	return s.mutateTable(ctx, pageID, tableID, func(t Table) Table { return t.InsertColumn(at) })
}

// DeleteColumn removes the column at the given index.
func (s *Service) DeleteColumn(ctx context.Context, pageID, tableID string, at int) (Table, error) {
	return s.mutateTable(ctx, pageID, tableID, func(t Table) Table { return t.DeleteColumn(at) })
}

// Search finds matches for query in one page.
func (s *Service) Search(ctx context.Context, pageID, query string) ([]Match, error) {
	p, err := s.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return SearchPage(p, query), nil
}

// ImportCSV reads a CSV file (single table or multi-table bundle) and
// appends the assembled tables to a page. The reader is wrapped with BOM
// skipping and UTF-8 sanitization; filename supplies the fallback title.
func (s *Service) ImportCSV(ctx context.Context, pageID, filename string, r io.Reader) (ImportResult, error) {
	if r == nil {
		return ImportResult{}, ErrNoFile
	}

	// Read one byte past the limit to distinguish at-limit from over it.
	data, err := io.ReadAll(io.LimitReader(csv.WrapImport(r), s.maxFileSize+1))
	if err != nil {
		return ImportResult{}, fmt.Errorf("read import file: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return ImportResult{}, ErrFileTooLarge
	}

	tables := csv.Assemble(csv.Parse(string(data)), fallbackTitle(filename))
	if len(tables) == 0 {
		return ImportResult{}, ErrEmptyImport
	}

	result := ImportResult{}
	err = s.update(ctx, func(ws *Workspace) error {
		p := findPage(ws, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		if len(p.Tables)+len(tables) > s.maxTablesPerPage {
			return ErrPageFull
		}
		for _, at := range tables {
			t := Table{
				ID:      NewID(),
				Title:   at.Title,
				Columns: at.Columns,
				Rows:    at.Rows,
			}
			p.Tables = append(p.Tables, t)
			result.Titles = append(result.Titles, t.Title)
		}
		result.TablesAdded = len(tables)
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	logging.FromContext(ctx).Info("csv imported",
		"page_id", pageID,
		"file", filename,
		"tables", result.TablesAdded,
	)
	return result, nil
}

// ExportTable renders one table as a downloadable CSV file.
func (s *Service) ExportTable(ctx context.Context, pageID, tableID string) (ExportFile, error) {
	t, err := s.GetTable(ctx, pageID, tableID)
	if err != nil {
		return ExportFile{}, err
	}
	return ExportFile{
		Name: exportName(t.Title),
		Data: csv.EncodeTable(toCSVTable(t)),
	}, nil
}

// ExportPage renders every table of a page as one multi-table CSV bundle.
func (s *Service) ExportPage(ctx context.Context, pageID string) (ExportFile, error) {
	p, err := s.GetPage(ctx, pageID)
	if err != nil {
		return ExportFile{}, err
	}
	tables := make([]csv.Table, len(p.Tables))
	for i, t := range p.Tables {
		tables[i] = toCSVTable(t)
	}
	return ExportFile{
		Name: exportName(p.Name),
		Data: csv.EncodeTables(tables),
	}, nil
}

// GenerateCells asks the configured generator for one value per row of a
// column and applies them. Returns the updated table.
func (s *Service) GenerateCells(ctx context.Context, pageID, tableID string, col int, instruction string) (Table, error) {
	if s.gen == nil {
		return Table{}, ErrAIDisabled
	}

	t, err := s.GetTable(ctx, pageID, tableID)
	if err != nil {
		return Table{}, err
	}
	if col < 0 || col >= len(t.Columns) {
		return Table{}, fmt.Errorf("%w: column %d", ErrTableNotFound, col)
	}

	values, err := s.gen.SuggestCells(ctx, GenerateRequest{
		TableTitle:  t.Title,
		Columns:     t.Columns,
		Rows:        t.Rows,
		Column:      col,
		Instruction: instruction,
		Count:       len(t.Rows),
	})
	if err != nil {
		return Table{}, fmt.Errorf("generation failed: %w", err)
	}

	return s.mutateTable(ctx, pageID, tableID, func(t Table) Table {
		for i, v := range values {
			if i >= len(t.Rows) {
				break
			}
			t = t.SetCell(i, col, v)
		}
		return t
	})
}

// findPage returns a pointer into ws.Pages, or nil.
func findPage(ws *Workspace, pageID string) *Page {
	for i := range ws.Pages {
		if ws.Pages[i].ID == pageID {
			return &ws.Pages[i]
		}
	}
	return nil
}

// findTable returns the index of a table within a page, or -1.
func findTable(p *Page, tableID string) int {
	for i := range p.Tables {
		if p.Tables[i].ID == tableID {
			return i
		}
	}
	return -1
}

func toCSVTable(t Table) csv.Table {
	return csv.Table{Title: t.Title, Columns: t.Columns, Rows: t.Rows}
}

// fallbackTitle derives a table title from an import filename.
func fallbackTitle(filename string) string {
	base := filepath.Base(filename)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.TrimSpace(title)
	if title == "" || title == "." {
		return "Imported Table"
	}
	return title
}

// exportName builds a safe .csv filename from a title.
func exportName(title string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = "export"
	}
	// Strip path separators and characters that upset Content-Disposition.
	replacer := strings.NewReplacer("/", "_", "\\", "_", "\"", "_", "\n", "_", "\r", "_")
	return replacer.Replace(name) + ".csv"
}
