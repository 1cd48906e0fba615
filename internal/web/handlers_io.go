package web

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridnote/gridnote/internal/core"
)

// handlers_io.go covers CSV import and export. Imports arrive as multipart
// uploads under the "file" field; exports are sent as attachment downloads.

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := importFile(r, s.cfg.Import.MaxFileSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.service.ImportCSV(r.Context(), chi.URLParam(r, "pageID"), header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// importFile extracts the uploaded CSV from a multipart request. The parse
// limit leaves headroom over the file limit for the multipart framing; the
// service enforces the exact file size.
func importFile(r *http.Request, maxFileSize int64) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFileSize+1<<20)
	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil, core.ErrNoFile
		}
		return nil, nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, core.ErrNoFile
	}
	return file, header, nil
}

func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	f, err := s.service.ExportTable(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	sendCSV(w, f)
}

func (s *Server) handleExportPage(w http.ResponseWriter, r *http.Request) {
	f, err := s.service.ExportPage(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	sendCSV(w, f)
}

func sendCSV(w http.ResponseWriter, f core.ExportFile) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Write(f.Data)
}
