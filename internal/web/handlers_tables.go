package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handlers_tables.go covers table lifecycle and edit endpoints. Every edit
// returns the full updated table so the client can re-render without a
// second round trip.

type tableRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.CreateTable(r.Context(), chi.URLParam(r, "pageID"), req.Title)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	table, err := s.service.GetTable(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleRenameTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.RenameTable(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"), req.Title)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTable(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateTable(w http.ResponseWriter, r *http.Request) {
	table, err := s.service.DuplicateTable(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

type cellRequest struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.UpdateCell(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"),
		req.Row, req.Col, req.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

type headerRequest struct {
	Col   int    `json:"col"`
	Value string `json:"value"`
}

func (s *Server) handleUpdateHeader(w http.ResponseWriter, r *http.Request) {
	var req headerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.UpdateHeader(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"),
		req.Col, req.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

type insertRequest struct {
	At int `json:"at"`
}

func (s *Server) handleInsertRow(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.InsertRow(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"), req.At)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	at, err := indexParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.DeleteRow(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"), at)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleInsertColumn(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.InsertColumn(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"), req.At)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	at, err := indexParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.DeleteColumn(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"), at)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// indexParam parses the {index} URL segment.
func indexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	at, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q is not a number", errInvalidInput, raw)
	}
	return at, nil
}
