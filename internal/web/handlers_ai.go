package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type generateRequest struct {
	Col         int    `json:"col"`
	Instruction string `json:"instruction"`
}

func (s *Server) handleGenerateCells(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	table, err := s.service.GenerateCells(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "tableID"),
		req.Col, req.Instruction)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}
