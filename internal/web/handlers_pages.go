package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridnote/gridnote/internal/core"
)

// handlers_pages.go covers workspace and page endpoints. Request bodies are
// small JSON objects; decode failures are reported as bad requests without
// touching the workspace.

func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Workspace(r.Context()))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.State(r.Context()))
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListPages(r.Context()))
}

type pageRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	page, err := s.service.CreatePage(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.GetPage(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleRenamePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	page, err := s.service.RenamePage(r.Context(), chi.URLParam(r, "pageID"), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeletePage(r.Context(), chi.URLParam(r, "pageID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivatePage(w http.ResponseWriter, r *http.Request) {
	if err := s.service.SetActivePage(r.Context(), chi.URLParam(r, "pageID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	matches, err := s.service.Search(r.Context(), chi.URLParam(r, "pageID"), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if matches == nil {
		matches = []core.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// decodeBody decodes a JSON request body into dst. A missing body decodes
// to the zero value so optional-body endpoints stay simple.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	return nil
}
