package server

import (
	"errors"
	"io"
	"net/http"
	"os"

	"aioep/internal/methodology"
	"aioep/internal/safeio"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "body too large or unreadable")
		return
	}
	profile, err := s.settings.Update(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleMethodology lists methodology entries, filterable by phase, scenario
// and category query parameters.
func (s *Server) handleMethodology(w http.ResponseWriter, r *http.Request) {
	f := methodology.Filter{
		Phase:    r.URL.Query().Get("phase"),
		Scenario: r.URL.Query().Get("scenario"),
		Category: r.URL.Query().Get("category"),
	}
	methods, err := s.methods.List(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"methods": methods})
}

func (s *Server) handlePlatformTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.docs.Tree()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tree": tree})
}

func (s *Server) handlePlatformFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	content, err := s.docs.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, safeio.ErrOutsideRoot):
			writeError(w, http.StatusBadRequest, "path escapes the document root")
		case errors.Is(err, os.ErrNotExist):
			writeError(w, http.StatusNotFound, "file not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":    path,
		"content": content,
	})
}
