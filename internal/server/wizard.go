package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aioep/internal/llmclient"
	"aioep/internal/wizard"
)

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

type startSessionRequest struct {
	TargetYear int `json:"targetYear,omitempty"`
}

// handleStartSession opens a wizard run. The input stage is prefilled from
// the company settings so the human edits rather than starts blank.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	profile := s.settings.Get()
	year := req.TargetYear
	if year == 0 {
		year = profile.CurrentYear + 1
	}
	sess := s.sessions.Start(profile.PrefillText(), year)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Discard(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type sessionInputRequest struct {
	Text       string `json:"text"`
	TargetYear int    `json:"targetYear,omitempty"`
}

func (s *Server) handleSessionInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req sessionInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	sess.SetInput(req.Text)
	if req.TargetYear != 0 {
		sess.SetTargetYear(req.TargetYear)
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSessionGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	result, err := s.orch.Generate(r.Context(), sess)
	if err != nil {
		writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"state":  sess.Snapshot(),
	})
}

func (s *Server) handleSessionConfirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	next, err := sess.Confirm()
	if err != nil {
		switch {
		case errors.Is(err, wizard.ErrEmptyInput), errors.Is(err, wizard.ErrNoResult):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, wizard.ErrNotConfirmStage):
			writeError(w, http.StatusConflict, "use finalize on the confirm stage")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stage": next,
		"state": sess.Snapshot(),
	})
}

func (s *Server) handleSessionBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	stage, err := sess.Back()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stage": stage,
		"state": sess.Snapshot(),
	})
}

type sessionFixRequest struct {
	CheckIndex int `json:"checkIndex"`
}

func (s *Server) handleSessionFix(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req sessionFixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	result, err := s.orch.Fix(r.Context(), sess, req.CheckIndex)
	if err != nil {
		writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"report": sess.Report(),
		"state":  sess.Snapshot(),
	})
}

type sessionFinalizeRequest struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

func (s *Server) handleSessionFinalize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req sessionFinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	source := req.Source
	if strings.TrimSpace(source) == "" {
		source = "AI Wizard"
	}
	res, err := s.orch.Finalize(r.Context(), sess, req.Name, source)
	if err != nil {
		if errors.Is(err, wizard.ErrNotConfirmStage) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// writeGenerationError maps orchestrator failures to HTTP statuses. Upstream
// and extraction failures are retryable from the client's point of view, so
// both carry enough detail to show the human what happened.
func writeGenerationError(w http.ResponseWriter, err error) {
	var upstream *llmclient.UpstreamError
	var extraction *wizard.ExtractionError
	switch {
	case errors.Is(err, wizard.ErrManualStage), errors.Is(err, wizard.ErrGenerationPending),
		errors.Is(err, wizard.ErrNotValidateStage):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wizard.ErrStaleGeneration):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &extraction):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": extraction.Error(),
			"raw":   extraction.Raw,
		})
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  "model provider request failed",
			"detail": upstream.Body,
			"status": upstream.Status,
		})
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
