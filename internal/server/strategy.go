package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aioep/internal/archimate"
	"aioep/internal/llmclient"
	"aioep/internal/modelstore"
	"aioep/internal/prompt"
	"aioep/internal/strategy"
	"aioep/internal/wizard"
)

type strategyAIRequest struct {
	SubSkill      string                 `json:"subSkill"`
	Input         string                 `json:"input"`
	ExistingModel *archimate.StageResult `json:"existingModel,omitempty"`
}

// handleStrategyAI is the stateless generation endpoint: one sub-skill, one
// completion call, one extracted JSON result. The wizard endpoints are the
// stateful counterpart.
func (s *Server) handleStrategyAI(w http.ResponseWriter, r *http.Request) {
	var req strategyAIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.SubSkill = strings.TrimSpace(req.SubSkill)
	if req.SubSkill == "" || strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest,
			"subSkill and input are required; valid sub-skills: "+subSkillList())
		return
	}
	id := prompt.SubSkill(req.SubSkill)
	if !prompt.Known(id) {
		writeError(w, http.StatusBadRequest,
			"unknown subSkill "+req.SubSkill+"; valid sub-skills: "+subSkillList())
		return
	}

	value, err := wizard.GenerateSubSkill(r.Context(), s.prompts, s.client, id, req.Input, req.ExistingModel)
	if err != nil {
		var upstream *llmclient.UpstreamError
		switch {
		case errors.Is(err, prompt.ErrTemplateNotFound):
			writeError(w, http.StatusInternalServerError, "prompt template missing for "+req.SubSkill)
		case errors.As(err, &upstream):
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":  "model provider request failed",
				"detail": upstream.Body,
				"status": upstream.Status,
			})
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": json.RawMessage(value)})
}

func subSkillList() string {
	names := make([]string, 0, len(prompt.SubSkills))
	for _, id := range prompt.SubSkills {
		names = append(names, string(id))
	}
	return strings.Join(names, ", ")
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	list, err := s.models.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": list})
}

type saveModelRequest struct {
	Name          string                   `json:"name"`
	Source        string                   `json:"source"`
	TargetYear    int                      `json:"targetYear"`
	Elements      []archimate.Element      `json:"elements"`
	Relationships []archimate.Relationship `json:"relationships"`
}

func (s *Server) handleSaveModel(w http.ResponseWriter, r *http.Request) {
	var req saveModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	res, err := s.models.Save(r.Context(), req.Name, req.Source, req.TargetYear, req.Elements, req.Relationships)
	if err != nil {
		var ve *modelstore.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := s.models.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, modelstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "model "+id+" not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleStrategyProjection serves the dashboard objectives derived from the
// newest stored model. With no models yet, the objective list is empty rather
// than an error.
func (s *Server) handleStrategyProjection(w http.ResponseWriter, r *http.Request) {
	list, err := s.models.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(list) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"objectives": []strategy.Objective{}})
		return
	}
	doc, err := s.models.Get(r.Context(), list[0].ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	objectives := strategy.Objectives(list[0].ID, doc)
	writeJSON(w, http.StatusOK, map[string]any{
		"modelId":    list[0].ID,
		"objectives": objectives,
	})
}
