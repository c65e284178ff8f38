package server

import (
	"encoding/json"
	"log"
	"net/http"

	"aioep/internal/doclib"
	"aioep/internal/llmclient"
	"aioep/internal/methodology"
	"aioep/internal/modelstore"
	"aioep/internal/prompt"
	"aioep/internal/settings"
	"aioep/internal/wizard"
)

// Server wires the HTTP surface: stateless strategy generation, the model
// store, the wizard session endpoints, and the platform content endpoints.
type Server struct {
	prompts  *prompt.Store
	client   llmclient.Client
	models   *modelstore.Store
	sessions *wizard.Registry
	orch     *wizard.Orchestrator
	settings *settings.Store
	methods  *methodology.Registry
	docs     *doclib.Library
	chat     http.Handler
}

type Deps struct {
	Prompts  *prompt.Store
	Client   llmclient.Client
	Models   *modelstore.Store
	Orch     *wizard.Orchestrator
	Settings *settings.Store
	Methods  *methodology.Registry
	Docs     *doclib.Library
	Chat     http.Handler
}

func New(d Deps) *Server {
	return &Server{
		prompts:  d.Prompts,
		client:   d.Client,
		models:   d.Models,
		sessions: wizard.NewRegistry(),
		orch:     d.Orch,
		settings: d.Settings,
		methods:  d.Methods,
		docs:     d.Docs,
		chat:     d.Chat,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/strategy/ai", s.handleStrategyAI)
	mux.HandleFunc("GET /api/strategy", s.handleStrategyProjection)
	mux.HandleFunc("GET /api/strategy/models", s.handleListModels)
	mux.HandleFunc("POST /api/strategy/models", s.handleSaveModel)
	mux.HandleFunc("GET /api/strategy/models/{id}", s.handleGetModel)

	mux.HandleFunc("POST /api/wizard/sessions", s.handleStartSession)
	mux.HandleFunc("GET /api/wizard/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/wizard/sessions/{id}", s.handleDiscardSession)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/input", s.handleSessionInput)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/generate", s.handleSessionGenerate)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/confirm", s.handleSessionConfirm)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/back", s.handleSessionBack)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/fix", s.handleSessionFix)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/finalize", s.handleSessionFinalize)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("GET /api/methodology", s.handleMethodology)
	mux.HandleFunc("GET /api/platform", s.handlePlatformTree)
	mux.HandleFunc("GET /api/platform/file", s.handlePlatformFile)

	if s.chat != nil {
		mux.Handle("GET /ws/chat", s.chat)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
