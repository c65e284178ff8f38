package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"aioep/internal/archive"
	"aioep/internal/chat"
	"aioep/internal/config"
	"aioep/internal/doclib"
	"aioep/internal/llmclient"
	"aioep/internal/methodology"
	"aioep/internal/modelstore"
	"aioep/internal/prompt"
	"aioep/internal/server"
	"aioep/internal/settings"
	"aioep/internal/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	client, err := llmclient.New(ctx, cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	if err != nil {
		if !errors.Is(err, llmclient.ErrNoCredential) {
			log.Fatalf("llm client: %v", err)
		}
		log.Printf("no %s credential configured, using the mock provider", cfg.LLM.Provider)
		client = llmclient.NewMockClient()
	}
	client = llmclient.Wrap(client, llmclient.Logging())

	prompts, err := prompt.NewStore(cfg.Data.SkillsDir)
	if err != nil {
		log.Fatalf("prompt store: %v", err)
	}

	models := modelstore.NewFromEnv(cfg.Data.ModelsDir, cfg.Data.PostgresDSN)
	defer models.Close()

	orch := wizard.NewOrchestrator(prompts, client, models)
	if cfg.Archive.Enabled {
		arc, err := archive.New(archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			log.Printf("archive disabled: %v", err)
		} else {
			orch = orch.WithArchive(arc)
		}
	}

	docs, err := doclib.New(cfg.Data.DoclibDir)
	if err != nil {
		log.Fatalf("document library: %v", err)
	}

	srv := server.New(server.Deps{
		Prompts:  prompts,
		Client:   client,
		Models:   models,
		Orch:     orch,
		Settings: settings.NewStore(cfg.Data.SettingsDir + "/profile.json"),
		Methods:  methodology.NewRegistry(cfg.Data.MethodologyDir + "/methods.json"),
		Docs:     docs,
		Chat:     chat.NewHandler(client),
	})

	h := corsMiddleware(srv.Handler())

	log.Printf("Starting API server on %s", cfg.Port)
	log.Fatal(http.ListenAndServe(cfg.Port, h2c.NewHandler(h, &http2.Server{})))
}

// Simple CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
