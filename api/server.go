// Package api exposes the profiling engine over HTTP: dataset upload,
// profiling, rule generation, reference derivation and the chat assistant.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/semaphore"

	"datalens/adapters/tabular"
	"datalens/internal/chat"
	"datalens/internal/config"
	"datalens/internal/errors"
	"datalens/internal/profiling"
	"datalens/internal/rules"
	"datalens/ports"
)

// Server wires the HTTP surface. Profiling runs are capped by a weighted
// semaphore so a burst of uploads cannot saturate the process.
type Server struct {
	router *chi.Mux

	fileReader *tabular.Reader
	jsonReader *tabular.JSONReader
	sqlReader  *tabular.SQLReader

	profiler ports.Profiler
	rules    ports.RuleGenerator
	refRules ports.ReferenceRuleGenerator
	agent    *chat.Agent

	store *datasetStore
	sem   *semaphore.Weighted

	port string
}

// NewServer builds the router and all handlers. client may be nil; the chat
// endpoint then answers with a not-configured message. db may be nil; the
// SQL import endpoint then reports itself unconfigured.
func NewServer(cfg *config.Config, client ports.LLMClient, db *sqlx.DB) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		fileReader: tabular.NewReader(),
		jsonReader: tabular.NewJSONReader(),
		profiler:   profiling.NewEngineWithOptions(cfg.Profiling.SampleSize, cfg.Profiling.SampleSeed),
		rules:      rules.NewGenerator(),
		refRules:   rules.NewReferenceGenerator(),
		agent:      chat.NewAgent(client, cfg.AI.OpenAIModel, cfg.AI.MaxTokens),
		store:      newDatasetStore(),
		sem:        semaphore.NewWeighted(cfg.Profiling.MaxConcurrent),
		port:       cfg.Server.Port,
	}
	if db != nil {
		s.sqlReader = tabular.NewSQLReader(db)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Post("/api/datasets", s.handleUpload)
	s.router.Post("/api/datasets/sql", s.handleSQLImport)
	s.router.Get("/api/datasets", s.handleListDatasets)
	s.router.Get("/api/datasets/{id}/overview", s.handleOverview)

	s.router.Post("/api/datasets/{id}/profile", s.handleProfile)
	s.router.Get("/api/datasets/{id}/profile", s.handleGetProfile)
	s.router.Get("/api/datasets/{id}/profile/export", s.handleExportProfile)

	s.router.Get("/api/datasets/{id}/rules/{column}", s.handleColumnRules)
	s.router.Post("/api/datasets/{id}/reference-rules", s.handleReferenceRules)

	s.router.Post("/api/datasets/{id}/chat", s.handleChat)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	log.Printf("[Server] Listening on :%s", s.port)
	return http.ListenAndServe(":"+s.port, s.router)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[Server] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeLoaderError:
		status = http.StatusBadRequest
	case errors.CodeExternalService:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
