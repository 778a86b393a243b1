// Package api exposes the ingestion and QA pipelines over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/paperqa/internal/paper"
)

// NoteTaker ingests a paper and returns its notes.
type NoteTaker interface {
	Ingest(ctx context.Context, url, name string, pagesToDelete []int) ([]paper.Note, error)
}

// Answerer answers a question about an ingested paper.
type Answerer interface {
	Answer(ctx context.Context, question, url string) ([]paper.Answer, error)
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	notes  NoteTaker
	qa     Answerer
	log    *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(notes NoteTaker, qa Answerer, log *slog.Logger) *Server {
	s := &Server{
		notes: notes,
		qa:    qa,
		log:   log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/take_notes", s.handleTakeNotes)
	r.Post("/qa", s.handleQA)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
