package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/paperqa/internal/ingest"
	"github.com/dgallion1/paperqa/internal/llm"
	"github.com/dgallion1/paperqa/internal/paper"
	"github.com/dgallion1/paperqa/internal/pdfedit"
	"github.com/dgallion1/paperqa/internal/qa"
	"github.com/dgallion1/paperqa/internal/unstructured"
)

const maxBodyBytes = 1 << 20 // 1MB of JSON is plenty

type takeNotesRequest struct {
	PaperURL      string `json:"paperUrl"`
	Name          string `json:"name"`
	PagesToDelete string `json:"pagesToDelete,omitempty"`
}

func (s *Server) handleTakeNotes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req takeNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.PaperURL == "" {
		jsonError(w, "paperUrl is required", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		jsonError(w, "name is required", http.StatusBadRequest)
		return
	}

	pages, err := parsePagesToDelete(req.PagesToDelete)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	notes, err := s.notes.Ingest(r.Context(), req.PaperURL, req.Name, pages)
	if err != nil {
		s.log.Error("take_notes failed", "url", req.PaperURL, "error", err)
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	if notes == nil {
		// Clients get a JSON array, never null.
		notes = []paper.Note{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notes)
}

type qaRequest struct {
	PaperURL string `json:"paperUrl"`
	Question string `json:"question"`
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.PaperURL == "" {
		jsonError(w, "paperUrl is required", http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	answers, err := s.qa.Answer(r.Context(), req.Question, req.PaperURL)
	if err != nil {
		s.log.Error("qa failed", "url", req.PaperURL, "error", err)
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	if answers == nil {
		answers = []paper.Answer{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(answers)
}

// parsePagesToDelete parses a comma-separated list of 1-based page numbers.
func parsePagesToDelete(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	pages := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid pagesToDelete entry %q", strings.TrimSpace(part))
		}
		pages = append(pages, n)
	}
	return pages, nil
}

// statusForError maps pipeline errors onto HTTP statuses. No partial or
// degraded body is ever returned on failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pdfedit.ErrPageOutOfRange),
		errors.Is(err, pdfedit.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, qa.ErrPaperNotFound):
		return http.StatusNotFound
	case errors.Is(err, qa.ErrNotesMissing):
		return http.StatusConflict
	case errors.Is(err, ingest.ErrFetch),
		errors.Is(err, unstructured.ErrExtractionFailed),
		errors.Is(err, llm.ErrMissingToolCall),
		errors.Is(err, llm.ErrMalformedToolArguments):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
