package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dgallion1/paperqa/internal/paper"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddPaper_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := paper.Paper{
		URL:  "https://example.org/paper.pdf",
		Name: "Example Paper",
		Text: "full extracted text",
		Notes: []paper.Note{
			{Note: "first note", PageNumbers: []int{1}},
			{Note: "second note", PageNumbers: []int{2, 3}},
		},
	}
	if err := s.AddPaper(ctx, p); err != nil {
		t.Fatalf("add paper: %v", err)
	}

	got, err := s.GetPaper(ctx, p.URL)
	if err != nil {
		t.Fatalf("get paper: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored paper, got nil")
	}
	if got.Name != p.Name || got.Text != p.Text {
		t.Errorf("stored fields differ: got %+v", got)
	}
	if len(got.Notes) != 2 || got.Notes[1].Note != "second note" {
		t.Errorf("expected notes to round-trip, got %+v", got.Notes)
	}
	if len(got.Notes[1].PageNumbers) != 2 {
		t.Errorf("expected page numbers to round-trip, got %v", got.Notes[1].PageNumbers)
	}
}

func TestAddPaper_DuplicateURL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := paper.Paper{URL: "https://example.org/paper.pdf", Name: "A", Text: "t", Notes: []paper.Note{}}
	if err := s.AddPaper(ctx, p); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.AddPaper(ctx, p)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetPaper_AbsentIsNotAnError(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetPaper(context.Background(), "https://example.org/unknown.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for absent paper, got %+v", got)
	}
}

func TestSaveQA_AppendOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	qa := paper.QAInteraction{
		Question:          "What is the main result?",
		Answer:            "The Transformer outperforms recurrent models.",
		Context:           "retrieved chunk text",
		FollowupQuestions: []string{"How does attention scale?"},
	}
	if err := s.SaveQA(ctx, qa); err != nil {
		t.Fatalf("save qa: %v", err)
	}
	// Identical rows are a valid append; this is a log, not a keyed entity.
	if err := s.SaveQA(ctx, qa); err != nil {
		t.Fatalf("second save qa: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM qa_interactions`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 interaction rows, got %d", count)
	}
}
