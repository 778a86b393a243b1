// Package paper holds the domain types shared across the ingestion and
// question-answering pipeline.
package paper

import "strings"

// Chunk is one unit of extracted paper text with its source metadata.
// Chunks are ephemeral: they feed note synthesis and the vector index but
// are not persisted as standalone entities.
type Chunk struct {
	Text     string
	Metadata Metadata
}

// Metadata describes where a chunk came from.
type Metadata struct {
	URL        string
	PageNumber int
	Filename   string
	Category   string // element type reported by the extractor
}

// Note is a synthesized, page-cited fact about a paper. The JSON tags match
// the tool schema the model is asked to fill.
type Note struct {
	Note        string `json:"note"`
	PageNumbers []int  `json:"pageNumbers"`
}

// Paper is the unit of persistence: one row per distinct source URL,
// immutable after creation.
type Paper struct {
	URL   string
	Name  string
	Text  string
	Notes []Note
}

// Answer is one answer/follow-up pair produced by the QA model.
type Answer struct {
	Answer            string   `json:"answer"`
	FollowupQuestions []string `json:"followupQuestions"`
}

// QAInteraction is an append-only log entry recording one produced answer
// together with the grounding context it was computed from.
type QAInteraction struct {
	Question          string
	Answer            string
	Context           string
	FollowupQuestions []string
}

// ConcatChunks joins chunk text in order, separated by blank lines. This is
// the canonical full-text form fed to note synthesis and stored as the
// authoritative paper text.
func ConcatChunks(chunks []Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		if c.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// ConcatNotes joins note bodies with newlines for use as a grounding signal.
func ConcatNotes(notes []Note) string {
	var sb strings.Builder
	for _, n := range notes {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(n.Note)
	}
	return sb.String()
}
