// Package ingest orchestrates the paper ingestion pipeline: cache check,
// fetch, optional page pruning, extraction, note synthesis, and the dual
// persist into the repository and the vector index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/paperqa/internal/paper"
	"github.com/dgallion1/paperqa/internal/pdfedit"
	"github.com/dgallion1/paperqa/internal/store"
)

// Extractor converts PDF bytes into url-stamped chunks.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte, url string) ([]paper.Chunk, error)
}

// Synthesizer produces notes from a paper's full text.
type Synthesizer interface {
	Synthesize(ctx context.Context, paperText string) ([]paper.Note, error)
}

// Repository is the subset of the paper store the pipeline needs.
type Repository interface {
	AddPaper(ctx context.Context, p paper.Paper) error
	GetPaper(ctx context.Context, url string) (*paper.Paper, error)
}

// VectorIndex embeds and stores chunks for later scoped retrieval.
type VectorIndex interface {
	AddDocuments(ctx context.Context, chunks []paper.Chunk) error
}

// Pipeline runs the full ingestion flow for one paper.
type Pipeline struct {
	fetcher     Fetcher
	extractor   Extractor
	synthesizer Synthesizer
	repo        Repository
	index       VectorIndex
	log         *slog.Logger

	removePages func(pdf []byte, pages []int) ([]byte, error)
}

func NewPipeline(fetcher Fetcher, extractor Extractor, synthesizer Synthesizer, repo Repository, index VectorIndex, log *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		extractor:   extractor,
		synthesizer: synthesizer,
		repo:        repo,
		index:       index,
		log:         log,
		removePages: pdfedit.RemovePages,
	}
}

// Ingest runs the pipeline for url and returns the paper's notes.
//
// Ingestion is at-most-once per URL: a stored paper short-circuits the
// pipeline and its notes are returned verbatim. The check-then-insert is
// not atomic across concurrent requests; the papers table's UNIQUE
// constraint arbitrates, and a losing request re-reads and returns the
// winner's notes instead of failing.
func (p *Pipeline) Ingest(ctx context.Context, url, name string, pagesToDelete []int) ([]paper.Note, error) {
	log := p.log.With("url", url)

	existing, err := p.repo.GetPaper(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("cache check: %w", err)
	}
	if existing != nil {
		log.Info("paper already ingested, returning stored notes", "notes", len(existing.Notes))
		return existing.Notes, nil
	}

	pdf, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	log.Info("fetched pdf", "bytes", len(pdf))

	if len(pagesToDelete) > 0 {
		pdf, err = p.removePages(pdf, pagesToDelete)
		if err != nil {
			return nil, fmt.Errorf("prune pages: %w", err)
		}
		log.Info("pruned pages", "pages", pagesToDelete)
	}

	chunks, err := p.extractor.Extract(ctx, pdf, url)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("extraction produced no chunks for %s", url)
	}
	log.Info("extracted chunks", "chunks", len(chunks))

	fullText := paper.ConcatChunks(chunks)
	notes, err := p.synthesizer.Synthesize(ctx, fullText)
	if err != nil {
		return nil, err
	}
	log.Info("synthesized notes", "notes", len(notes))

	// Persist the paper row and the vector index concurrently; both must
	// succeed for the pipeline to be complete.
	errCh := make(chan error, 2)
	go func() {
		errCh <- p.repo.AddPaper(ctx, paper.Paper{URL: url, Name: name, Text: fullText, Notes: notes})
	}()
	go func() {
		errCh <- p.index.AddDocuments(ctx, chunks)
	}()

	var persistErr error
	var lostRace bool
	for range 2 {
		if err := <-errCh; err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				lostRace = true
				continue
			}
			if persistErr == nil {
				persistErr = err
			}
		}
	}
	if lostRace {
		// Another request ingested this URL between our cache check and
		// insert; its row and vectors are authoritative, so our own
		// redundant vector-write outcome no longer matters.
		winner, err := p.repo.GetPaper(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("reload after duplicate insert: %w", err)
		}
		if winner != nil {
			log.Info("concurrent ingestion won the race, returning stored notes")
			return winner.Notes, nil
		}
	}

	if persistErr != nil {
		return nil, fmt.Errorf("persist paper: %w", persistErr)
	}

	log.Info("ingestion complete", "notes", len(notes))
	return notes, nil
}
