// Package qa answers questions about an ingested paper, grounded in
// retrieved chunks and the paper's notes.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgallion1/paperqa/internal/llm"
	"github.com/dgallion1/paperqa/internal/paper"
)

var (
	ErrPaperNotFound = errors.New("paper not found")
	ErrNotesMissing  = errors.New("paper has no notes")
)

// DefaultTopK bounds how many chunks ground an answer.
const DefaultTopK = 8

// Repository is the subset of the paper store the engine needs.
type Repository interface {
	GetPaper(ctx context.Context, url string) (*paper.Paper, error)
	SaveQA(ctx context.Context, qa paper.QAInteraction) error
}

// Retriever performs url-scoped similarity search.
type Retriever interface {
	SimilaritySearch(ctx context.Context, query string, k int, url string) ([]paper.Chunk, error)
}

// Invoker runs one tool-calling chat completion.
type Invoker interface {
	Invoke(ctx context.Context, system, user string, tool llm.Tool) ([]llm.ToolCall, error)
}

const qaPrompt = `You are a tenured professor of computer science helping a student with their research.
The student has a question regarding a paper they are reading.
Here are their notes on the paper:
%s

And here are some relevant parts of the paper relating to their question
%s

Answer the student's question in the context of the paper. You should also suggest followup questions.
Take a deep breath, and think through your reply carefully, step by step.`

var answerTool = llm.Tool{
	Name:        "questionAnswer",
	Description: "The answer to the question",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{
				"type":        "string",
				"description": "The answer to the question",
			},
			"followupQuestions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":        "string",
					"description": "Followup questions the student should also ask",
				},
			},
		},
		"required": []string{"answer", "followupQuestions"},
	},
}

// Engine answers questions over a single ingested paper.
type Engine struct {
	repo      Repository
	retriever Retriever
	model     Invoker
	topK      int
	log       *slog.Logger
}

func NewEngine(repo Repository, retriever Retriever, model Invoker, topK int, log *slog.Logger) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{
		repo:      repo,
		retriever: retriever,
		model:     model,
		topK:      topK,
		log:       log,
	}
}

// Answer retrieves grounding context scoped to url, invokes the model once,
// and returns every answer/follow-up pair it produced. Each pair is also
// persisted as its own interaction row; persistence is best-effort and
// never suppresses the computed answers.
func (e *Engine) Answer(ctx context.Context, question, url string) ([]paper.Answer, error) {
	p, err := e.repo.GetPaper(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load paper: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaperNotFound, url)
	}
	if len(p.Notes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotesMissing, url)
	}

	docs, err := e.retriever.SimilaritySearch(ctx, question, e.topK, url)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	contextText := paper.ConcatChunks(docs)

	system := fmt.Sprintf(qaPrompt, paper.ConcatNotes(p.Notes), contextText)
	calls, err := e.model.Invoke(ctx, system, "Question: "+question, answerTool)
	if err != nil {
		return nil, fmt.Errorf("qa completion: %w", err)
	}
	answers, err := llm.DecodeToolCalls[paper.Answer](calls)
	if err != nil {
		return nil, err
	}

	// One interaction row per produced answer. Interactions are independent
	// append-only writes, so they are dispatched concurrently.
	var wg sync.WaitGroup
	for _, a := range answers {
		wg.Add(1)
		go func(a paper.Answer) {
			defer wg.Done()
			err := e.repo.SaveQA(ctx, paper.QAInteraction{
				Question:          question,
				Answer:            a.Answer,
				Context:           contextText,
				FollowupQuestions: a.FollowupQuestions,
			})
			if err != nil {
				e.log.Error("failed to save qa interaction", "url", url, "error", err)
			}
		}(a)
	}
	wg.Wait()

	return answers, nil
}
