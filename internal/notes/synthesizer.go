// Package notes turns a paper's full text into an ordered list of
// page-cited notes via a single tool-calling model invocation.
package notes

import (
	"context"
	"fmt"

	"github.com/dgallion1/paperqa/internal/llm"
	"github.com/dgallion1/paperqa/internal/paper"
)

// Invoker runs one tool-calling chat completion.
type Invoker interface {
	Invoke(ctx context.Context, system, user string, tool llm.Tool) ([]llm.ToolCall, error)
}

const notePrompt = `Take notes the following scientific paper.
This is a technical paper outlining a computer science technique.
The goal is to be able to create a complete understanding of the paper after reading all notes.

Rules:
- Include specific quotes and details inside your notes.
- Respond with as many notes as it might take to cover the entire paper.
- Go into as much detail as you can, while keeping each note on a very specific part of the paper.
- Include notes about the results of any experiments the paper describes.
- Include notes about any steps to reproduce the results of the experiments.
- DO NOT respond with notes like: "The author discusses how well XYZ works.", instead explain what XYZ is and how it works.

Respond with a JSON array with two keys: "note" and "pageNumbers".
"note" will be the specific note, and pageNumbers will be an array of numbers (if the note spans more than one page).
Take a deep breath, and work your way through the paper step by step.`

var noteTool = llm.Tool{
	Name:        "formatNotes",
	Description: "Format the notes response",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"notes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"note": map[string]any{
							"type":        "string",
							"description": "The notes",
						},
						"pageNumbers": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":        "number",
								"description": "The page number(s) of the note",
							},
						},
					},
				},
			},
		},
		"required": []string{"notes"},
	},
}

// notesPayload is the argument shape of one formatNotes call.
type notesPayload struct {
	Notes []paper.Note `json:"notes"`
}

// Synthesizer produces notes for a full paper text.
type Synthesizer struct {
	model Invoker
}

func NewSynthesizer(model Invoker) *Synthesizer {
	return &Synthesizer{model: model}
}

// Synthesize invokes the model once over the full paper text and flattens
// the notes arrays across tool calls, preserving call order. Parser errors
// surface unchanged so the caller can abort ingestion; a missing tool call
// is never treated as "no notes".
func (s *Synthesizer) Synthesize(ctx context.Context, paperText string) ([]paper.Note, error) {
	calls, err := s.model.Invoke(ctx, notePrompt, "Paper: "+paperText, noteTool)
	if err != nil {
		return nil, fmt.Errorf("note synthesis: %w", err)
	}
	payloads, err := llm.DecodeToolCalls[notesPayload](calls)
	if err != nil {
		return nil, err
	}
	var out []paper.Note
	for _, p := range payloads {
		out = append(out, p.Notes...)
	}
	return out, nil
}
