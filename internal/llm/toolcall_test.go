package llm

import (
	"errors"
	"testing"
)

type notesArgs struct {
	Notes []string `json:"notes"`
}

func TestDecodeToolCalls_PreservesCallOrder(t *testing.T) {
	calls := []ToolCall{
		{Name: "formatNotes", Arguments: `{"notes":["first"]}`},
		{Name: "formatNotes", Arguments: `{"notes":["second","third"]}`},
	}
	decoded, err := DecodeToolCalls[notesArgs](calls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(decoded))
	}
	if decoded[0].Notes[0] != "first" {
		t.Errorf("expected first call first, got %q", decoded[0].Notes[0])
	}
	if decoded[1].Notes[1] != "third" {
		t.Errorf("expected within-call order preserved, got %q", decoded[1].Notes[1])
	}
}

func TestDecodeToolCalls_MissingToolCall(t *testing.T) {
	_, err := DecodeToolCalls[notesArgs](nil)
	if !errors.Is(err, ErrMissingToolCall) {
		t.Errorf("expected ErrMissingToolCall, got %v", err)
	}
}

func TestDecodeToolCalls_MalformedArgumentsFailWholeParse(t *testing.T) {
	calls := []ToolCall{
		{Name: "formatNotes", Arguments: `{"notes":["valid"]}`},
		{Name: "formatNotes", Arguments: `{not json`},
	}
	decoded, err := DecodeToolCalls[notesArgs](calls)
	if !errors.Is(err, ErrMalformedToolArguments) {
		t.Fatalf("expected ErrMalformedToolArguments, got %v", err)
	}
	if decoded != nil {
		t.Error("expected no partial result when any call is malformed")
	}
}
