package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingToolCall        = errors.New("model response contains no tool calls")
	ErrMalformedToolArguments = errors.New("malformed tool call arguments")
)

// DecodeToolCalls decodes every call's JSON arguments into T, preserving
// call order. Zero calls means the model skipped the structured-output path
// and the caller must not interpret that as an empty result. Any malformed
// payload fails the whole decode; a partial note or answer set is not safe
// to act on.
func DecodeToolCalls[T any](calls []ToolCall) ([]T, error) {
	if len(calls) == 0 {
		return nil, ErrMissingToolCall
	}
	out := make([]T, 0, len(calls))
	for i, call := range calls {
		var v T
		if err := json.Unmarshal([]byte(call.Arguments), &v); err != nil {
			return nil, fmt.Errorf("%w: call %d (%s): %v", ErrMalformedToolArguments, i, call.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}
