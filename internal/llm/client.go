// Package llm wraps the OpenAI chat API for structured tool-calling
// invocations and decodes the tool calls the model returns.
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Tool describes one function tool offered to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is one structured tool invocation returned by the model. The
// Arguments field is the raw JSON-encoded payload.
type ToolCall struct {
	Name      string
	Arguments string
}

// Client invokes chat models with function tools. Temperature is pinned to
// zero so repeated runs over the same paper stay reproducible.
type Client struct {
	client openai.Client
	model  shared.ChatModel
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  shared.ChatModel(model),
	}
}

// Invoke runs a single chat completion with one function tool bound and
// returns the tool calls from the first choice in order.
func (c *Client) Invoke(ctx context.Context, system, user string, tool Tool) ([]ToolCall, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Temperature: openai.Float(0),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.AssistantMessage(system),
			openai.UserMessage(user),
		},
		Tools: []openai.ChatCompletionToolUnionParam{
			openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Parameters),
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: response has no choices")
	}

	raw := resp.Choices[0].Message.ToolCalls
	calls := make([]ToolCall, 0, len(raw))
	for _, tc := range raw {
		calls = append(calls, ToolCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	return calls, nil
}
