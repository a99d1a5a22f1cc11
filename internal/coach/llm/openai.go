package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ Completer = (*Client)(nil)

// Client talks to an OpenAI-compatible chat completion API.
type Client struct {
	api *openai.Client
}

func NewClient(apiKey, baseURL string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return &Client{
		api: openai.NewClientWithConfig(config),
	}
}

func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	completionReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages2openai(req.Messages),
		Temperature: req.Temperature,
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		completionReq.Tools = tools
	}

	switch req.ToolChoice {
	case "":
	case ToolChoiceNone:
		completionReq.ToolChoice = ToolChoiceNone
	default:
		completionReq.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.ToolChoice},
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, completionReq)
	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	message := resp.Choices[0].Message
	completion := &Completion{
		Content: message.Content,
	}
	for _, tc := range message.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return completion, nil
}

func messages2openai(messages []ChatMessage) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		completionMsg := openai.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			completionMsg.ToolCalls = append(completionMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolType(tc.Type),
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		converted = append(converted, completionMsg)
	}
	return converted
}
