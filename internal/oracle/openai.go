package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle")

// OpenAIOpts configures an OpenAI-compatible oracle.
type OpenAIOpts struct {
	APIKey  string
	Model   string
	BaseURL string // scheme+host(+path) of any OpenAI-compatible endpoint; empty uses api.openai.com
}

// OpenAI implements Oracle over the OpenAI chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI oracle. It returns ErrUnavailable when no API
// key is configured.
func NewOpenAI(opts OpenAIOpts) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("oracle: model is required")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		base := strings.TrimRight(opts.BaseURL, "/")
		if !strings.HasSuffix(base, "/v1") {
			base += "/v1"
		}
		cfg.BaseURL = base
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: opts.Model}, nil
}

func newOpenAIWithClient(client *openai.Client, model string) *OpenAI {
	return &OpenAI{client: client, model: model}
}

// Complete sends one chat completion request.
func (o *OpenAI) Complete(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}
	ctx, span := tracer.Start(ctx, "oracle.complete", trace.WithAttributes(
		attribute.String("gen_ai.system", "openai"),
		attribute.String("gen_ai.request.model", model),
		attribute.Int("oracle.messages", len(req.Messages)),
		attribute.Int("oracle.tools", len(req.Tools)),
	))
	defer span.End()

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOpenAITools(req)
		if req.ToolChoice != "" {
			chatReq.ToolChoice = string(req.ToolChoice)
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("oracle: openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "no choices")
		return nil, fmt.Errorf("oracle: openai chat completion: no choices returned")
	}

	msg := resp.Choices[0].Message
	out := &Completion{
		Content:    msg.Content,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	span.SetAttributes(
		attribute.Int("gen_ai.usage.total_tokens", resp.Usage.TotalTokens),
		attribute.Int("oracle.tool_calls", len(out.ToolCalls)),
		attribute.String("gen_ai.response.finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return out, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		cm := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out[i] = cm
	}
	return out
}

func toOpenAITools(req Request) []openai.Tool {
	out := make([]openai.Tool, 0, len(req.Tools))
	for _, d := range req.Tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  json.RawMessage(d.ParametersJSON()),
			},
		})
	}
	return out
}
