// Package oracle is the language-model boundary: a provider-neutral chat
// completion contract with tool calling.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolChoice controls whether the model may request tools.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// ErrUnavailable is returned when no model is configured.
var ErrUnavailable = errors.New("oracle: unavailable")

// ToolCall is one tool invocation requested by the model. Arguments is the
// raw JSON object the model produced.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Args decodes the call arguments. An empty string decodes to an empty map.
func (c ToolCall) Args() (map[string]interface{}, error) {
	args := map[string]interface{}{}
	if c.Arguments == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(c.Arguments), &args); err != nil {
		return nil, fmt.Errorf("oracle: decode arguments for %s: %w", c.Name, err)
	}
	return args, nil
}

// Message is one chat message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// Request is one completion request.
type Request struct {
	Model      string
	Messages   []Message
	Tools      []tools.Descriptor
	ToolChoice ToolChoice
}

// Completion is the model's reply: final text, tool calls, or both.
type Completion struct {
	Content    string
	ToolCalls  []ToolCall
	Model      string
	TokensUsed int
}

// Oracle completes chat requests.
type Oracle interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, req Request) (*Completion, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (*Completion, error) {
	return f(ctx, req)
}

// CloneMessages deep-copies a message slice.
func CloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = m
		if m.ToolCalls != nil {
			out[i].ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
	}
	return out
}
