// Package oracletest provides a deterministic oracle for tests.
package oracletest

import (
	"context"
	"fmt"
	"sync"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle"
)

// Response configures one scripted completion.
type Response struct {
	Completion oracle.Completion
	Err        error
}

// Scripted returns its responses in order and records every request.
// When the script runs out it repeats Fallback if set, otherwise it errors.
type Scripted struct {
	mu        sync.Mutex
	index     int
	responses []Response
	requests  []oracle.Request
	Fallback  *Response
}

var _ oracle.Oracle = (*Scripted)(nil)

// NewScripted creates a scripted oracle.
func NewScripted(responses ...Response) *Scripted {
	cloned := make([]Response, len(responses))
	copy(cloned, responses)
	return &Scripted{responses: cloned}
}

// Text is a final-answer response.
func Text(content string) Response {
	return Response{Completion: oracle.Completion{Content: content, Model: "scripted", TokensUsed: 10}}
}

// Call is a response requesting one tool call per entry.
func Call(calls ...oracle.ToolCall) Response {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = fmt.Sprintf("call_%d", i+1)
		}
	}
	return Response{Completion: oracle.Completion{ToolCalls: calls, Model: "scripted", TokensUsed: 20}}
}

// Fail is a response returning err.
func Fail(err error) Response {
	return Response{Err: err}
}

// Complete implements oracle.Oracle.
func (s *Scripted) Complete(_ context.Context, req oracle.Request) (*oracle.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.Messages = oracle.CloneMessages(req.Messages)
	s.requests = append(s.requests, req)

	var current Response
	switch {
	case s.index < len(s.responses):
		current = s.responses[s.index]
		s.index++
	case s.Fallback != nil:
		current = *s.Fallback
	default:
		return nil, fmt.Errorf("oracletest: script exhausted at call %d", len(s.requests))
	}
	if current.Err != nil {
		return nil, current.Err
	}
	c := current.Completion
	c.ToolCalls = append([]oracle.ToolCall(nil), c.ToolCalls...)
	return &c, nil
}

// Calls returns how many times Complete was called.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every recorded request.
func (s *Scripted) Requests() []oracle.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]oracle.Request(nil), s.requests...)
}

// Last returns the most recent request.
func (s *Scripted) Last() oracle.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return oracle.Request{}
	}
	return s.requests[len(s.requests)-1]
}
